package command

import (
	"fmt"
	"os"
	"os/signal"

	"teamchat/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [channel_id]",
	Short: "Open a realtime chat in a channel",
	Long: `Opens the channel, shows recent history and streams new messages.
Type a line to send it. "/who" lists who is online, "/quit" leaves.
Your own messages show ✓ N once delivered and ✓✓ N once read.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := parseChannelID(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("history")

		httpClient, creds, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reqCtx, cancel := requestContext(cmd)
		defer cancel()
		members, err := httpClient.ChannelMembers(reqCtx, channelID)
		if err != nil {
			return explain(err)
		}
		history, err := httpClient.History(reqCtx, channelID, 1, limit)
		if err != nil {
			return explain(err)
		}

		fmt.Printf("🔌 Connecting to channel %d...\n", channelID)
		conn, err := client.DialChat(ctx, apiURL, creds.Token)
		if err != nil {
			return err
		}

		session := client.NewChatSession(conn, creds.UserID, channelID, color.Output)
		session.SetMembers(members)
		if err := session.Start(history); err != nil {
			conn.Close()
			return err
		}
		color.Green("✅ Connected as %s. Type your messages (/who, /quit)", creds.Name)

		return session.Run(ctx, os.Stdin)
	},
}

func init() {
	chatCmd.Flags().Int("history", 20, "How many recent messages to show on open")
	rootCmd.AddCommand(chatCmd)
}
