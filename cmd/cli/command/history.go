package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [channel_id]",
	Short: "Print one page of channel history",
	Long:  `Page 1 holds the newest messages. Messages print oldest first within the page.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := parseChannelID(args[0])
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		httpClient, _, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		messages, err := httpClient.History(ctx, channelID, page, limit)
		if err != nil {
			return explain(err)
		}
		if len(messages) == 0 {
			fmt.Println("No messages on this page.")
			return nil
		}
		for _, m := range messages {
			fmt.Printf("%s  %s: %s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), m.SenderName, m.Text)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("page", 1, "Page number, 1 is newest")
	historyCmd.Flags().Int("limit", 20, "Messages per page (max 100)")
	rootCmd.AddCommand(historyCmd)
}
