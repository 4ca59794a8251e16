package command

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:     "channels",
	Aliases: []string{"ch"},
	Short:   "List and manage channels",
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all channels with member counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		channels, err := httpClient.ListChannels(ctx)
		if err != nil {
			return explain(err)
		}
		if len(channels) == 0 {
			fmt.Println("No channels yet. Create one with 'chatcli channels create <name>'.")
			return nil
		}
		for _, ch := range channels {
			fmt.Printf("%4d  #%-24s %d members\n", ch.ID, ch.Name, ch.Members)
		}
		return nil
	},
}

var channelsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a channel; you become its first member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		ch, err := httpClient.CreateChannel(ctx, args[0])
		if err != nil {
			return explain(err)
		}
		color.Green("✓ Created #%s (id %d)", ch.Name, ch.ID)
		return nil
	},
}

var channelsJoinCmd = &cobra.Command{
	Use:   "join [channel_id]",
	Short: "Become a member of a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := parseChannelID(args[0])
		if err != nil {
			return err
		}
		httpClient, _, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		resp, err := httpClient.JoinChannel(ctx, channelID)
		if err != nil {
			return explain(err)
		}
		color.Green("✓ Joined channel %d (%d members)", channelID, resp.Count)
		return nil
	},
}

var channelsLeaveCmd = &cobra.Command{
	Use:   "leave [channel_id]",
	Short: "Give up membership of a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := parseChannelID(args[0])
		if err != nil {
			return err
		}
		httpClient, _, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if err := httpClient.LeaveChannel(ctx, channelID); err != nil {
			return explain(err)
		}
		fmt.Printf("✓ Left channel %d\n", channelID)
		return nil
	},
}

var channelsMembersCmd = &cobra.Command{
	Use:   "members [channel_id]",
	Short: "List members of a channel and who is online",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := parseChannelID(args[0])
		if err != nil {
			return err
		}
		httpClient, _, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		members, err := httpClient.ChannelMembers(ctx, channelID)
		if err != nil {
			return explain(err)
		}
		for _, m := range members {
			if m.Online {
				color.Green("● %s", m.Name)
			} else {
				color.HiBlack("○ %s", m.Name)
			}
		}
		return nil
	},
}

func parseChannelID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid channel id %q", arg)
	}
	return id, nil
}

func init() {
	channelsCmd.AddCommand(channelsListCmd, channelsCreateCmd, channelsJoinCmd, channelsLeaveCmd, channelsMembersCmd)
	rootCmd.AddCommand(channelsCmd)
}
