package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/drawphone/internal/api/request"
	"github.com/mcoot/drawphone/internal/api/response"
)

func newChatCmd() *cobra.Command {
	var (
		platform string
		channel  string
		sender   string
		mentions []string
	)

	cmd := &cobra.Command{
		Use:   "chat <text...>",
		Short: "Send a bot command as a chat user",
		Example: `  drawphonectl chat --channel C1 --as U1:ada --mention U2:bo --mention U3:cy --mention U4:di "@drawphone start"
  drawphonectl chat --channel C1 --as U1:ada "@drawphone status"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.ChatCommandRequest{
				Channel: request.Channel{Platform: platform, ID: channel},
				Sender:  parsePlayerRef(platform, sender),
				Text:    strings.Join(args, " "),
			}
			for _, m := range mentions {
				req.Mentions = append(req.Mentions, parsePlayerRef(platform, m))
			}

			var result response.ChatReply
			if err := client.Post(cmd.Context(), "/api/v1/chat/commands", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "slack", "Chat platform: slack, discord")
	cmd.Flags().StringVar(&channel, "channel", "", "Channel id the command is sent in")
	cmd.Flags().StringVar(&sender, "as", "", "Sending user, as id[:name]")
	cmd.Flags().StringArrayVar(&mentions, "mention", nil, "Mentioned user, as id[:name] (repeatable)")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

// parsePlayerRef parses "id[:name]"
func parsePlayerRef(platform, s string) request.PlayerRef {
	id, name, _ := strings.Cut(s, ":")
	return request.PlayerRef{Platform: platform, PlatformID: id, Name: name}
}
