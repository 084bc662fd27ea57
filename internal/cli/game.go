package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/drawphone/internal/api/response"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Browse games",
	}

	cmd.AddCommand(newGamesListCmd())
	cmd.AddCommand(newGamesShowCmd())

	return cmd
}

func newGamesListCmd() *cobra.Command {
	var (
		completed bool
		channel   string
		limit     int
		sample    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if cmd.Flags().Changed("completed") {
				q.Set("completed", strconv.FormatBool(completed))
			}
			if channel != "" {
				q.Set("channel", channel)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if sample {
				q.Set("sample", "true")
			}

			path := "/api/v1/games"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result response.GameList
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Only completed (or with =false, only running) games")
	cmd.Flags().StringVar(&channel, "channel", "", "Only games started in this channel, as platform:id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of games")
	cmd.Flags().BoolVar(&sample, "sample", false, "Pick games at random instead of the most recent")

	return cmd
}

func newGamesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a completed game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/games/%s", url.PathEscape(args[0])), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
