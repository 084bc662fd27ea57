package cli

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/drawphone/internal/api/request"
	"github.com/mcoot/drawphone/internal/api/response"
)

func newTurnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turn",
		Short: "Show and play turns",
	}

	cmd.AddCommand(newTurnShowCmd())
	cmd.AddCommand(newTurnCaptionCmd())
	cmd.AddCommand(newTurnDrawCmd())

	return cmd
}

func framePath(game, frame string) string {
	return fmt.Sprintf("/api/v1/games/%s/frames/%s", url.PathEscape(game), url.PathEscape(frame))
}

func newTurnShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game> <frame>",
		Short: "Show what a turn should respond to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.TurnInput

			if err := client.Get(cmd.Context(), framePath(args[0], args[1]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newTurnCaptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caption <game> <frame> <text...>",
		Short: "Play a caption turn",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CaptionRequest{Text: strings.Join(args[2:], " ")}
			var result response.TurnPlayed

			if err := client.Put(cmd.Context(), framePath(args[0], args[1])+"/caption", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newTurnDrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draw <game> <frame> <image-file>",
		Short: "Play an image turn from a PNG, JPEG or GIF file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			contentType := mime.TypeByExtension(filepath.Ext(args[2]))
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			var result response.TurnPlayed
			if err := client.Upload(cmd.Context(), framePath(args[0], args[1])+"/image", contentType, f, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
