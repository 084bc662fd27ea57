package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// healthPollInterval spaces retries while --wait is in effect
const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report whether the drawphone server is up",
		Long: `Asks the server's health endpoint for its status.

With --wait the request is retried until the server answers or the
duration runs out, which is handy right after starting a server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deadline := time.Now().Add(wait)
			for {
				var result HealthResult
				err := client.Get(cmd.Context(), "/api/v1/health", &result)
				if err == nil {
					NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
					return nil
				}
				if !time.Now().Before(deadline) {
					if wait > 0 {
						return fmt.Errorf("server not healthy after %s: %w", wait, err)
					}
					return err
				}

				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(healthPollInterval):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for up to this long")
	return cmd
}
