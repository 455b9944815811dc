package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHealthCmd builds the one-shot backend health check.
func NewHealthCmd(configPath, apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend and model availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath, *apiURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			health, err := rt.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend unreachable: %w", err)
			}
			fmt.Fprintf(out, "Status: %s\n", health.Status)
			fmt.Fprintf(out, "Model: %s\n", health.Model.Model)
			if health.Model.Reachable {
				fmt.Fprintln(out, "Model reachable: yes")
			} else {
				fmt.Fprintln(out, "Model reachable: no")
			}
			return nil
		},
	}
}
