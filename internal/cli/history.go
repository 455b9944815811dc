package cli

import (
	"fmt"
	"io"

	"lairn-cli/internal/domain"
	"github.com/spf13/cobra"
)

// NewHistoryCmd builds the subcommand that lists past sessions and opens
// individual summaries.
func NewHistoryCmd(configPath, apiURL *string) *cobra.Command {
	var (
		limit     int
		offset    int
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past quiz sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(*configPath, *apiURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if sessionID != "" {
				summary, err := rt.history.SessionSummary(ctx, sessionID)
				if err != nil {
					return fmt.Errorf("could not load selected summary: %w", err)
				}
				printSummary(out, summary)
				return nil
			}

			page, err := rt.history.ListSessions(ctx, limit, offset)
			if err != nil {
				return fmt.Errorf("could not load session history: %w", err)
			}
			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No sessions yet.")
				return nil
			}
			for _, item := range page.Items {
				completed := "in progress"
				if item.CompletedAt != nil {
					completed = item.CompletedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(out, "%-10s  %s  score %d/%d  completed %s\n",
					shortID(item.SessionID),
					item.CreatedAt.Local().Format("2006-01-02 15:04"),
					item.Score.Correct, item.Score.Total,
					completed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of sessions per page")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().StringVar(&sessionID, "session", "", "print the summary of one session instead of the list")
	return cmd
}

func printSummary(out io.Writer, summary domain.Summary) {
	fmt.Fprintf(out, "Session %s\n", shortID(summary.SessionID))
	fmt.Fprintf(out, "Score: %d/%d\n", summary.Score.Correct, summary.Score.Total)
	for _, item := range summary.ByTopic {
		fmt.Fprintf(out, "  %s: %d/%d\n", domain.TopicLabel(item.Topic), item.Correct, item.Total)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
