package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		Long: `List conversations saved within the history window (history_window in
the config file, 7 days by default), newest first.

Examples:
  steno-notes list
  steno-notes list -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			convs, err := s.store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(convs) == 0 {
				fmt.Fprintf(out, "No conversations in the last %s.\n", describeWindow(s.window))
				return nil
			}

			fmt.Fprintf(out, "Conversations (%d):\n\n", len(convs))
			for _, c := range convs {
				fmt.Fprintf(out, "%4d  %s  %s (%d phrases)\n",
					c.ID, c.Date.Local().Format("2006-01-02 15:04"), c.Name, len(c.Phrases))
				if s.verbose && len(c.Phrases) > 0 {
					fmt.Fprintf(out, "      %s\n", c.Phrases[0])
				}
			}
			return nil
		},
	}
}

// describeWindow words a history window for messages: "7 days", "36h0m0s".
func describeWindow(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d == day:
		return "day"
	case d > 0 && d%day == 0:
		return fmt.Sprintf("%d days", d/day)
	default:
		return d.String()
	}
}
