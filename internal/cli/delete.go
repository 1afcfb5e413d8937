package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Long: `Delete a saved conversation by ID.

Requires confirmation unless --force is used.

Examples:
  steno-notes delete 12
  steno-notes delete 12 --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			conv, err := s.store.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("get conversation: %w", err)
			}
			if conv == nil {
				return fmt.Errorf("conversation not found: %d", id)
			}

			if !force {
				fmt.Fprintf(out, "About to delete: #%d %s (%d phrases)\n", conv.ID, conv.Name, len(conv.Phrases))
				fmt.Fprint(out, "\nContinue? [y/N]: ")

				response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && response == "" {
					return fmt.Errorf("read input: %w", err)
				}
				response = strings.TrimSpace(strings.ToLower(response))
				if response != "y" && response != "yes" {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if err := s.store.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete conversation: %w", err)
			}
			fmt.Fprintf(out, "Deleted: #%d %s\n", conv.ID, conv.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}
