package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jwulff/steno/notes/internal/db"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newShowCmd(s *session) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one conversation",
		Long: `Print a saved conversation with all of its phrases. Conversations older
than the history window can still be shown by ID.

Examples:
  steno-notes show 12
  steno-notes show 12 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			conv, err := s.store.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get conversation: %w", err)
			}
			if conv == nil {
				return fmt.Errorf("conversation not found: %d", id)
			}

			return writeConversation(cmd.OutOrStdout(), conv, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")
	return cmd
}

func writeConversation(w io.Writer, c *db.Conversation, format string) error {
	switch format {
	case "text":
		fmt.Fprintf(w, "#%d %s\n", c.ID, c.Name)
		fmt.Fprintf(w, "%s\n\n", c.Date.Local().Format("2006-01-02 15:04:05"))
		for _, p := range c.Phrases {
			fmt.Fprintln(w, p)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(c)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid conversation id %q", arg)
	}
	return id, nil
}
