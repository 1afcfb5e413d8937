package cli

import (
	"github.com/jwulff/steno/notes/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the history as MCP tools on stdio",
		Long: `Serve list_conversations, get_conversation, save_conversation and
delete_conversation over the MCP stdio transport.

Logs go to the log file; with -v they are also written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.logger.Info("serving mcp on stdio")
			return mcpserver.New(s.store, s.logger).ServeStdio(Version)
		},
	}
}
