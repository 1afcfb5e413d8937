// Package cli provides the command-line interface for steno-notes.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/steno/notes/internal/app"
	"github.com/jwulff/steno/notes/internal/config"
	"github.com/jwulff/steno/notes/internal/db"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// session is the state the persistent hooks set up for a single command run.
type session struct {
	configPath string
	verbose    bool

	cfg      config.Config
	window   time.Duration
	logger   *slog.Logger
	closeLog func() error
	store    *db.Store
}

// newRootCmd builds the command tree over s. Running it without a
// subcommand starts the TUI.
func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "steno-notes",
		Short: "Record, save and browse transcribed conversations",
		Long: `steno-notes shows the live transcript from steno-daemon and saves it as
named conversations in a local SQLite history.

Run without a subcommand to open the TUI. The other commands read and edit
the same history from the shell or over MCP.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return s.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.close(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTUI()
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&s.configPath, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newListCmd(s))
	root.AddCommand(newShowCmd(s))
	root.AddCommand(newDeleteCmd(s))
	root.AddCommand(newMCPCmd(s))

	return root
}

// open loads config, sets up logging and initializes the store.
func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	s.cfg = cfg

	level := cfg.Level()
	var console io.Writer
	if s.verbose {
		level = slog.LevelDebug
		// The TUI owns the terminal, so it only logs to the file.
		if cmd.HasParent() {
			console = cmd.ErrOrStderr()
		}
	}
	s.logger, s.closeLog = config.SetupLogger(cfg.LogFile, level, console)

	window, err := cfg.Window()
	if err != nil {
		return fmt.Errorf("history window: %w", err)
	}
	s.window = window
	s.store = db.New(cfg.DBPath, db.WithWindow(window), db.WithLogger(s.logger))

	if err := s.store.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	s.logger.Debug("history opened", "path", cfg.DBPath, "command", cmd.Name())
	return nil
}

func (s *session) close(stderr io.Writer) {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close history: %v\n", err)
		}
		s.store = nil
	}
	if s.closeLog != nil {
		_ = s.closeLog()
		s.closeLog = nil
	}
}

func (s *session) runTUI() error {
	m := app.New(s.store, s.cfg.SocketPath, s.cfg.DaemonLocale())
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	s := &session{}
	return runRoot(context.Background(), s, newRootCmd(s), os.Stderr)
}

// runRoot executes root and closes s afterwards. Cobra skips
// PersistentPostRun when a command fails, so the close can't live only there.
func runRoot(ctx context.Context, s *session, root *cobra.Command, stderr io.Writer) error {
	defer s.close(stderr)
	return root.ExecuteContext(ctx)
}
