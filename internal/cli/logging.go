package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// setupLogging installs the default slog logger. The TUI owns the terminal, so it
// only ever logs to --log-file (or nowhere); other commands log to stderr.
func (app *App) setupLogging(cmd *cobra.Command, interactive bool) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(app.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", app.LogLevel, err)
	}

	var w io.Writer = cmd.ErrOrStderr()
	if interactive {
		w = io.Discard
	}
	if app.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(app.LogFile), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(app.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		app.logCloser = f
		w = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func (app *App) logger() *slog.Logger { return slog.Default() }
