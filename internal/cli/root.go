package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pairing-gallery/internal/api"
	"pairing-gallery/internal/format"
	"pairing-gallery/internal/gallery"
	"pairing-gallery/internal/store"
	"pairing-gallery/internal/tui"
)

const defaultAPIURL = "http://localhost:8000"

type App struct {
	APIURL     string
	Timeout    time.Duration
	PrettyJSON bool
	Format     string
	LogFile    string
	LogLevel   string
	PageSize   int
	CacheCap   int

	cfg       *store.GlobalConfig
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "gallery",
		Short:        "Browse paintings paired with poems",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive gallery
  gallery

  # Scriptable commands
  gallery index --limit 5
  gallery pairings 12 --basis Emotion

  # Direct lookup (shortcut for: gallery painting <id>)
  gallery 12

  # Serve a local catalog
  gallery catalog import paintings data/WikiArt-info.tsv
  gallery serve --images data/paintings
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// A .env in the working directory is optional.
		_ = godotenv.Load()
		if err := app.resolve(cmd); err != nil {
			return err
		}
		return app.setupLogging(cmd, cmd == cmd.Root())
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Painting API base url (env GALLERY_API_URL; default "+defaultAPIURL+")")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout (env GALLERY_TIMEOUT; default 10s)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "", "Output format (json|yaml; env GALLERY_FORMAT)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Append logs to this file (env GALLERY_LOG_FILE)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level: debug|info|warn|error (env GALLERY_LOG_LEVEL)")
	cmd.PersistentFlags().IntVar(&app.PageSize, "page-size", 0, "Paintings per index page while populating the gallery (default 20)")
	cmd.PersistentFlags().IntVar(&app.CacheCap, "cache-cap", 0, "Maximum paintings kept in the carousel (default 100)")

	cmd.AddCommand(newIndexCmd(app))
	cmd.AddCommand(newPaintingCmd(app))
	cmd.AddCommand(newPairingsCmd(app))
	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newCatalogCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// resolve applies flag > env > config file > default for every setting.
func (app *App) resolve(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	app.cfg = cfg
	flags := cmd.Flags()

	if !flags.Changed("api-url") {
		app.APIURL = firstNonEmpty(os.Getenv("GALLERY_API_URL"), cfg.APIURL, defaultAPIURL)
	}
	if !flags.Changed("format") {
		app.Format = firstNonEmpty(os.Getenv("GALLERY_FORMAT"), "json")
	}
	if !flags.Changed("log-file") {
		app.LogFile = firstNonEmpty(os.Getenv("GALLERY_LOG_FILE"), cfg.LogFile)
	}
	if !flags.Changed("log-level") {
		app.LogLevel = firstNonEmpty(os.Getenv("GALLERY_LOG_LEVEL"), cfg.LogLevel, "info")
	}
	if !flags.Changed("timeout") {
		app.Timeout = api.DefaultTimeout
		if cfg.TimeoutSeconds > 0 {
			app.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		if v := strings.TrimSpace(os.Getenv("GALLERY_TIMEOUT")); v != "" {
			d, err := parseTimeout(v)
			if err != nil {
				return fmt.Errorf("GALLERY_TIMEOUT: %w", err)
			}
			app.Timeout = d
		}
	}
	if !flags.Changed("page-size") {
		app.PageSize = cfg.PageSize
	}
	if !flags.Changed("cache-cap") {
		app.CacheCap = cfg.CacheCap
	}
	if app.PageSize < 0 || app.CacheCap < 0 {
		return fmt.Errorf("page size and cache cap must not be negative")
	}
	return nil
}

// parseTimeout accepts a Go duration ("15s") or a plain number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (app *App) client() *api.Client {
	return api.NewClient(app.APIURL, app.Timeout)
}

func (app *App) galleryOptions() gallery.Options {
	return gallery.Options{PageSize: app.PageSize, CacheCap: app.CacheCap}
}

func runTUI(cmd *cobra.Command, app *App) error {
	opts := tui.Options{
		Gallery: app.galleryOptions(),
		Logger:  app.logger(),
	}
	if app.cfg != nil && app.cfg.TUI != nil {
		opts.Theme = app.cfg.TUI.Theme
		opts.Glyphs = app.cfg.TUI.Glyphs
	}
	return tui.Run(cmd.Context(), app.client(), opts)
}

// envelope is the {data, meta, _hints} shape every scriptable command prints.
func envelope(data any, meta map[string]any, hints ...string) map[string]any {
	out := map[string]any{"data": data}
	if meta != nil {
		out["meta"] = meta
	}
	if len(hints) > 0 {
		out["_hints"] = hints
	}
	return out
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}
