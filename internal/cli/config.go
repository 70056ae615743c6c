package cli

import (
	"github.com/spf13/cobra"

	"pairing-gallery/internal/gallery"
	"pairing-gallery/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.pairing-gallery/config.json",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the config file and the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return err
			}
			effective := map[string]any{
				"apiUrl":   app.APIURL,
				"timeout":  app.Timeout.String(),
				"format":   app.Format,
				"logFile":  app.LogFile,
				"logLevel": app.LogLevel,
				"pageSize": orDefault(app.PageSize, gallery.DefaultPageSize),
				"cacheCap": orDefault(app.CacheCap, gallery.DefaultCacheCap),
			}
			return writeOut(cmd, app, envelope(app.cfg, map[string]any{
				"path":      path,
				"effective": effective,
				"keys":      store.ConfigKeys(),
			}, "gallery config set <key> <value>"))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set one config key (an empty value resets it)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: store.ConfigKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := store.SaveConfig(cfg); err != nil {
				return err
			}
			path, _ := store.ConfigPath()
			return writeOut(cmd, app, envelope(cfg, map[string]any{"path": path, "set": args[0]}))
		},
	})

	return cmd
}

func orDefault(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
