package cli

import (
	"github.com/spf13/cobra"

	"pairing-gallery/internal/apiserver"
	"pairing-gallery/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		dbPath    string
		imagesDir string
		addr      string
		publicURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the painting API from a local catalog",
		Long: `Starts the painting API (index, painting detail, images, healthcheck) over a
SQLite catalog built with "gallery catalog import". Point the gallery at it with
--api-url http://localhost:8000.`,
		Example: `  # Serve the default catalog on :8000
  gallery serve --images ./paintings

  # Custom catalog and address
  gallery serve --db ./catalog.sqlite --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.catalogPath(dbPath)
			if err != nil {
				return err
			}
			cat, err := store.OpenCatalog(path)
			if err != nil {
				return err
			}
			defer cat.Close()

			if imagesDir == "" && app.cfg != nil {
				imagesDir = app.cfg.ImagesDir
			}
			srv, err := apiserver.New(cat, apiserver.Options{
				Addr:      addr,
				ImagesDir: imagesDir,
				PublicURL: publicURL,
				Logger:    app.logger(),
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog database (default: catalogPath from config, else ~/.pairing-gallery/catalog.sqlite)")
	cmd.Flags().StringVar(&imagesDir, "images", "", "Directory of <name>.jpg painting images")
	cmd.Flags().StringVar(&addr, "addr", envOr("GALLERY_ADDR", ":8000"), "Listen address")
	cmd.Flags().StringVar(&publicURL, "public-url", "", "Base url used in image links (default: derived from the request)")
	return cmd
}

// catalogPath resolves --db, then config catalogPath, then the default location.
func (app *App) catalogPath(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if app.cfg != nil && app.cfg.CatalogPath != "" {
		return app.cfg.CatalogPath, nil
	}
	return store.DefaultCatalogPath()
}
