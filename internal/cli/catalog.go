package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"pairing-gallery/internal/store"
)

func newCatalogCmd(app *App) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local painting catalog served by `gallery serve`",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Catalog database (default: catalogPath from config, else ~/.pairing-gallery/catalog.sqlite)")

	open := func() (*store.Catalog, error) {
		path, err := app.catalogPath(dbPath)
		if err != nil {
			return nil, err
		}
		return store.OpenCatalog(path)
	}

	cmd.AddCommand(newCatalogImportCmd(app, open))
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count paintings, poems and pairings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := open()
			if err != nil {
				return err
			}
			defer cat.Close()
			st, err := cat.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, app, envelope(st, nil, "gallery serve"))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "clear [table]",
		Short:     "Empty one catalog table (pairing|poem|painting) or all of them",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: store.CatalogTables,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := ""
			if len(args) == 1 {
				table = strings.TrimSpace(args[0])
			}
			cat, err := open()
			if err != nil {
				return err
			}
			defer cat.Close()
			if err := cat.Clear(cmd.Context(), table); err != nil {
				return err
			}
			st, err := cat.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cleared := table
			if cleared == "" {
				cleared = "all"
			}
			return writeOut(cmd, app, envelope(st, map[string]any{"cleared": cleared}))
		},
	})
	return cmd
}

type catalogOpener func() (*store.Catalog, error)

func newCatalogImportCmd(app *App, open catalogOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import paintings, poems or pairings from the dataset exports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "paintings <file.tsv>",
		Short: "Import paintings from a tab-separated export (ID, Category, Artist, Title, Year, Painting Info URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, app, open, args[0], "paintings", func(ctx context.Context, cat *store.Catalog, r io.Reader) (store.ImportResult, error) {
				return cat.ImportPaintings(ctx, r)
			})
		},
	})

	var poemOpts store.PoemImportOptions
	poems := &cobra.Command{
		Use:   "poems <file.csv>",
		Short: "Import poems from a CSV export (ID[, Poet, Title])",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, app, open, args[0], "poems", func(ctx context.Context, cat *store.Catalog, r io.Reader) (store.ImportResult, error) {
				return cat.ImportPoems(ctx, r, poemOpts)
			})
		},
	}
	poems.Flags().StringVar(&poemOpts.Suffix, "suffix", "", "Name suffix appended to each ID (e.g. EP or PF)")
	poems.Flags().StringVar(&poemOpts.ContentDir, "content-dir", "", "Directory of <name>.txt poem bodies")
	cmd.AddCommand(poems)

	var (
		preset      string
		pairingOpts store.PairingImportOptions
	)
	pairings := &cobra.Command{
		Use:   "pairings <file.csv>",
		Short: "Import painting/poem pairings from a CSV export",
		Long: `Links existing paintings and poems. Use --preset for the known exports
(` + strings.Join(presetNames(), ", ") + `) or give the columns explicitly. Rows whose
painting or poem is missing are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pairingOpts
			if preset != "" {
				p, ok := store.PairingPresets[strings.ToLower(preset)]
				if !ok {
					return fmt.Errorf("unknown preset %q (want one of %s)", preset, strings.Join(presetNames(), ", "))
				}
				// Explicit flags refine the preset.
				if cmd.Flags().Changed("basis") {
					p.Basis = opts.Basis
				}
				if cmd.Flags().Changed("painting-col") {
					p.PaintingColumn = opts.PaintingColumn
				}
				if cmd.Flags().Changed("poem-col") {
					p.PoemColumn = opts.PoemColumn
				}
				if cmd.Flags().Changed("poem-suffix") {
					p.PoemSuffix = opts.PoemSuffix
				}
				if cmd.Flags().Changed("score-col") {
					p.ScoreColumn = opts.ScoreColumn
				}
				opts = p
			}
			return runImport(cmd, app, open, args[0], "pairings", func(ctx context.Context, cat *store.Catalog, r io.Reader) (store.ImportResult, error) {
				return cat.ImportPairings(ctx, r, opts)
			})
		},
	}
	pairings.Flags().StringVar(&preset, "preset", "", "Known export layout: "+strings.Join(presetNames(), "|"))
	pairings.Flags().StringVar(&pairingOpts.Basis, "basis", "", "Pairing basis label (e.g. Emotion)")
	pairings.Flags().StringVar(&pairingOpts.PaintingColumn, "painting-col", "Painting", "Column holding the painting name")
	pairings.Flags().StringVar(&pairingOpts.PoemColumn, "poem-col", "Poem", "Column holding the poem id")
	pairings.Flags().StringVar(&pairingOpts.PoemSuffix, "poem-suffix", "", "Suffix appended to poem ids")
	pairings.Flags().StringVar(&pairingOpts.ScoreColumn, "score-col", "", "Optional score column; empty or zero rows are skipped")
	cmd.AddCommand(pairings)

	return cmd
}

func presetNames() []string {
	names := make([]string, 0, len(store.PairingPresets))
	for k := range store.PairingPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func runImport(cmd *cobra.Command, app *App, open catalogOpener, file, kind string, fn func(context.Context, *store.Catalog, io.Reader) (store.ImportResult, error)) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	cat, err := open()
	if err != nil {
		return err
	}
	defer cat.Close()

	res, err := fn(cmd.Context(), cat, f)
	if err != nil {
		return fmt.Errorf("import %s from %s: %w", kind, file, err)
	}
	slog.Info("catalog import", "kind", kind, "file", file, "inserted", res.Inserted, "skipped", res.Skipped)
	return writeOut(cmd, app, envelope(res, map[string]any{"kind": kind, "file": file, "db": cat.Path()}, "gallery catalog stats"))
}
