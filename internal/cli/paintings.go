package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pairing-gallery/internal/model"
)

func newIndexCmd(app *App) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "index",
		Short: "List one page of the painting index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.client().FetchIndex(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			meta := map[string]any{"count": len(res.Paintings)}
			hints := []string{}
			if res.Pagination != nil {
				meta["pagination"] = res.Pagination
				if res.Pagination.HasNext {
					hints = append(hints, fmt.Sprintf("gallery index --page %d --limit %d", page+1, limit))
				}
			}
			if len(res.Paintings) > 0 {
				hints = append(hints, fmt.Sprintf("gallery painting %d", res.Paintings[0].ID))
			}
			return writeOut(cmd, app, envelope(res.Paintings, meta, hints...))
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Paintings per page")
	return cmd
}

func newPaintingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "painting <id>",
		Aliases: []string{"show"},
		Short:   "Show one painting with its pairings",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := app.client().FetchPaintingDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			groups := d.Painting.PairingGroups()
			bases := make([]string, 0, len(groups))
			for _, g := range groups {
				bases = append(bases, g.Basis)
			}
			meta := map[string]any{
				"pairings": len(d.Painting.Pairings),
				"bases":    bases,
				"hasImage": d.ImageURL != "",
			}
			hints := make([]string, 0, len(bases))
			for _, b := range bases {
				hints = append(hints, fmt.Sprintf("gallery pairings %d --basis %s", id, b))
			}
			return writeOut(cmd, app, envelope(d, meta, hints...))
		},
	}
}

func newPairingsCmd(app *App) *cobra.Command {
	var basis string

	cmd := &cobra.Command{
		Use:   "pairings <painting-id>",
		Short: "Show a painting's pairings grouped by basis",
		Long: `Lists one entry per pairing basis. The representative pairing of a basis is
the first pairing with that basis. With --basis, prints that representative pairing
including the poem text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := app.client().FetchPaintingDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			p := d.Painting
			meta := map[string]any{"painting": id, "title": p.Title}

			if strings.TrimSpace(basis) != "" {
				pr, ok := p.RepresentativeFor(basis)
				if !ok {
					return fmt.Errorf("painting %d has no %q pairing", id, basis)
				}
				return writeOut(cmd, app, envelope(pr, meta))
			}

			type entry struct {
				Basis          string        `json:"basis"`
				Count          int           `json:"count"`
				Representative model.Pairing `json:"representative"`
			}
			out := []entry{}
			for _, g := range p.PairingGroups() {
				rep, _ := g.Representative()
				out = append(out, entry{Basis: g.Basis, Count: len(g.Pairings), Representative: rep})
			}
			var hints []string
			if len(out) > 0 {
				hints = append(hints, fmt.Sprintf("gallery pairings %d --basis %s", id, out[0].Basis))
			}
			return writeOut(cmd, app, envelope(out, meta, hints...))
		},
	}

	cmd.Flags().StringVar(&basis, "basis", "", "Print the representative pairing for this basis")
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid painting id %q (want a positive integer)", s)
	}
	return id, nil
}
