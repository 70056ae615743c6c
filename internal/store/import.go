package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pairing-gallery/internal/model"
)

// ImportResult reports what an importer did. Missing holds up to maxMissing
// human-readable reasons for skipped rows.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Missing  []string `json:"missing,omitempty"`
}

const maxMissing = 20

func (r *ImportResult) skip(reason string) {
	r.Skipped++
	if reason != "" && len(r.Missing) < maxMissing {
		r.Missing = append(r.Missing, reason)
	}
}

type PoemImportOptions struct {
	// Suffix is appended to the ID column to form the poem name (e.g. "EP" -> "12_EP").
	Suffix string
	// ContentDir, when set, is searched for <name>.txt poem bodies.
	ContentDir string
}

type PairingImportOptions struct {
	Basis          string
	PaintingColumn string
	PoemColumn     string
	PoemSuffix     string
	// ScoreColumn is optional; rows with an empty or zero score are skipped.
	ScoreColumn string
}

// PairingPresets are the column layouts of the known pairing exports.
var PairingPresets = map[string]PairingImportOptions{
	"emotion": {Basis: "Emotion", PaintingColumn: "Art ID", PoemColumn: "Top Poem ID", PoemSuffix: "EP"},
	"clip":    {Basis: "CLIP", PaintingColumn: "Painting", PoemColumn: "Best Matching Poem Index", PoemSuffix: "PF"},
	"object":  {Basis: "Object", PaintingColumn: "Painting", PoemColumn: "Best_Matching_Poem_ID", PoemSuffix: "PF", ScoreColumn: "Score"},
}

// table is a header-indexed csv reader.
type table struct {
	r    *csv.Reader
	cols map[string]int
}

func newTable(r io.Reader, comma rune) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty input: missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[h] = i
	}
	return &table{r: cr, cols: cols}, nil
}

func (t *table) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := t.cols[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) get(rec []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// each calls fn for every data row until EOF.
func (t *table) each(fn func(line int, rec []string) error) error {
	line := 1
	for {
		rec, err := t.r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

// parseYear accepts integers and integral floats ("1890.0"); anything else is unknown (0).
func parseYear(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// normalizeID turns spreadsheet ids like "12.0" into "12".
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// ImportPaintings reads a tab-separated export with columns
// ID, Category, Artist, Title, Year, Painting Info URL.
func (c *Catalog) ImportPaintings(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	t, err := newTable(r, '\t')
	if err != nil {
		return res, err
	}
	if err := t.require("ID"); err != nil {
		return res, err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	err = t.each(func(line int, rec []string) error {
		name := t.get(rec, "ID")
		if name == "" {
			res.skip(fmt.Sprintf("line %d: empty ID", line))
			return nil
		}
		if id, err := lookupID(ctx, tx, "painting", name); err != nil {
			return err
		} else if id != 0 {
			res.skip(fmt.Sprintf("line %d: duplicate painting %s", line, name))
			return nil
		}
		_, err := insertPainting(ctx, tx, model.Painting{
			Name:     name,
			Title:    t.get(rec, "Title"),
			Author:   t.get(rec, "Artist"),
			Year:     parseYear(t.get(rec, "Year")),
			Category: t.get(rec, "Category"),
			InfoURL:  t.get(rec, "Painting Info URL"),
		})
		if err != nil {
			return err
		}
		res.Inserted++
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, tx.Commit()
}

// ImportPoems reads a comma-separated export with an ID column and optional Poet/Title.
func (c *Catalog) ImportPoems(ctx context.Context, r io.Reader, opts PoemImportOptions) (ImportResult, error) {
	var res ImportResult
	t, err := newTable(r, ',')
	if err != nil {
		return res, err
	}
	if err := t.require("ID"); err != nil {
		return res, err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	err = t.each(func(line int, rec []string) error {
		raw := normalizeID(t.get(rec, "ID"))
		if raw == "" {
			res.skip(fmt.Sprintf("line %d: empty ID", line))
			return nil
		}
		name := poemName(raw, opts.Suffix)
		if id, err := lookupID(ctx, tx, "poem", name); err != nil {
			return err
		} else if id != 0 {
			res.skip(fmt.Sprintf("line %d: duplicate poem %s", line, name))
			return nil
		}
		content, err := readPoemContent(opts.ContentDir, name)
		if err != nil {
			return err
		}
		if _, err := insertPoem(ctx, tx, model.Poem{
			Name:    name,
			Title:   t.get(rec, "Title"),
			Author:  t.get(rec, "Poet"),
			Content: content,
		}); err != nil {
			return err
		}
		res.Inserted++
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, tx.Commit()
}

func poemName(id, suffix string) string {
	suffix = strings.TrimPrefix(strings.TrimSpace(suffix), "_")
	if suffix == "" {
		return id
	}
	return id + "_" + suffix
}

func readPoemContent(dir, name string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", nil
	}
	b, err := os.ReadFile(filepath.Join(dir, name+".txt"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read poem %s: %w", name, err)
	}
	return string(b), nil
}

// ImportPairings links existing paintings and poems under opts.Basis. Rows whose
// painting or poem is unknown are skipped.
func (c *Catalog) ImportPairings(ctx context.Context, r io.Reader, opts PairingImportOptions) (ImportResult, error) {
	var res ImportResult
	if strings.TrimSpace(opts.Basis) == "" {
		return res, errors.New("pairing basis is required")
	}
	t, err := newTable(r, ',')
	if err != nil {
		return res, err
	}
	cols := []string{opts.PaintingColumn, opts.PoemColumn}
	if opts.ScoreColumn != "" {
		cols = append(cols, opts.ScoreColumn)
	}
	if err := t.require(cols...); err != nil {
		return res, err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	err = t.each(func(line int, rec []string) error {
		poemRaw := normalizeID(t.get(rec, opts.PoemColumn))
		if poemRaw == "" {
			res.skip(fmt.Sprintf("line %d: empty poem id", line))
			return nil
		}
		if opts.ScoreColumn != "" {
			score, err := strconv.ParseFloat(t.get(rec, opts.ScoreColumn), 64)
			if err != nil || score == 0 {
				res.skip(fmt.Sprintf("line %d: empty or zero score", line))
				return nil
			}
		}
		paintingName := strings.TrimSuffix(t.get(rec, opts.PaintingColumn), ".jpg")
		name := poemName(poemRaw, opts.PoemSuffix)

		paintingID, err := lookupID(ctx, tx, "painting", paintingName)
		if err != nil {
			return err
		}
		poemID, err := lookupID(ctx, tx, "poem", name)
		if err != nil {
			return err
		}
		switch {
		case paintingID == 0 && poemID == 0:
			res.skip(fmt.Sprintf("line %d: painting %s and poem %s not found", line, paintingName, name))
			return nil
		case paintingID == 0:
			res.skip(fmt.Sprintf("line %d: painting %s not found", line, paintingName))
			return nil
		case poemID == 0:
			res.skip(fmt.Sprintf("line %d: poem %s not found", line, name))
			return nil
		}
		if _, err := insertPairing(ctx, tx, opts.Basis, paintingID, poemID); err != nil {
			return err
		}
		res.Inserted++
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, tx.Commit()
}
