package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"pairing-gallery/internal/model"
)

// ErrPaintingNotFound is returned by Catalog.Painting for an unknown id.
var ErrPaintingNotFound = errors.New("painting not found")

// CatalogTables lists the catalog tables in dependency order (children first).
var CatalogTables = []string{"pairing", "poem", "painting"}

// Catalog is the SQLite-backed painting/poem/pairing store served by the API server.
type Catalog struct {
	db   *sql.DB
	path string
}

type CatalogStats struct {
	Path      string         `json:"path"`
	Paintings int            `json:"paintings"`
	Poems     int            `json:"poems"`
	Pairings  int            `json:"pairings"`
	ByBasis   map[string]int `json:"byBasis,omitempty"`
}

const catalogPragmas = "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"

func OpenCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	// WAL lets the API server read while an import writes.
	db, err := sql.Open("sqlite", path+catalogPragmas)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c := &Catalog{db: db, path: path}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *Catalog) Path() string { return c.path }

func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS painting (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		name     TEXT NOT NULL UNIQUE,
		title    TEXT NOT NULL DEFAULT '',
		author   TEXT NOT NULL DEFAULT '',
		year     INTEGER,
		category TEXT NOT NULL DEFAULT '',
		info_url TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS poem (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    TEXT NOT NULL UNIQUE,
		title   TEXT NOT NULL DEFAULT '',
		author  TEXT NOT NULL DEFAULT '',
		content TEXT
	);
	CREATE TABLE IF NOT EXISTS pairing (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		basis       TEXT NOT NULL,
		painting_id INTEGER NOT NULL REFERENCES painting(id) ON DELETE CASCADE,
		poem_id     INTEGER NOT NULL REFERENCES poem(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_pairing_painting ON pairing(painting_id);
	`
	_, err := c.db.Exec(schema)
	return err
}

// IndexPage returns one page of painting summaries ordered by id, plus the total painting count.
func (c *Catalog) IndexPage(ctx context.Context, page, limit int) ([]model.Painting, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, fmt.Errorf("invalid page/limit: %d/%d", page, limit)
	}
	if page-1 > math.MaxInt/limit {
		return nil, 0, fmt.Errorf("page %d out of range for limit %d", page, limit)
	}
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM painting`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count paintings: %w", err)
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, title, author, year, category
		FROM painting
		ORDER BY id
		LIMIT ? OFFSET ?`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list paintings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Painting, 0, limit)
	for rows.Next() {
		var (
			p    model.Painting
			year sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Title, &p.Author, &year, &p.Category); err != nil {
			return nil, 0, err
		}
		p.Year = int(year.Int64)
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Painting loads one painting with its pairings and poem content.
func (c *Catalog) Painting(ctx context.Context, id int) (model.Painting, error) {
	var (
		p    model.Painting
		year sql.NullInt64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, title, author, year, category, info_url
		FROM painting WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Title, &p.Author, &year, &p.Category, &p.InfoURL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Painting{}, ErrPaintingNotFound
	}
	if err != nil {
		return model.Painting{}, fmt.Errorf("load painting %d: %w", id, err)
	}
	p.Year = int(year.Int64)

	rows, err := c.db.QueryContext(ctx, `
		SELECT pr.id, pr.basis, po.id, po.name, po.title, po.author, po.content
		FROM pairing pr
		JOIN poem po ON pr.poem_id = po.id
		WHERE pr.painting_id = ?
		ORDER BY pr.id`, id)
	if err != nil {
		return model.Painting{}, fmt.Errorf("load pairings for %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pr      model.Pairing
			content sql.NullString
		)
		if err := rows.Scan(&pr.ID, &pr.Basis, &pr.Poem.ID, &pr.Poem.Name, &pr.Poem.Title, &pr.Poem.Author, &content); err != nil {
			return model.Painting{}, err
		}
		pr.Poem.Content = content.String
		p.Pairings = append(p.Pairings, pr)
	}
	return p, rows.Err()
}

// InsertPainting stores p (ID is ignored) and returns the new id. Year 0 is stored as NULL.
func (c *Catalog) InsertPainting(ctx context.Context, p model.Painting) (int, error) {
	return insertPainting(ctx, c.db, p)
}

func (c *Catalog) InsertPoem(ctx context.Context, p model.Poem) (int, error) {
	return insertPoem(ctx, c.db, p)
}

func (c *Catalog) InsertPairing(ctx context.Context, basis string, paintingID, poemID int) (int, error) {
	return insertPairing(ctx, c.db, basis, paintingID, poemID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertPainting(ctx context.Context, db execer, p model.Painting) (int, error) {
	var year any
	if p.Year != 0 {
		year = p.Year
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO painting (name, title, author, year, category, info_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Title, p.Author, year, p.Category, p.InfoURL)
	if err != nil {
		return 0, fmt.Errorf("insert painting %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func insertPoem(ctx context.Context, db execer, p model.Poem) (int, error) {
	var content any
	if p.Content != "" {
		content = p.Content
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO poem (name, title, author, content)
		VALUES (?, ?, ?, ?)`,
		p.Name, p.Title, p.Author, content)
	if err != nil {
		return 0, fmt.Errorf("insert poem %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func insertPairing(ctx context.Context, db execer, basis string, paintingID, poemID int) (int, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO pairing (basis, painting_id, poem_id) VALUES (?, ?, ?)`,
		basis, paintingID, poemID)
	if err != nil {
		return 0, fmt.Errorf("insert pairing %s %d/%d: %w", basis, paintingID, poemID, err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// lookupID returns the id for name in table, or 0 when absent.
func lookupID(ctx context.Context, db execer, table, name string) (int, error) {
	var id int
	err := db.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// Clear empties table, or every catalog table when table is "". Ids restart from 1.
func (c *Catalog) Clear(ctx context.Context, table string) error {
	tables := CatalogTables
	if table != "" {
		if !isCatalogTable(table) {
			return fmt.Errorf("unknown table %q (want one of %s)", table, strings.Join(CatalogTables, ", "))
		}
		tables = []string{table}
		// Clearing a parent also drops the pairings that point at it.
		if table != "pairing" {
			tables = []string{"pairing", table}
		}
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
		// sqlite_sequence only exists once an AUTOINCREMENT table has been written.
		_, _ = tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", t)
	}
	return tx.Commit()
}

func isCatalogTable(name string) bool {
	for _, t := range CatalogTables {
		if t == name {
			return true
		}
	}
	return false
}

func (c *Catalog) Stats(ctx context.Context) (CatalogStats, error) {
	st := CatalogStats{Path: c.path}
	counts := []struct {
		table string
		dst   *int
	}{
		{"painting", &st.Paintings},
		{"poem", &st.Poems},
		{"pairing", &st.Pairings},
	}
	for _, ct := range counts {
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ct.table).Scan(ct.dst); err != nil {
			return CatalogStats{}, fmt.Errorf("count %s: %w", ct.table, err)
		}
	}
	rows, err := c.db.QueryContext(ctx, `SELECT basis, COUNT(*) FROM pairing GROUP BY basis ORDER BY basis`)
	if err != nil {
		return CatalogStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			basis string
			n     int
		)
		if err := rows.Scan(&basis, &n); err != nil {
			return CatalogStats{}, err
		}
		if st.ByBasis == nil {
			st.ByBasis = map[string]int{}
		}
		st.ByBasis[basis] = n
	}
	return st, rows.Err()
}
