package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pairing-gallery/internal/model"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalog_IndexPageOrdersByIDAndCounts(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		if _, err := c.InsertPainting(ctx, model.Painting{Name: name, Title: strings.ToUpper(name), Year: 1900 + i}); err != nil {
			t.Fatalf("InsertPainting: %v", err)
		}
	}

	page, total, err := c.IndexPage(ctx, 2, 2)
	if err != nil {
		t.Fatalf("IndexPage: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(page) != 2 || page[0].Name != "c" || page[1].Name != "d" {
		t.Fatalf("unexpected page 2: %+v", page)
	}
	if page[0].Year != 1902 {
		t.Fatalf("expected year 1902, got %d", page[0].Year)
	}

	last, _, err := c.IndexPage(ctx, 3, 2)
	if err != nil {
		t.Fatalf("IndexPage(3): %v", err)
	}
	if len(last) != 1 || last[0].Name != "e" {
		t.Fatalf("unexpected last page: %+v", last)
	}

	if _, _, err := c.IndexPage(ctx, 0, 2); err == nil {
		t.Fatalf("expected error for page 0")
	}
	if _, _, err := c.IndexPage(ctx, math.MaxInt, 2000); err == nil {
		t.Fatalf("expected error for a page whose offset overflows")
	}
}

func TestCatalog_PragmasApplyToEveryConnection(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	// Holding the first connection forces the pool to open a second one.
	conn1, err := c.db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer conn1.Close()
	conn2, err := c.db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer conn2.Close()

	for i, conn := range []*sql.Conn{conn1, conn2} {
		var fk, timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn%d foreign_keys: %v", i+1, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn%d busy_timeout: %v", i+1, err)
		}
		if fk != 1 || timeout != 5000 {
			t.Fatalf("conn%d: foreign_keys=%d busy_timeout=%d", i+1, fk, timeout)
		}
	}

	if _, err := conn2.ExecContext(ctx, `INSERT INTO pairing (basis, painting_id, poem_id) VALUES ('Emotion', 999, 999)`); err == nil {
		t.Fatalf("expected orphan pairing to be rejected")
	}
}

func TestCatalog_PaintingWithPairings(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	pid, err := c.InsertPainting(ctx, model.Painting{Name: "starry", Title: "Starry Night", Author: "van Gogh", InfoURL: "https://example.test/starry"})
	if err != nil {
		t.Fatalf("InsertPainting: %v", err)
	}
	p1, _ := c.InsertPoem(ctx, model.Poem{Name: "1_EP", Content: "the night sky"})
	p2, _ := c.InsertPoem(ctx, model.Poem{Name: "2_PF", Title: "Stars", Author: "Someone"})
	if _, err := c.InsertPairing(ctx, "Emotion", pid, p1); err != nil {
		t.Fatalf("InsertPairing: %v", err)
	}
	if _, err := c.InsertPairing(ctx, "CLIP", pid, p2); err != nil {
		t.Fatalf("InsertPairing: %v", err)
	}

	got, err := c.Painting(ctx, pid)
	if err != nil {
		t.Fatalf("Painting: %v", err)
	}
	if got.InfoURL != "https://example.test/starry" || got.Year != 0 {
		t.Fatalf("unexpected painting: %+v", got)
	}
	if len(got.Pairings) != 2 {
		t.Fatalf("expected 2 pairings, got %+v", got.Pairings)
	}
	if got.Pairings[0].Basis != "Emotion" || got.Pairings[0].Poem.Content != "the night sky" {
		t.Fatalf("unexpected first pairing: %+v", got.Pairings[0])
	}
	if got.Pairings[1].Poem.Title != "Stars" || got.Pairings[1].Poem.Content != "" {
		t.Fatalf("unexpected second pairing: %+v", got.Pairings[1])
	}

	if _, err := c.Painting(ctx, 999); !errors.Is(err, ErrPaintingNotFound) {
		t.Fatalf("expected ErrPaintingNotFound, got %v", err)
	}
}

func TestCatalog_ClearAndStats(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)
	pid, _ := c.InsertPainting(ctx, model.Painting{Name: "a"})
	poem, _ := c.InsertPoem(ctx, model.Poem{Name: "1_EP"})
	_, _ = c.InsertPairing(ctx, "Emotion", pid, poem)
	_, _ = c.InsertPairing(ctx, "Emotion", pid, poem)

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Paintings != 1 || st.Poems != 1 || st.Pairings != 2 || st.ByBasis["Emotion"] != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	if err := c.Clear(ctx, "poem"); err != nil {
		t.Fatalf("Clear(poem): %v", err)
	}
	st, _ = c.Stats(ctx)
	if st.Poems != 0 || st.Pairings != 0 || st.Paintings != 1 {
		t.Fatalf("expected poems and pairings cleared, got %+v", st)
	}

	if err := c.Clear(ctx, "nope"); err == nil {
		t.Fatalf("expected error for unknown table")
	}
	if err := c.Clear(ctx, ""); err != nil {
		t.Fatalf("Clear(all): %v", err)
	}
	id, err := c.InsertPainting(ctx, model.Painting{Name: "fresh"})
	if err != nil {
		t.Fatalf("InsertPainting after clear: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected ids to restart at 1, got %d", id)
	}
}

func TestCatalog_ImportFlow(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	paintings := "ID\tCategory\tArtist\tTitle\tYear\tPainting Info URL\n" +
		"p1\tImpressionism\tMonet\tWater Lilies\t1916\thttps://example.test/p1\n" +
		"p2\tBaroque\tRembrandt\tNight Watch\tc. 1642\thttps://example.test/p2\n" +
		"p1\tImpressionism\tMonet\tDuplicate\t1916\t\n"
	res, err := c.ImportPaintings(ctx, strings.NewReader(paintings))
	if err != nil {
		t.Fatalf("ImportPaintings: %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 1 {
		t.Fatalf("unexpected painting import result: %+v", res)
	}

	contentDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(contentDir, "7_EP.txt"), []byte("water and light"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = c.ImportPoems(ctx, strings.NewReader("ID\n7\n8.0\n"), PoemImportOptions{Suffix: "EP", ContentDir: contentDir})
	if err != nil {
		t.Fatalf("ImportPoems(EP): %v", err)
	}
	if res.Inserted != 2 {
		t.Fatalf("unexpected poem import result: %+v", res)
	}
	res, err = c.ImportPoems(ctx, strings.NewReader("ID,Poet,Title\n3,Keats,Ode\n"), PoemImportOptions{Suffix: "PF"})
	if err != nil {
		t.Fatalf("ImportPoems(PF): %v", err)
	}
	if res.Inserted != 1 {
		t.Fatalf("unexpected poem import result: %+v", res)
	}

	res, err = c.ImportPairings(ctx, strings.NewReader("Art ID,Top Poem ID,Sim Score\np1,7,0.9\np2,8,0.4\nmissing,7,0.1\n"), PairingPresets["emotion"])
	if err != nil {
		t.Fatalf("ImportPairings(emotion): %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 1 || len(res.Missing) != 1 {
		t.Fatalf("unexpected emotion pairing result: %+v", res)
	}

	objects := "Painting,Best_Matching_Poem_ID,Score,Matching_Objects\n" +
		"p1.jpg,3.0,0.5,water\n" +
		"p2.jpg,3,0.0,\n" +
		"p2.jpg,,0.7,\n"
	res, err = c.ImportPairings(ctx, strings.NewReader(objects), PairingPresets["object"])
	if err != nil {
		t.Fatalf("ImportPairings(object): %v", err)
	}
	if res.Inserted != 1 || res.Skipped != 2 {
		t.Fatalf("unexpected object pairing result: %+v", res)
	}

	p1, err := c.Painting(ctx, 1)
	if err != nil {
		t.Fatalf("Painting(1): %v", err)
	}
	if p1.Year != 1916 || len(p1.Pairings) != 2 {
		t.Fatalf("unexpected p1: %+v", p1)
	}
	if p1.Pairings[0].Poem.Content != "water and light" {
		t.Fatalf("expected poem content from content dir, got %q", p1.Pairings[0].Poem.Content)
	}
	if p1.Pairings[1].Basis != "Object" || p1.Pairings[1].Poem.Author != "Keats" {
		t.Fatalf("unexpected object pairing: %+v", p1.Pairings[1])
	}
	p2, _ := c.Painting(ctx, 2)
	if p2.Year != 0 {
		t.Fatalf("expected non-numeric year to be unknown, got %d", p2.Year)
	}
}

func TestCatalog_ImportRejectsMissingColumns(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)
	if _, err := c.ImportPaintings(ctx, strings.NewReader("Name\tTitle\nx\ty\n")); err == nil {
		t.Fatalf("expected missing ID column error")
	}
	if _, err := c.ImportPairings(ctx, strings.NewReader("a,b\n"), PairingPresets["clip"]); err == nil {
		t.Fatalf("expected missing column error")
	}
	if _, err := c.ImportPairings(ctx, strings.NewReader("a,b\n"), PairingImportOptions{}); err == nil {
		t.Fatalf("expected missing basis error")
	}
	if _, err := c.ImportPoems(ctx, strings.NewReader(""), PoemImportOptions{}); err == nil {
		t.Fatalf("expected empty input error")
	}
}
