package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pairing-gallery/internal/model"
	"pairing-gallery/internal/store"
)

func newTestServer(t *testing.T, paintings int) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()
	cat, err := store.OpenCatalog(filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	t.Cleanup(func() { _ = cat.Close() })

	imagesDir := t.TempDir()
	for i := 1; i <= paintings; i++ {
		name := fmt.Sprintf("p%d", i)
		id, err := cat.InsertPainting(ctx, model.Painting{Name: name, Title: "T " + name, Author: "A", Year: 1900 + i})
		if err != nil {
			t.Fatalf("InsertPainting: %v", err)
		}
		if id == 1 {
			poem, _ := cat.InsertPoem(ctx, model.Poem{Name: "1_EP", Content: "roses"})
			_, _ = cat.InsertPairing(ctx, "Emotion", id, poem)
			if err := os.WriteFile(filepath.Join(imagesDir, name+".jpg"), []byte("jpegdata"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}

	srv, err := New(cat, Options{ImagesDir: imagesDir, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, imagesDir
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestIndex_PaginatesAndResolvesImages(t *testing.T) {
	ts, _ := newTestServer(t, 5)

	var page model.IndexPage
	resp := getJSON(t, ts.URL+"/api/index?page=1&limit=2", &page)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(page.Paintings) != 2 || page.Paintings[0].ID != 1 {
		t.Fatalf("unexpected paintings: %+v", page.Paintings)
	}
	want := model.Pagination{Page: 1, Limit: 2, Total: 5, TotalPages: 3, HasNext: true, HasPrev: false}
	if page.Pagination == nil || *page.Pagination != want {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
	if page.Paintings[0].ImageURL != ts.URL+"/images/p1" {
		t.Fatalf("unexpected image url %q", page.Paintings[0].ImageURL)
	}
	if page.Paintings[1].ImageURL != "" {
		t.Fatalf("expected no image for second painting, got %q", page.Paintings[1].ImageURL)
	}

	var last model.IndexPage
	getJSON(t, ts.URL+"/api/index?page=3&limit=2", &last)
	if len(last.Paintings) != 1 || last.Pagination.HasNext || !last.Pagination.HasPrev {
		t.Fatalf("unexpected last page: %+v %+v", last.Paintings, last.Pagination)
	}

	var beyond model.IndexPage
	getJSON(t, ts.URL+"/api/index?page=9&limit=2", &beyond)
	if beyond.Paintings == nil || len(beyond.Paintings) != 0 {
		t.Fatalf("expected empty (non-null) paintings past the end, got %+v", beyond.Paintings)
	}
}

func TestIndex_DefaultsAndValidation(t *testing.T) {
	ts, _ := newTestServer(t, 3)

	var page model.IndexPage
	getJSON(t, ts.URL+"/api/index", &page)
	if page.Pagination.Page != 1 || page.Pagination.Limit != DefaultLimit || len(page.Paintings) != 3 {
		t.Fatalf("unexpected defaults: %+v", page.Pagination)
	}

	for _, q := range []string{"page=0", "page=x", "limit=0", "limit=2001", "limit=-3"} {
		var body messageBody
		resp := getJSON(t, ts.URL+"/api/index?"+q, &body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", q, resp.StatusCode)
		}
		if body.Message == "" {
			t.Errorf("%s: expected message", q)
		}
	}
}

func TestPainting_DetailAndNotFound(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	var detail model.PaintingDetail
	resp := getJSON(t, ts.URL+"/api/painting/1", &detail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if detail.Painting.ID != 1 || len(detail.Painting.Pairings) != 1 {
		t.Fatalf("unexpected painting: %+v", detail.Painting)
	}
	if detail.Painting.Pairings[0].Poem.Content != "roses" {
		t.Fatalf("expected poem content, got %+v", detail.Painting.Pairings[0].Poem)
	}
	if detail.ImageURL != ts.URL+"/images/p1" {
		t.Fatalf("unexpected image url %q", detail.ImageURL)
	}

	var body messageBody
	resp = getJSON(t, ts.URL+"/api/painting/42", &body)
	if resp.StatusCode != http.StatusNotFound || body.Message != "Painting not found" {
		t.Fatalf("expected 404 Painting not found, got %d %+v", resp.StatusCode, body)
	}

	resp = getJSON(t, ts.URL+"/api/painting/abc", &body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestImagesAndHealthcheck(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/images/p1")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != "jpegdata" {
		t.Fatalf("unexpected image response %d %q", resp.StatusCode, b)
	}

	resp, err = http.Get(ts.URL + "/images/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing image, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(b) != "OK" {
		t.Fatalf("unexpected healthcheck body %q", b)
	}
}

func TestMiddleware_CORSAndRequestID(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/index", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected successful preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header on preflight")
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/index?limit=1", nil)
	req.Header.Set("Origin", "http://example.test")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header on GET")
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/healthcheck", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	resp, err = http.Get(ts.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(resp.Header.Get("X-Request-ID")) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", resp.Header.Get("X-Request-ID"))
	}
}

func TestImageResolver_CachesForTTL(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ir := NewImageResolver(dir, time.Hour, 0)
	ir.now = func() time.Time { return now }

	if _, ok := ir.Path("late"); ok {
		t.Fatalf("expected miss before file exists")
	}
	if err := os.WriteFile(filepath.Join(dir, "late.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := ir.Path("late"); ok {
		t.Fatalf("expected cached miss within ttl")
	}
	now = now.Add(61 * time.Minute)
	if p, ok := ir.Path("late"); !ok || filepath.Base(p) != "late.jpg" {
		t.Fatalf("expected hit after ttl, got %q %v", p, ok)
	}

	for _, bad := range []string{"", "..", "../etc/passwd", `a\b`, "x/y"} {
		if _, ok := ir.Path(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
	if _, ok := NewImageResolver("", 0, 0).Path("late"); ok {
		t.Fatalf("expected empty dir to disable images")
	}
}

func TestImageResolver_CacheIsBounded(t *testing.T) {
	ir := NewImageResolver(t.TempDir(), time.Hour, 8)
	for i := 0; i < 1000; i++ {
		if _, ok := ir.Path(fmt.Sprintf("missing-%d", i)); ok {
			t.Fatalf("expected miss")
		}
	}
	if n := ir.cache.Len(); n > 8 {
		t.Fatalf("expected at most 8 cached lookups, got %d", n)
	}
}

func TestIndex_RejectsOverflowingPage(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	var body map[string]string
	resp := getJSON(t, fmt.Sprintf("%s/api/index?page=%d&limit=2000", ts.URL, math.MaxInt), &body)
	if resp.StatusCode != http.StatusUnprocessableEntity || body["message"] != "page is out of range" {
		t.Fatalf("expected 422 out of range, got %d %v", resp.StatusCode, body)
	}
}

type panickingCatalog struct{}

func (panickingCatalog) IndexPage(context.Context, int, int) ([]model.Painting, int, error) {
	panic("catalog exploded")
}

func (panickingCatalog) Painting(context.Context, int) (model.Painting, error) {
	return model.Painting{}, store.ErrPaintingNotFound
}

func TestServer_RecoversFromHandlerPanic(t *testing.T) {
	srv, err := New(panickingCatalog{}, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/index")
	if err != nil {
		t.Fatalf("expected a response after panic, got %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected server to keep serving, got %d", resp.StatusCode)
	}
}
