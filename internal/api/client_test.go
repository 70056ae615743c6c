package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pairing-gallery/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/index", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "20" {
			http.Error(w, `{"message":"unexpected query"}`, http.StatusBadRequest)
			return
		}
		pg := model.NewPagination(2, 20, 45)
		_ = json.NewEncoder(w).Encode(model.IndexPage{
			Paintings:  []model.Painting{{ID: 21, Title: "Starry Night", Author: "van Gogh", Year: 1889}},
			Pagination: &pg,
		})
	})
	mux.HandleFunc("GET /api/painting/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "7":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"painting": map[string]any{
					"id": 7, "title": "The Scream", "author": "Munch", "year": 1893, "category": "Expressionism",
					"pairings": []any{map[string]any{"id": 1, "basis": "Emotion", "poem": map[string]any{"id": 3, "name": "3_EP", "content": "a cry"}}},
				},
				"image_url": "http://img/7.jpg",
			})
		case "8":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "9":
			_, _ = w.Write([]byte("{not json"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Painting not found"}`))
		}
	})
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchIndex(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", time.Second)

	page, err := c.FetchIndex(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("FetchIndex: %v", err)
	}
	if len(page.Paintings) != 1 || page.Paintings[0].Title != "Starry Night" {
		t.Fatalf("unexpected paintings: %+v", page.Paintings)
	}
	if page.Pagination == nil || page.Pagination.TotalPages != 3 || !page.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
}

func TestClient_FetchIndexRejectsBadArgs(t *testing.T) {
	c := NewClient("http://example.invalid", time.Second)
	if _, err := c.FetchIndex(context.Background(), 0, 20); err == nil {
		t.Fatalf("expected error for page 0")
	}
	if _, err := c.FetchIndex(context.Background(), 1, 0); err == nil {
		t.Fatalf("expected error for limit 0")
	}
}

func TestClient_FetchPaintingDetail(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	d, err := c.FetchPaintingDetail(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchPaintingDetail: %v", err)
	}
	if d.Painting.Title != "The Scream" || d.ImageURL != "http://img/7.jpg" {
		t.Fatalf("unexpected detail: %+v", d)
	}
	if len(d.Painting.Pairings) != 1 || d.Painting.Pairings[0].Poem.Content != "a cry" {
		t.Fatalf("unexpected pairings: %+v", d.Painting.Pairings)
	}
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.FetchPaintingDetail(ctx, 404)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "Painting not found" {
		t.Fatalf("expected StatusError with server message, got %#v", err)
	}

	_, err = c.FetchPaintingDetail(ctx, 8)
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 StatusError, got %v", err)
	}
	if IsNotFound(err) || IsTransport(err) {
		t.Fatalf("500 must be neither not-found nor transport: %v", err)
	}

	_, err = c.FetchPaintingDetail(ctx, 9)
	if !IsTransport(err) {
		t.Fatalf("expected transport error for bad json, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base, time.Second)
	if _, err := c.FetchIndex(context.Background(), 1, 20); !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if err := c.Ping(context.Background()); !IsTransport(err) {
		t.Fatalf("expected transport error from ping, got %v", err)
	}
}

func TestClient_NoBaseURL(t *testing.T) {
	c := NewClient("", time.Second)
	if _, err := c.FetchPaintingDetail(context.Background(), 1); !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClient_Ping(t *testing.T) {
	srv := newTestServer(t)
	if err := NewClient(srv.URL, time.Second).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
