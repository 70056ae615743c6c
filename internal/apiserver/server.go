// Package apiserver serves the painting API (index, painting detail, images)
// over a SQLite catalog. The gallery client talks to it, and it doubles as a
// local fixture server for development.
package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pairing-gallery/internal/model"
	"pairing-gallery/internal/store"
)

const (
	DefaultLimit = 2000
	MaxLimit     = 2000
)

// Catalog is the read side of store.Catalog.
type Catalog interface {
	IndexPage(ctx context.Context, page, limit int) ([]model.Painting, int, error)
	Painting(ctx context.Context, id int) (model.Painting, error)
}

type Options struct {
	Addr string
	// ImagesDir holds <name>.jpg files. Empty disables images (image_url is null).
	ImagesDir string
	// PublicURL prefixes image urls. When empty it is derived from the request.
	PublicURL string
	Logger    *slog.Logger
	// ImageTTL is how long image lookups are cached. Zero means DefaultImageTTL.
	ImageTTL time.Duration
	// ImageCacheSize bounds the lookup cache. Zero means DefaultImageCacheSize.
	ImageCacheSize int
}

type Server struct {
	catalog Catalog
	images  *ImageResolver
	opts    Options
	log     *slog.Logger
	handler http.Handler
}

func New(catalog Catalog, opts Options) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("nil catalog")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		catalog: catalog,
		images:  NewImageResolver(opts.ImagesDir, opts.ImageTTL, opts.ImageCacheSize),
		opts:    opts,
		log:     log,
	}

	r := chi.NewRouter()
	if err := s.use(r); err != nil {
		return nil, err
	}
	r.Get("/api/index", s.handleIndex)
	r.Get("/api/painting/{id}", s.handlePainting)
	r.Get("/images/{name}", s.handleImage)
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			s.log.Error("Unable to write healthcheck", "err", err)
		}
	})
	s.handler = r
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe blocks until ctx is cancelled (then shuts down gracefully) or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.opts.Addr
	if addr == "" {
		addr = ":8000"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info("Painting API available", "addr", addr, "images", s.opts.ImagesDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Server shutdown failed", "err", err)
			return err
		}
		s.log.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}

type messageBody struct {
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Unable to encode JSON response", "err", err)
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, messageBody{Message: msg})
}

// intQuery parses an optional integer query parameter within [min, max] (max <= 0 means unbounded).
func intQuery(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if n < min {
		return 0, fmt.Errorf("%s must be >= %d", key, min)
	}
	if max > 0 && n > max {
		return 0, fmt.Errorf("%s must be <= %d", key, max)
	}
	return n, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page", 1, 1, 0)
	if err != nil {
		s.writeMessage(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	limit, err := intQuery(r, "limit", DefaultLimit, 1, MaxLimit)
	if err != nil {
		s.writeMessage(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if page-1 > math.MaxInt/limit {
		s.writeMessage(w, http.StatusUnprocessableEntity, "page is out of range")
		return
	}

	paintings, total, err := s.catalog.IndexPage(r.Context(), page, limit)
	if err != nil {
		s.log.Error("Error retrieving painting index", "page", page, "limit", limit, "err", err)
		s.writeMessage(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}
	base := s.publicURL(r)
	for i := range paintings {
		paintings[i].ImageURL = s.imageURL(base, paintings[i].Name)
	}
	if paintings == nil {
		paintings = []model.Painting{}
	}
	pg := model.NewPagination(page, limit, total)
	s.writeJSON(w, http.StatusOK, model.IndexPage{Paintings: paintings, Pagination: &pg})
}

func (s *Server) handlePainting(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeMessage(w, http.StatusUnprocessableEntity, "id must be an integer")
		return
	}
	p, err := s.catalog.Painting(r.Context(), id)
	if errors.Is(err, store.ErrPaintingNotFound) {
		s.writeMessage(w, http.StatusNotFound, "Painting not found")
		return
	}
	if err != nil {
		s.log.Error("Error retrieving painting", "id", id, "err", err)
		s.writeMessage(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, model.PaintingDetail{
		Painting: p,
		ImageURL: s.imageURL(s.publicURL(r), p.Name),
	})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	path, ok := s.images.Path(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

func (s *Server) imageURL(base, name string) string {
	if _, ok := s.images.Path(name); !ok {
		return ""
	}
	return base + "/images/" + url.PathEscape(name)
}

func (s *Server) publicURL(r *http.Request) string {
	if s.opts.PublicURL != "" {
		return strings.TrimRight(s.opts.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
