package reportserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"design-checker/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

// IndexSource reads the run index from disk. WriteIndex is only called once,
// when the server starts.
type IndexSource interface {
	Scan(ctx context.Context) ([]entity.IndexEntry, error)
	WriteIndex(ctx context.Context) ([]entity.IndexEntry, error)
}

// Server serves the run index and every run's artifacts read-only.
type Server struct {
	root  string
	index IndexSource
	srv   *http.Server
}

func New(root string, index IndexSource) *Server {
	return &Server{root: root, index: index}
}

func (s *Server) Handler() http.Handler {
	logger := httplog.NewLogger("design-checker", httplog.Options{
		JSON:    true,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/index", s.handleIndex)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/runs/index.html", http.StatusFound)
	})
	r.Handle("/runs/*", http.StripPrefix("/runs/", http.FileServer(http.Dir(s.root))))
	return r
}

func (s *Server) ListenAndServe(addr string) error {
	if _, err := s.index.WriteIndex(context.Background()); err != nil {
		return err
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.index.Scan(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []entity.IndexEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
