// Package api serves markers over HTTP: rendered on demand, as a
// printable sheet, and as static files from the assets directory.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/markergen/marker"
	"github.com/openclaw/markergen/store"
)

// ArtifactLister lists manifest entries. *store.ManifestStore implements it.
type ArtifactLister interface {
	ListArtifacts(kind string, limit int) ([]store.Artifact, error)
}

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Renderer  *marker.Renderer
	Store     ArtifactLister // nil when the manifest is disabled
	Log       *slog.Logger
	Version   string
	StartTime time.Time
	AssetsDir string
	TagSize   int
	TagBorder int
}

// NewRouter returns a fully configured chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(requestLogger(s.Log))

	r.Get("/status", s.handleStatus)

	// Markers rendered on demand
	r.Get("/markers", s.handleListMarkers)
	r.Get("/markers/{id}/tag.png", s.handleTagImage)
	r.Get("/markers/{id}/qr.png", s.handleQRImage)
	r.Get("/sheet", s.handleSheet)

	// Manifest
	r.Get("/artifacts", s.handleArtifacts)

	if s.AssetsDir != "" {
		fs := http.StripPrefix("/assets/", http.FileServer(http.Dir(s.AssetsDir)))
		r.Handle("/assets/*", fs)
	}

	return r
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

// --- middleware --------------------------------------------------------------

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
