package api

import (
	"net/http"
	"time"

	"github.com/openclaw/markergen/marker"
)

type statusResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Family   string `json:"family"`
	Markers  int    `json:"markers"`
	Manifest bool   `json:"manifest"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:   "ok",
		Uptime:   time.Since(s.StartTime).Truncate(time.Second).String(),
		Version:  s.Version,
		Family:   s.Renderer.Family(),
		Markers:  marker.Count,
		Manifest: s.Store != nil,
	})
}
