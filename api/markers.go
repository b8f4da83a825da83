package api

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/markergen/marker"
	"github.com/openclaw/markergen/output"
	"github.com/openclaw/markergen/qr"
	"github.com/openclaw/markergen/store"
)

const (
	maxTagSize   = 4096
	maxTagBorder = 32
)

type markerInfo struct {
	ID       int    `json:"id"`
	Position string `json:"position"`
	Label    string `json:"label"`
	Payload  string `json:"payload"`
	TagURL   string `json:"tag_url"`
	QRURL    string `json:"qr_url"`
}

func markerList() []markerInfo {
	ids := marker.IDs()
	out := make([]markerInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, markerInfo{
			ID:       id,
			Position: string(marker.PositionOf(id)),
			Label:    marker.Label(id),
			Payload:  qr.Payload(id),
			TagURL:   fmt.Sprintf("/markers/%d/tag.png", id),
			QRURL:    fmt.Sprintf("/markers/%d/qr.png", id),
		})
	}
	return out
}

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, markerList())
}

func markerID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Server) handleTagImage(w http.ResponseWriter, r *http.Request) {
	id, ok := markerID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	size := queryInt(r, "size", s.TagSize)
	border := queryInt(r, "border", s.TagBorder)
	if size <= 0 || size > maxTagSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("size must be between 1 and %d", maxTagSize))
		return
	}
	if border < 0 || border > maxTagBorder {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("border must be between 0 and %d", maxTagBorder))
		return
	}
	if marker.Layout(size, border).Side == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("size %d is too small for border %d", size, border))
		return
	}

	s.writePNG(w, s.Renderer.Render(id, size, border))
}

func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	id, ok := markerID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	img, err := qr.EncodeMarker(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePNG(w, img)
}

func (s *Server) writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := output.Encode(&buf, img, output.PNG); err != nil {
		s.Log.Error("encode marker image", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", output.PNG.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "manifest is disabled")
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != store.KindTag && kind != store.KindQR {
		writeError(w, http.StatusBadRequest, "kind must be tag or qr")
		return
	}

	artifacts, err := s.Store.ListArtifacts(kind, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if artifacts == nil {
		artifacts = []store.Artifact{}
	}
	writeJSON(w, http.StatusOK, artifacts)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := sheetTemplate.Execute(w, markerList()); err != nil {
		s.Log.Error("render sheet", "error", err)
	}
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Board markers</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 24px; }
  .grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 24px; }
  figure { margin: 0; text-align: center; page-break-inside: avoid; }
  img { width: 100%; image-rendering: pixelated; }
  figcaption { font-size: 14px; margin-top: 8px; }
  @media print { h1 { display: none; } }
</style>
</head>
<body>
<h1>Board markers</h1>
<div class="grid">
{{- range .}}
  <figure>
    <img src="{{.TagURL}}" alt="tag {{.ID}}">
    <figcaption>#{{.ID}} {{.Label}}</figcaption>
  </figure>
{{- end}}
</div>
<h1>QR markers</h1>
<div class="grid">
{{- range .}}
  <figure>
    <img src="{{.QRURL}}" alt="{{.Payload}}">
    <figcaption>{{.Payload}} {{.Label}}</figcaption>
  </figure>
{{- end}}
</div>
</body>
</html>
`))
