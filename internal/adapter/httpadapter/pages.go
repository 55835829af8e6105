package httpadapter

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/viewer"
	"github.com/go-chi/chi/v5"
)

// sessionCookie carries the viewer session id between page loads.
const sessionCookie = "geosight_session"

const (
	tileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	tileAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a>`
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	welcomeTmpl = template.Must(template.ParseFS(templateFS, "templates/welcome.html"))
	mapTmpl     = template.Must(template.ParseFS(templateFS, "templates/map.html"))
)

type mapSettings struct {
	CenterLat   float64 `json:"centerLat"`
	CenterLon   float64 `json:"centerLon"`
	Zoom        int     `json:"zoom"`
	MinZoom     int     `json:"minZoom"`
	MaxZoom     int     `json:"maxZoom"`
	TileURL     string  `json:"tileURL"`
	Attribution string  `json:"attribution"`
}

// mapBoot is the state the map page starts from.
type mapBoot struct {
	SessionID string      `json:"sessionId"`
	View      viewer.View `json:"view"`
	Map       mapSettings `json:"map"`
}

type mapPage struct {
	Mode  domain.Mode
	Other domain.Mode
	Boot  template.JS
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.render(w, welcomeTmpl, map[string]string{"EnterURL": "/map/" + s.defaultMode().String()})
}

func (s *Server) handleDefaultMap(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/map/"+s.defaultMode().String(), http.StatusFound)
}

// handleLegacyEarthquakes keeps the old earthquake map URL working.
func (s *Server) handleLegacyEarthquakes(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/map/"+domain.ModeEarthquakes.String(), http.StatusMovedPermanently)
}

// handleMap mounts the requested mode in the caller's session and renders the map.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sess := s.sessionFromCookie(r)
	if sess == nil {
		sess = s.sessions.Create()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	sess.SwitchMode(r.Context(), mode)

	boot, err := json.Marshal(mapBoot{
		SessionID: sess.ID(),
		View:      sess.View(),
		Map: mapSettings{
			CenterLat:   s.cfg.MapCenterLat,
			CenterLon:   s.cfg.MapCenterLon,
			Zoom:        s.cfg.MapZoom,
			MinZoom:     s.cfg.MapMinZoom,
			MaxZoom:     s.cfg.MapMaxZoom,
			TileURL:     tileURL,
			Attribution: tileAttribution,
		},
	})
	if err != nil {
		s.logger.Error("failed to encode map state", "session_id", sess.ID(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.render(w, mapTmpl, mapPage{Mode: mode, Other: mode.Other(), Boot: template.JS(boot)}) //nolint:gosec // JSON from json.Marshal
}

func (s *Server) sessionFromCookie(r *http.Request) *viewer.Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	sess, ok := s.sessions.Get(c.Value)
	if !ok {
		return nil
	}
	return sess
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", "template", tmpl.Name(), "error", err)
	}
}
