package httpadapter

import (
	"net/http"

	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/viewer"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
)

// session resolves the {sid} path parameter, writing a 404 when the session
// does not exist or has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sess.View())
}

// handleSwitchMode is the map toggle: it remounts the session in the requested mode.
func (s *Server) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	mode, err := domain.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	sess.SwitchMode(r.Context(), mode)
	sharedobs.WriteJSON(w, http.StatusOK, sess.View())
}

// handleOpenPopup records an opened popup and returns its marker as currently
// rendered. With ?wait=true it first waits for the detail fetch to resolve.
func (s *Server) handleOpenPopup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	done := sess.OpenPopup(id)

	if r.URL.Query().Get("wait") == "true" {
		select {
		case <-done:
		case <-r.Context().Done():
			return
		}
	}

	m, ok := sess.Marker(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown marker")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, m)
}

func (s *Server) handleClosePopup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ClosePopup(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
