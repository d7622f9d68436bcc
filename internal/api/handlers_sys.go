package api

import (
	"net/http"
	"time"
)

var startedAt = time.Now().UTC()

// HealthHandler handles GET /v1/sys/health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	patients := 0
	ids, err := s.store.ListPatientIDs(r.Context())
	if err != nil {
		code = http.StatusServiceUnavailable
	} else {
		patients = len(ids)
	}
	body := map[string]any{
		"status":   http.StatusText(code),
		"patients": patients,
		"sessions": s.sessions.Count(),
		"uptime":   time.Since(startedAt).Round(time.Second).String(),
		"version":  "1.0.0",
	}
	if msg := s.dataError(); msg != "" {
		body["data_error"] = msg
	}
	writeJSON(w, code, body)
}

// SessionHandler handles GET /v1/sys/session
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":           sess.ID,
			"created_at":   sess.CreatedAt,
			"token_active": sess.Gateway.Active(),
			"audit_events": sess.Audit.Len(),
		},
	})
}

// SessionEndHandler handles DELETE /v1/sys/session
func (s *Server) SessionEndHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	s.sessions.Delete(sess.ID)
	activeSessions.Set(float64(s.sessions.Count()))
	w.WriteHeader(http.StatusNoContent)
}

// NotificationsHandler handles GET /v1/notifications
func (s *Server) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.notifier.Sent()})
}
