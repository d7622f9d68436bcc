package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ConsentCaptureHandler handles POST /v1/patients/{id}/consent
func (s *Server) ConsentCaptureHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Purpose string `json:"purpose"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := sessionFromCtx(r.Context())
	rec, err := s.monitor.CaptureConsent(r.Context(), sess, chi.URLParam(r, "id"), req.Purpose)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

// ConsentReadHandler handles GET /v1/patients/{id}/consent
func (s *Server) ConsentReadHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := sessionFromCtx(r.Context())
	rec, ok := sess.Consent.Get(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"patient_id": id, "consented": false}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"patient_id": rec.PatientID,
		"consented":  true,
		"purpose":    rec.Purpose,
		"timestamp":  rec.Timestamp,
	}})
}

// ConsentListHandler handles GET /v1/consent
func (s *Server) ConsentListHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"data": sess.Consent.List()})
}
