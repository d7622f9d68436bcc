package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/org/vitalguard/internal/rules"
	"github.com/org/vitalguard/internal/tools"
)

// PatientListHandler handles GET /v1/patients
func (s *Server) PatientListHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := s.monitor.Patients(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	body := map[string]any{"patients": ids}
	if msg := s.dataError(); msg != "" {
		body["data_error"] = msg
	}
	writeJSON(w, http.StatusOK, body)
}

// PatientViewHandler handles GET /v1/patients/{id}
func (s *Server) PatientViewHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	view, err := s.monitor.View(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	countAlerts(view.Critical)
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":       view.Patient.ID,
			"name":     view.Patient.DisplayName(),
			"vitals":   view.Patient.Vitals,
			"history":  view.Patient.History,
			"critical": rules.Messages(view.Critical),
		},
	})
}

// PatientRefreshHandler handles POST /v1/patients/{id}/refresh
func (s *Server) PatientRefreshHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.monitor.Refresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": p.ID, "vitals": p.Vitals}})
}

// PatientCheckHandler handles POST /v1/patients/{id}/check
func (s *Server) PatientCheckHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	res, err := s.monitor.CheckThresholds(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	countAlerts(res.Alerts)
	writeJSON(w, http.StatusOK, map[string]any{"data": res})
}

// PatientAlertHandler handles POST /v1/patients/{id}/alert
func (s *Server) PatientAlertHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := sessionFromCtx(r.Context())
	res, err := s.monitor.AlertDoctor(r.Context(), sess, chi.URLParam(r, "id"), req.Message)
	recordToolCall(string(tools.AlertDoctor), res)
	if err != nil {
		writeJSON(w, statusFor(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func countAlerts(alerts []rules.Alert) {
	for _, a := range alerts {
		alertsTotal.WithLabelValues(string(a.Level)).Inc()
	}
}
