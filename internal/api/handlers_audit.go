package api

import (
	"net/http"

	"github.com/org/vitalguard/internal/audit"
	"github.com/rs/zerolog/log"
)

// AuditListHandler handles GET /v1/audit
func (s *Server) AuditListHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"data": sess.Audit.Events()})
}

// AuditExportHandler handles GET /v1/audit/export
func (s *Server) AuditExportHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	body, err := audit.ExportBytes(sess.Audit.Events())
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_logs.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Warn().Err(err).Msg("writing audit export")
	}
}
