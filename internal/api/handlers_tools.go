package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/org/vitalguard/internal/tools"
	"github.com/org/vitalguard/pkg/models"
)

// ToolListHandler handles GET /v1/tools
func (s *Server) ToolListHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools.Descriptors()})
}

// ToolCallHandler handles POST /v1/tools/{name}. The response body is the
// tool result whether or not the call succeeded.
func (s *Server) ToolCallHandler(w http.ResponseWriter, r *http.Request) {
	var call tools.Call
	if err := decodeJSON(r, &call); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	call.Tool = chi.URLParam(r, "name")

	sess := sessionFromCtx(r.Context())
	res, err := s.tools.Execute(r.Context(), sess, call)
	recordToolCall(call.Tool, res)
	if err != nil {
		writeJSON(w, statusFor(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func recordToolCall(tool string, res models.ToolResult) {
	result := "ok"
	if !res.OK {
		result = string(res.Kind)
	}
	// Unknown names come from the caller; keep them out of the label set.
	if res.Kind == models.KindUnknownTool {
		tool = "unknown"
	}
	toolCallsTotal.WithLabelValues(tool, result).Inc()
}
