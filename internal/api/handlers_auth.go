package api

import (
	"net/http"

	"github.com/org/vitalguard/internal/policy"
	"github.com/rs/zerolog/log"
)

// TokenIssueHandler handles POST /v1/auth/token. Any existing token in the
// session is replaced.
func (s *Server) TokenIssueHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scopes []string `json:"scopes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scopes == nil {
		req.Scopes = policy.DefaultScopes
	}
	scopes, err := policy.Validate(req.Scopes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := sessionFromCtx(r.Context())
	token := sess.Gateway.Issue(scopes)
	log.Info().Str("session", sess.ID).Str("token", tokenFingerprint(sess)).Strs("scopes", scopes).Msg("token issued")

	writeJSON(w, http.StatusOK, map[string]any{
		"auth": map[string]any{
			"client_token": token,
			"scopes":       sess.Gateway.Scopes(),
		},
	})
}

// TokenRevokeHandler handles DELETE /v1/auth/token
func (s *Server) TokenRevokeHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	if fp := tokenFingerprint(sess); fp != "" {
		log.Info().Str("session", sess.ID).Str("token", fp).Msg("token revoked")
	}
	sess.Gateway.Revoke()
	w.WriteHeader(http.StatusNoContent)
}

// TokenLookupHandler handles GET /v1/auth/token
func (s *Server) TokenLookupHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	info, ok := sess.Gateway.Info()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"active": false}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"active":      true,
			"fingerprint": tokenFingerprint(sess),
			"scopes":      info.Scopes,
			"issued_at":   info.IssuedAt,
		},
	})
}

// ScopeListHandler handles GET /v1/auth/scopes
func (s *Server) ScopeListHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"scopes": policy.Catalog})
}
