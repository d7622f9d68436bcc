package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/org/vitalguard/internal/policy"
	"github.com/org/vitalguard/pkg/models"
)

const tokenPrefix = "vgt_"

// Gateway holds the single scoped token of a session. It is not safe for
// concurrent use; the owning session serialises access.
type Gateway struct {
	token    string
	scopes   []string
	issuedAt time.Time
	now      func() time.Time
}

// NewGateway creates a Gateway with no active token.
func NewGateway() *Gateway {
	return &Gateway{now: time.Now}
}

// Issue generates a new opaque token carrying scopes, replacing any
// existing one. Returns the plaintext token.
func (g *Gateway) Issue(scopes []string) string {
	raw := make([]byte, 16)
	rand.Read(raw) //nolint:errcheck // never fails since go1.24
	g.token = tokenPrefix + hex.EncodeToString(raw)
	g.scopes = append([]string(nil), scopes...)
	g.issuedAt = g.now().UTC()
	return g.token
}

// Revoke clears the token and its scopes. Revoking twice is a no-op.
func (g *Gateway) Revoke() {
	g.token = ""
	g.scopes = nil
	g.issuedAt = time.Time{}
}

// Active reports whether a token is currently issued.
func (g *Gateway) Active() bool {
	return g.token != ""
}

// Token returns the active token, or "" when none is issued.
func (g *Gateway) Token() string {
	return g.token
}

// Scopes returns a copy of the granted scopes. Empty when no token is active.
func (g *Gateway) Scopes() []string {
	return append([]string{}, g.scopes...)
}

// Info describes the active token. ok is false when none is issued.
func (g *Gateway) Info() (info models.TokenInfo, ok bool) {
	if !g.Active() {
		return models.TokenInfo{}, false
	}
	return models.TokenInfo{Token: g.token, Scopes: g.Scopes(), IssuedAt: g.issuedAt}, true
}

// Require fails with ErrNotAuthenticated when no token is active, or with a
// missing-scope AuthorizationError when the token lacks scope.
func (g *Gateway) Require(scope string) error {
	if !g.Active() {
		return ErrNotAuthenticated
	}
	if !policy.Allows(g.scopes, scope) {
		return MissingScope(scope)
	}
	return nil
}

// Fingerprint returns a short, non-reversible identifier for a token that
// is safe to log.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:4])
}
