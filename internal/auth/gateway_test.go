package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/org/vitalguard/pkg/models"
)

func TestIssueAndRequire(t *testing.T) {
	g := NewGateway()
	tok := g.Issue([]string{models.ScopeVitalsRead})
	if !strings.HasPrefix(tok, tokenPrefix) || len(tok) != len(tokenPrefix)+32 {
		t.Errorf("unexpected token format %q", tok)
	}

	if err := g.Require(models.ScopeVitalsRead); err != nil {
		t.Errorf("expected vitals:read to be allowed, got %v", err)
	}

	err := g.Require(models.ScopeAlertsWrite)
	if err == nil {
		t.Fatal("expected alerts:write to be denied")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if !errors.Is(err, MissingScope("")) {
		t.Errorf("expected missing-scope variant, got %v", err)
	}
	if errors.Is(err, ErrNotAuthenticated) {
		t.Error("missing scope must not match ErrNotAuthenticated")
	}
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) || authErr.Scope != models.ScopeAlertsWrite {
		t.Errorf("expected error naming alerts:write, got %v", err)
	}
}

func TestRevokeThenRequire(t *testing.T) {
	g := NewGateway()
	g.Issue([]string{models.ScopeVitalsRead, models.ScopeAlertsWrite})
	g.Revoke()
	g.Revoke()

	if g.Active() || g.Token() != "" || len(g.Scopes()) != 0 {
		t.Error("expected gateway to be cleared after revoke")
	}
	for _, s := range []string{models.ScopeVitalsRead, models.ScopeLogsRead} {
		err := g.Require(s)
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("scope %q: expected ErrNotAuthenticated, got %v", s, err)
		}
		if errors.Is(err, MissingScope("")) {
			t.Errorf("scope %q: must not report missing scope", s)
		}
	}
}

func TestIssueReplacesToken(t *testing.T) {
	g := NewGateway()
	first := g.Issue([]string{models.ScopeAlertsWrite})
	second := g.Issue([]string{models.ScopeVitalsRead})
	if first == second {
		t.Error("reissue should produce a new token")
	}
	if err := g.Require(models.ScopeAlertsWrite); err == nil {
		t.Error("scopes from the replaced token must not survive")
	}
}

func TestScopesAreCopied(t *testing.T) {
	g := NewGateway()
	in := []string{models.ScopeVitalsRead}
	g.Issue(in)
	in[0] = models.ScopeAlertsWrite
	g.Scopes()[0] = models.ScopeAlertsWrite
	if err := g.Require(models.ScopeAlertsWrite); err == nil {
		t.Error("caller mutation leaked into gateway scopes")
	}
}

func TestInfo(t *testing.T) {
	g := NewGateway()
	if _, ok := g.Info(); ok {
		t.Error("expected no info without a token")
	}
	tok := g.Issue(nil)
	info, ok := g.Info()
	if !ok || info.Token != tok || info.IssuedAt.IsZero() {
		t.Errorf("unexpected info %+v", info)
	}
	if len(info.Scopes) != 0 {
		t.Errorf("expected empty scopes, got %v", info.Scopes)
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("") != "" {
		t.Error("empty token should have empty fingerprint")
	}
	fp := Fingerprint("vgt_abc")
	if len(fp) != 8 || fp != Fingerprint("vgt_abc") {
		t.Errorf("unexpected fingerprint %q", fp)
	}
}
