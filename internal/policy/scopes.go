package policy

import (
	"fmt"

	"github.com/org/vitalguard/pkg/models"
)

// Scope is a named capability a token can carry.
type Scope struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog lists every scope a token may be issued with, in display order.
var Catalog = []Scope{
	{Name: models.ScopeVitalsRead, Description: "Read patient vitals and run threshold checks"},
	{Name: models.ScopeAlertsWrite, Description: "Send alerts to the attending doctor"},
	{Name: models.ScopeConsentManage, Description: "Capture patient consent"},
	{Name: models.ScopeLogsRead, Description: "Read the audit log"},
}

// DefaultScopes is what an operator gets when no scopes are requested.
var DefaultScopes = []string{models.ScopeVitalsRead, models.ScopeAlertsWrite, models.ScopeConsentManage}

// Known reports whether scope is in the catalog.
func Known(scope string) bool {
	for _, s := range Catalog {
		if s.Name == scope {
			return true
		}
	}
	return false
}

// Validate rejects scopes outside the catalog and returns the list with
// duplicates removed, preserving the requested order.
func Validate(scopes []string) ([]string, error) {
	seen := make(map[string]bool, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if !Known(s) {
			return nil, fmt.Errorf("unknown scope %q", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// Allows returns true if required is among the granted scopes.
func Allows(granted []string, required string) bool {
	for _, s := range granted {
		if s == required {
			return true
		}
	}
	return false
}
