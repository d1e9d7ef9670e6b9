// Package access decides whether a profile may reach a route or perform an
// action. Every role comparison in the service goes through this package.
package access

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/StudyCore/studycore/internal/models"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Normalize trims surrounding whitespace and case-folds a role name.
func Normalize(role string) string {
	// A Caser carries state; one per call keeps Normalize safe for concurrent use.
	return cases.Fold().String(strings.TrimSpace(role))
}

// Authorize is membership based: a profile passes only if its role is one of
// allowed. A nil profile means nobody is signed in yet. An empty allow-list
// denies everyone. A blank role never matches, not even a blank entry.
func Authorize(p *models.Profile, allowed []string) Decision {
	if p == nil {
		return RedirectLogin
	}
	role := Normalize(p.Role)
	if role == "" {
		return RedirectHome
	}
	for _, r := range allowed {
		if Normalize(r) == role {
			return Allow
		}
	}
	return RedirectHome
}
