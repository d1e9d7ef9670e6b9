package access

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/StudyCore/studycore/internal/models"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// RouteRule gates one navigation target. Roles, when set, is an exact
// allow-list; Authenticated alone admits any signed-in profile.
type RouteRule struct {
	Authenticated bool     `yaml:"authenticated"`
	Roles         []string `yaml:"roles"`
}

// Policy is the deployment's navigation table plus its role order.
type Policy struct {
	HierarchyOrder []string             `yaml:"hierarchy"`
	LoginPath      string               `yaml:"login_path"`
	HomePath       string               `yaml:"home_path"`
	Routes         map[string]RouteRule `yaml:"routes"`

	hierarchy Hierarchy
}

// LoadPolicy reads a policy file, or the embedded default when file is empty.
func LoadPolicy(file string) (*Policy, error) {
	if file == "" {
		return ParsePolicy(defaultPolicy)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	return ParsePolicy(raw)
}

func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(err)
	}
	return p
}

func ParsePolicy(raw []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) init() error {
	h, err := NewHierarchy(p.HierarchyOrder...)
	if err != nil {
		return fmt.Errorf("policy hierarchy: %w", err)
	}
	p.hierarchy = h

	if p.LoginPath == "" {
		p.LoginPath = "/login"
	}
	if p.HomePath == "" {
		p.HomePath = "/menu"
	}

	routes := make(map[string]RouteRule, len(p.Routes))
	for target, rule := range p.Routes {
		for _, r := range rule.Roles {
			if !h.Known(r) {
				return fmt.Errorf("route %s: unknown role %q", target, r)
			}
		}
		routes[cleanTarget(target)] = rule
	}
	p.Routes = routes
	return nil
}

func (p *Policy) Hierarchy() Hierarchy { return p.hierarchy }

// Navigate decides whether profile may open target. Unlisted targets are public.
func (p *Policy) Navigate(profile *models.Profile, target string) Decision {
	rule, ok := p.Routes[cleanTarget(target)]
	if !ok {
		return Allow
	}
	if len(rule.Roles) > 0 {
		return Authorize(profile, rule.Roles)
	}
	if rule.Authenticated && profile == nil {
		return RedirectLogin
	}
	return Allow
}

// Location maps a decision to where the client should be sent.
func (p *Policy) Location(d Decision) string {
	switch d {
	case RedirectLogin:
		return p.LoginPath
	case RedirectHome:
		return p.HomePath
	default:
		return ""
	}
}

func cleanTarget(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return path.Clean(target)
}
