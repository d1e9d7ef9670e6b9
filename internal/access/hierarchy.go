package access

import (
	"errors"
	"fmt"

	"github.com/StudyCore/studycore/internal/models"
)

var (
	ErrEmptyHierarchy = errors.New("role hierarchy is empty")
	ErrDuplicateRole  = errors.New("role listed twice in hierarchy")
	ErrBlankRole      = errors.New("blank role in hierarchy")
)

// Hierarchy is a total order over the known roles, lowest privilege first.
// Known roles rank from 1 upward; anything else ranks 0.
type Hierarchy struct {
	order []string
	ranks map[string]int
}

// DefaultHierarchy ranks Admin above Creator. The Creator panel is still
// gated by membership, so Admin does not reach it through rank.
var DefaultHierarchy = MustHierarchy(models.RoleStudent, models.RoleTeacher, models.RoleCreator, models.RoleAdmin)

func NewHierarchy(order ...string) (Hierarchy, error) {
	if len(order) == 0 {
		return Hierarchy{}, ErrEmptyHierarchy
	}
	h := Hierarchy{
		order: make([]string, 0, len(order)),
		ranks: make(map[string]int, len(order)),
	}
	for i, role := range order {
		key := Normalize(role)
		if key == "" {
			return Hierarchy{}, ErrBlankRole
		}
		if _, dup := h.ranks[key]; dup {
			return Hierarchy{}, fmt.Errorf("%w: %q", ErrDuplicateRole, role)
		}
		h.ranks[key] = i + 1
		h.order = append(h.order, role)
	}
	return h, nil
}

func MustHierarchy(order ...string) Hierarchy {
	h, err := NewHierarchy(order...)
	if err != nil {
		panic(err)
	}
	return h
}

// Rank returns the position of role in the order, or 0 when role is unknown.
func (h Hierarchy) Rank(role string) int {
	return h.ranks[Normalize(role)]
}

// Known reports whether role names one of the ordered roles.
func (h Hierarchy) Known(role string) bool {
	return h.Rank(role) > 0
}

// Canonical returns the spelling of role as declared in the hierarchy.
func (h Hierarchy) Canonical(role string) (string, bool) {
	r := h.Rank(role)
	if r == 0 {
		return "", false
	}
	return h.order[r-1], true
}

// Roles lists the declared roles, lowest first.
func (h Hierarchy) Roles() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// AtLeast reports whether p is at least as privileged as required.
func (h Hierarchy) AtLeast(p *models.Profile, required string) bool {
	if p == nil {
		return false
	}
	return h.Rank(p.Role) >= h.Rank(required)
}

func Rank(role string) int { return DefaultHierarchy.Rank(role) }

func AtLeast(p *models.Profile, required string) bool {
	return DefaultHierarchy.AtLeast(p, required)
}
