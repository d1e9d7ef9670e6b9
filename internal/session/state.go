package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/StudyCore/studycore/internal/models"
)

type Status int

const (
	Unauthenticated Status = iota
	Resolving
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot. Principal and Profile are either both set
// (Authenticated) or both nil. ExpiresAt is the end of the session's validity
// window; zero means the auth service did not report one.
type State struct {
	Status    Status
	Principal *models.Principal
	Profile   *models.Profile
	ExpiresAt time.Time
}

var unauthenticated = &State{Status: Unauthenticated}

func authenticatedState(sess *models.Session, prof models.Profile) *State {
	p := sess.Principal
	return &State{Status: Authenticated, Principal: &p, Profile: &prof, ExpiresAt: sess.ExpiresAt}
}

func (s State) Authenticated() bool { return s.Status == Authenticated }

// Expired reports whether an authenticated state has outlived its session.
func (s State) Expired(now time.Time) bool {
	return s.Authenticated() && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// publisher holds the current state behind one pointer so readers never see
// a principal from one resolution paired with a profile from another.
type publisher struct {
	current atomic.Pointer[State]

	mu       sync.Mutex
	watchers map[int]func(State)
	nextID   int
}

func newPublisher() *publisher {
	p := &publisher{watchers: make(map[int]func(State))}
	p.current.Store(unauthenticated)
	return p
}

func (p *publisher) load() State { return *p.current.Load() }

func (p *publisher) store(s *State) {
	p.current.Store(s)

	p.mu.Lock()
	fns := make([]func(State), 0, len(p.watchers))
	for _, fn := range p.watchers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(*s)
	}
}

func (p *publisher) watch(fn func(State)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}
