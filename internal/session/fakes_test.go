package session_test

import (
	"context"
	"errors"
	"sync"

	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

// fakeAuth is an in-memory AuthService whose session and change stream are
// driven by the test.
type fakeAuth struct {
	mu      sync.Mutex
	sess    *models.Session
	err     error
	calls   int
	subs    map[int]func(*models.Session)
	nextSub int
}

func newFakeAuth(sess *models.Session) *fakeAuth {
	return &fakeAuth{sess: sess, subs: make(map[int]func(*models.Session))}
}

func (f *fakeAuth) GetSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.sess, f.err
}

func (f *fakeAuth) OnSessionChange(fn func(*models.Session)) session.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return session.SubscriptionFunc(func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	})
}

// emit sets the current session and notifies subscribers synchronously.
func (f *fakeAuth) emit(sess *models.Session) {
	f.mu.Lock()
	f.sess = sess
	fns := make([]func(*models.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// drop removes the session without notifying subscribers, the way the auth
// service silently discards an expired row.
func (f *fakeAuth) drop() {
	f.mu.Lock()
	f.sess = nil
	f.mu.Unlock()
}

func (f *fakeAuth) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeAuth) getCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore enforces primary-key uniqueness like the real table.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]models.Profile
	inserts int
	finds   int

	findErr   error
	insertErr error
	// missFinds forces the next n lookups to report not found.
	missFinds int
	// beforeFind, when set, runs (outside the lock) before each lookup.
	beforeFind func()
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]models.Profile)}
}

func (m *memStore) FindProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	if m.beforeFind != nil {
		m.beforeFind()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.missFinds > 0 {
		m.missFinds--
		return nil, session.ErrProfileNotFound
	}
	p, ok := m.rows[id]
	if !ok {
		return nil, session.ErrProfileNotFound
	}
	return &p, nil
}

func (m *memStore) InsertProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if _, exists := m.rows[p.ID]; exists {
		return nil, session.ErrConstraintViolation
	}
	m.inserts++
	m.rows[p.ID] = p
	return &p, nil
}

func (m *memStore) UpdateProfileRole(ctx context.Context, id, role string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, session.ErrProfileNotFound
	}
	p.Role = role
	m.rows[id] = p
	return &p, nil
}

func (m *memStore) counts() (finds, inserts, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finds, m.inserts, len(m.rows)
}

type fakeTelemetry struct {
	beats chan session.Heartbeat
	err   error
}

func newFakeTelemetry(err error) *fakeTelemetry {
	return &fakeTelemetry{beats: make(chan session.Heartbeat, 16), err: err}
}

func (f *fakeTelemetry) Heartbeat(ctx context.Context, hb session.Heartbeat) error {
	f.beats <- hb
	return f.err
}

// blockingTelemetry holds every heartbeat until release is closed.
type blockingTelemetry struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingTelemetry() *blockingTelemetry {
	return &blockingTelemetry{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (f *blockingTelemetry) Heartbeat(ctx context.Context, hb session.Heartbeat) error {
	f.entered <- struct{}{}
	select {
	case <-f.release:
	case <-ctx.Done():
	}
	return nil
}

var errBackend = errors.New("backend unreachable")

func ann() *models.Session {
	return &models.Session{
		Token:     "tok-ann",
		Principal: models.Principal{ID: "u1", Email: "ann@x.com"},
	}
}
