package session

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/StudyCore/studycore/internal/models"
)

const (
	resolveTimeout   = 10 * time.Second
	heartbeatTimeout = 5 * time.Second
)

// Bootstrapper resolves the signed-in principal, makes sure it has a profile
// and publishes the pair. It re-resolves on every session change notification
// until Close is called.
type Bootstrapper struct {
	auth      AuthService
	store     ProfileStore
	telemetry Telemetry

	pub *publisher

	// gen numbers resolutions in the order they start; published is the
	// newest generation that reached the publisher. Older results are dropped.
	gen       atomic.Uint64
	mu        sync.Mutex
	published uint64

	inflight atomic.Int32
	closed   atomic.Bool

	subOnce   sync.Once
	sub       Subscription
	closeOnce sync.Once
}

// NewBootstrapper starts in the Unauthenticated state. telemetry may be nil.
func NewBootstrapper(auth AuthService, store ProfileStore, telemetry Telemetry) *Bootstrapper {
	return &Bootstrapper{
		auth:      auth,
		store:     store,
		telemetry: telemetry,
		pub:       newPublisher(),
	}
}

// Start subscribes to session changes and runs the initial Bootstrap.
// Subscribing first means a change that lands during bootstrap is not lost.
func (b *Bootstrapper) Start(ctx context.Context) State {
	b.subOnce.Do(func() {
		b.sub = b.auth.OnSessionChange(b.onSessionChange)
	})
	return b.Bootstrap(ctx)
}

// Bootstrap resolves whatever session the auth service currently holds.
// It never fails outward: any error leaves the bootstrapper Unauthenticated.
func (b *Bootstrapper) Bootstrap(ctx context.Context) State {
	gen := b.gen.Add(1)

	sess, err := b.auth.GetSession(ctx)
	if err != nil {
		log.Printf("[session] auth service unavailable: %v", err)
		b.publish(gen, unauthenticated)
		return b.Current()
	}
	if sess == nil {
		b.publish(gen, unauthenticated)
		return b.Current()
	}

	b.resolve(ctx, gen, sess)
	return b.Current()
}

func (b *Bootstrapper) onSessionChange(sess *models.Session) {
	if b.closed.Load() {
		return
	}
	gen := b.gen.Add(1)

	if sess == nil {
		b.publish(gen, unauthenticated)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	b.resolve(ctx, gen, sess)
}

func (b *Bootstrapper) resolve(ctx context.Context, gen uint64, sess *models.Session) {
	b.inflight.Add(1)
	defer b.inflight.Add(-1)

	prof, err := EnsureProfile(ctx, b.store, sess.Principal)
	if err != nil {
		log.Printf("[session] resolving %s failed: %v", sess.Principal.ID, err)
		b.publish(gen, unauthenticated)
		return
	}

	st := authenticatedState(sess, *prof)
	if b.publish(gen, st) {
		b.heartbeat(st)
	}
}

// publish swaps in st unless a newer resolution already published or the
// bootstrapper is closed. Watchers run under b.mu and must not call back
// into Bootstrap.
func (b *Bootstrapper) publish(gen uint64, st *State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() || gen < b.published {
		return false
	}
	b.published = gen
	b.pub.store(st)
	return true
}

func (b *Bootstrapper) heartbeat(st *State) {
	if b.telemetry == nil {
		return
	}
	hb := Heartbeat{
		UserID:   st.Principal.ID,
		Username: st.Profile.Username,
		Role:     st.Profile.Role,
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[session] heartbeat for %s panicked: %v", hb.UserID, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), heartbeatTimeout)
		defer cancel()
		if err := b.telemetry.Heartbeat(ctx, hb); err != nil {
			log.Printf("[session] heartbeat for %s dropped: %v", hb.UserID, err)
		}
	}()
}

// Current returns the last published state.
func (b *Bootstrapper) Current() State { return b.pub.load() }

// Status is Resolving while any resolution is in flight, otherwise the
// published status.
func (b *Bootstrapper) Status() Status {
	if b.inflight.Load() > 0 {
		return Resolving
	}
	return b.Current().Status
}

// Watch registers fn for every published state and returns a cancel func.
// fn runs on the publishing goroutine while the bootstrapper holds its publish
// lock. It may call the cancel func but must not call Close, Start or Bootstrap.
func (b *Bootstrapper) Watch(fn func(State)) func() { return b.pub.watch(fn) }

// Close detaches from the auth service. Late callbacks and in-flight
// resolutions are discarded.
func (b *Bootstrapper) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed.Store(true)
		b.mu.Unlock()

		b.subOnce.Do(func() {})
		if b.sub != nil {
			b.sub.Unsubscribe()
		}
	})
}
