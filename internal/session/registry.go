package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// RegistryConfig wires a Registry. NewAuth builds the auth view for one
// session token. Now defaults to time.Now.
type RegistryConfig struct {
	Size      int
	TTL       time.Duration
	NewAuth   func(token string) AuthService
	Store     ProfileStore
	Telemetry Telemetry
	Now       func() time.Time
}

// Registry keeps one live Bootstrapper per session token so that requests
// carrying the same token share a resolved state. Evicted bootstrappers are
// closed, which drops their change subscription.
type Registry struct {
	cfg   RegistryConfig
	cache *expirable.LRU[string, *Bootstrapper]
	group singleflight.Group
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	onEvict := func(_ string, b *Bootstrapper) { b.Close() }
	return &Registry{
		cfg:   cfg,
		cache: expirable.NewLRU[string, *Bootstrapper](cfg.Size, onEvict, cfg.TTL),
	}
}

// Resolve returns the state for token, bootstrapping it on first use.
// Tokens that do not resolve to a signed-in principal are not cached. A cached
// state past its session expiry is dropped and the token resolved again.
func (r *Registry) Resolve(ctx context.Context, token string) State {
	if token == "" {
		return *unauthenticated
	}

	if b, ok := r.cache.Get(token); ok {
		st := b.Current()
		switch {
		case st.Expired(r.cfg.Now()):
			r.cache.Remove(token)
		case !st.Authenticated():
			r.cache.Remove(token)
			return st
		default:
			return st
		}
	}

	// The first caller's deadline must not fail the callers sharing its result.
	ctx = context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(token, func() (any, error) {
		if b, ok := r.cache.Get(token); ok {
			if st := b.Current(); st.Authenticated() && !st.Expired(r.cfg.Now()) {
				return st, nil
			}
		}

		b := NewBootstrapper(r.cfg.NewAuth(token), r.cfg.Store, r.cfg.Telemetry)
		st := b.Start(ctx)

		// An expired entry may still be parked under token; Remove closes it.
		r.cache.Remove(token)
		if !st.Authenticated() {
			b.Close()
			return st, nil
		}
		r.cache.Add(token, b)
		return st, nil
	})
	return v.(State)
}

// Forget drops and closes the bootstrapper for token, if any.
func (r *Registry) Forget(token string) {
	r.cache.Remove(token)
}

func (r *Registry) Len() int { return r.cache.Len() }

// Close closes every cached bootstrapper.
func (r *Registry) Close() {
	r.cache.Purge()
}
