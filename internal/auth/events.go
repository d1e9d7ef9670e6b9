package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

type EventKind string

const (
	SignedIn       EventKind = "signed_in"
	SignedOut      EventKind = "signed_out"
	Refreshed      EventKind = "refreshed"
	ProfileChanged EventKind = "profile_changed"
)

// Event announces a session or profile change. Session carries a digest of
// the token, never the token itself, so events can cross process boundaries.
type Event struct {
	Kind    EventKind `json:"kind"`
	Session string    `json:"session,omitempty"`
	UserID  string    `json:"user_id,omitempty"`
}

// TokenDigest is the value Event.Session holds for token.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Hub fans events out to subscribers. Subscribers run on the delivering
// goroutine, one event at a time in publish order.
type Hub interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(fn func(Event)) (cancel func())
}

// LocalHub delivers events in-process, synchronously inside Publish.
type LocalHub struct {
	mu   sync.RWMutex
	subs map[uint64]func(Event)
	next uint64
}

func NewLocalHub() *LocalHub {
	return &LocalHub{subs: make(map[uint64]func(Event))}
}

func (h *LocalHub) Publish(_ context.Context, e Event) error {
	h.dispatch(e)
	return nil
}

func (h *LocalHub) dispatch(e Event) {
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (h *LocalHub) Subscribe(fn func(Event)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *LocalHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
