package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

func TestBootstrapWithoutSession(t *testing.T) {
	auth := newFakeAuth(nil)
	store := newMemStore()
	b := session.NewBootstrapper(auth, store, nil)

	st := b.Bootstrap(context.Background())

	assert.Equal(t, session.Unauthenticated, st.Status)
	assert.Nil(t, st.Principal)
	assert.Nil(t, st.Profile)
	finds, inserts, _ := store.counts()
	assert.Zero(t, finds, "no profile lookup without a session")
	assert.Zero(t, inserts)
}

func TestBootstrapPublishesPrincipalAndProfile(t *testing.T) {
	tel := newFakeTelemetry(nil)
	b := session.NewBootstrapper(newFakeAuth(ann()), newMemStore(), tel)

	st := b.Bootstrap(context.Background())

	require.True(t, st.Authenticated())
	assert.Equal(t, "u1", st.Principal.ID)
	assert.Equal(t, "ann", st.Profile.Username)
	assert.Equal(t, models.RoleStudent, st.Profile.Role)
	assert.Equal(t, st, b.Current())

	select {
	case hb := <-tel.beats:
		assert.Equal(t, session.Heartbeat{UserID: "u1", Username: "ann", Role: "Student"}, hb)
	case <-time.After(time.Second):
		t.Fatal("expected a heartbeat after authentication")
	}
}

func TestBootstrapAuthServiceUnavailable(t *testing.T) {
	auth := newFakeAuth(ann())
	auth.err = errBackend
	b := session.NewBootstrapper(auth, newMemStore(), nil)

	st := b.Bootstrap(context.Background())

	assert.Equal(t, session.Unauthenticated, st.Status)
}

func TestBootstrapStoreFailurePublishesNothingPartial(t *testing.T) {
	store := newMemStore()
	store.findErr = errBackend
	tel := newFakeTelemetry(nil)
	b := session.NewBootstrapper(newFakeAuth(ann()), store, tel)

	st := b.Bootstrap(context.Background())

	assert.Equal(t, session.Unauthenticated, st.Status)
	assert.Nil(t, st.Principal)
	assert.Nil(t, st.Profile)
	assert.Empty(t, tel.beats)
}

func TestTelemetryFailureDoesNotAffectState(t *testing.T) {
	tel := newFakeTelemetry(errBackend)
	b := session.NewBootstrapper(newFakeAuth(ann()), newMemStore(), tel)

	st := b.Bootstrap(context.Background())
	<-tel.beats

	assert.True(t, st.Authenticated())
	assert.True(t, b.Current().Authenticated())
}

func TestBlockedTelemetryDoesNotDelayBootstrap(t *testing.T) {
	tel := newBlockingTelemetry()
	defer close(tel.release)
	b := session.NewBootstrapper(newFakeAuth(ann()), newMemStore(), tel)

	done := make(chan session.State, 1)
	go func() { done <- b.Bootstrap(context.Background()) }()

	var st session.State
	select {
	case st = <-done:
	case <-time.After(time.Second):
		t.Fatal("Bootstrap waited on the telemetry sink")
	}

	select {
	case <-tel.entered:
	case <-time.After(time.Second):
		t.Fatal("expected the heartbeat to reach the sink")
	}

	// The sink is still holding the heartbeat.
	assert.True(t, st.Authenticated())
	assert.True(t, b.Current().Authenticated())
	assert.Equal(t, session.Authenticated, b.Status())
}

func TestSessionChangeTransitions(t *testing.T) {
	auth := newFakeAuth(nil)
	b := session.NewBootstrapper(auth, newMemStore(), nil)
	defer b.Close()

	require.Equal(t, session.Unauthenticated, b.Start(context.Background()).Status)

	auth.emit(ann())
	st := b.Current()
	require.True(t, st.Authenticated())
	assert.Equal(t, "u1", st.Profile.ID)

	auth.emit(nil)
	assert.Equal(t, session.Unauthenticated, b.Current().Status)
	assert.Nil(t, b.Current().Profile)
}

func TestSessionChangePicksUpRoleUpdate(t *testing.T) {
	auth := newFakeAuth(ann())
	store := newMemStore()
	b := session.NewBootstrapper(auth, store, nil)
	defer b.Close()

	b.Start(context.Background())
	_, err := store.UpdateProfileRole(context.Background(), "u1", "Teacher")
	require.NoError(t, err)

	auth.emit(ann())

	assert.Equal(t, "Teacher", b.Current().Profile.Role)
}

func TestCloseUnsubscribes(t *testing.T) {
	auth := newFakeAuth(ann())
	b := session.NewBootstrapper(auth, newMemStore(), nil)

	b.Start(context.Background())
	require.Equal(t, 1, auth.subscribers())

	b.Close()
	b.Close()
	assert.Zero(t, auth.subscribers())

	before := b.Current()
	auth.emit(nil)
	assert.Equal(t, before, b.Current(), "no state change after Close")
}

// A slow resolution that started first must not overwrite a newer sign-out.
func TestStaleResolutionIsDiscarded(t *testing.T) {
	auth := newFakeAuth(ann())
	store := newMemStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.beforeFind = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	b := session.NewBootstrapper(auth, store, nil)
	defer b.Close()

	done := make(chan session.State, 1)
	go func() { done <- b.Start(context.Background()) }()

	<-entered
	assert.Equal(t, session.Resolving, b.Status())
	auth.emit(nil)
	assert.Equal(t, session.Unauthenticated, b.Current().Status)

	close(release)
	<-done
	assert.Equal(t, session.Unauthenticated, b.Current().Status)
	assert.Equal(t, session.Unauthenticated, b.Status())
}

func TestWatchObservesPublishedStates(t *testing.T) {
	auth := newFakeAuth(nil)
	b := session.NewBootstrapper(auth, newMemStore(), nil)
	defer b.Close()

	var seen []session.Status
	cancel := b.Watch(func(s session.State) { seen = append(seen, s.Status) })

	b.Start(context.Background())
	auth.emit(ann())
	auth.emit(nil)
	cancel()
	auth.emit(ann())

	assert.Equal(t, []session.Status{session.Unauthenticated, session.Authenticated, session.Unauthenticated}, seen)
}

func TestWatcherCanCancelItself(t *testing.T) {
	auth := newFakeAuth(nil)
	b := session.NewBootstrapper(auth, newMemStore(), nil)
	defer b.Close()
	b.Start(context.Background())

	calls := 0
	var cancel func()
	cancel = b.Watch(func(session.State) {
		calls++
		cancel()
	})

	done := make(chan struct{})
	go func() {
		auth.emit(ann())
		auth.emit(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher cancelling itself blocked the publisher")
	}
	assert.Equal(t, 1, calls)
}
