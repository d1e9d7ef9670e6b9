package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyCore/studycore/internal/models"
	"github.com/StudyCore/studycore/internal/session"
)

func TestDefaultUsername(t *testing.T) {
	cases := []struct {
		principal models.Principal
		want      string
	}{
		{models.Principal{Username: "annie", Email: "ann@x.com"}, "annie"},
		{models.Principal{Username: "  ", Email: "ann@x.com"}, "ann"},
		{models.Principal{Email: "bob"}, "bob"},
		{models.Principal{Email: "@x.com"}, "User"},
		{models.Principal{}, "User"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, session.DefaultUsername(tc.principal), "%+v", tc.principal)
	}
}

func TestEnsureProfileFirstLoginCreatesStudent(t *testing.T) {
	store := newMemStore()

	p, err := session.EnsureProfile(context.Background(), store, ann().Principal)
	require.NoError(t, err)

	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "ann", p.Username)
	assert.Equal(t, models.RoleStudent, p.Role)
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	store := newMemStore()
	principal := ann().Principal

	first, err := session.EnsureProfile(context.Background(), store, principal)
	require.NoError(t, err)
	second, err := session.EnsureProfile(context.Background(), store, principal)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	_, inserts, rows := store.counts()
	assert.Equal(t, 1, inserts)
	assert.Equal(t, 1, rows)
}

func TestEnsureProfileReturnsExistingUnchanged(t *testing.T) {
	store := newMemStore()
	store.rows["u1"] = models.Profile{ID: "u1", Username: "Ann the Great", Role: "Creator"}

	p, err := session.EnsureProfile(context.Background(), store, ann().Principal)
	require.NoError(t, err)

	assert.Equal(t, "Ann the Great", p.Username)
	assert.Equal(t, "Creator", p.Role)
	_, inserts, _ := store.counts()
	assert.Zero(t, inserts)
}

func TestEnsureProfileRecoversFromDuplicateInsert(t *testing.T) {
	store := newMemStore()
	store.rows["u1"] = models.Profile{ID: "u1", Username: "winner", Role: models.RoleStudent}
	// The lookup misses as if a concurrent insert had not committed yet.
	store.missFinds = 1

	p, err := session.EnsureProfile(context.Background(), store, ann().Principal)
	require.NoError(t, err)

	assert.Equal(t, "winner", p.Username)
	finds, inserts, rows := store.counts()
	assert.Equal(t, 2, finds)
	assert.Zero(t, inserts)
	assert.Equal(t, 1, rows)
}

func TestEnsureProfileConcurrentFirstLogin(t *testing.T) {
	store := newMemStore()
	principal := ann().Principal

	const callers = 16
	start := make(chan struct{})
	results := make([]*models.Profile, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = session.EnsureProfile(context.Background(), store, principal)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "u1", results[i].ID)
	}
	_, inserts, rows := store.counts()
	assert.Equal(t, 1, inserts)
	assert.Equal(t, 1, rows)
}

func TestEnsureProfileErrors(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		store := newMemStore()
		store.findErr = errBackend

		_, err := session.EnsureProfile(context.Background(), store, ann().Principal)
		require.ErrorIs(t, err, errBackend)
	})

	t.Run("insert failure", func(t *testing.T) {
		store := newMemStore()
		store.insertErr = errBackend

		_, err := session.EnsureProfile(context.Background(), store, ann().Principal)
		require.ErrorIs(t, err, errBackend)
	})

	t.Run("missing principal id", func(t *testing.T) {
		_, err := session.EnsureProfile(context.Background(), newMemStore(), models.Principal{Email: "a@b"})
		require.ErrorIs(t, err, session.ErrNoPrincipalID)
	})
}
