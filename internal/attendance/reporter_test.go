package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyCore/studycore/internal/session"
)

func TestHTTPReporterPostsHeartbeat(t *testing.T) {
	var got session.Heartbeat
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	hb := session.Heartbeat{UserID: "u1", Username: "ann", Role: "Student"}
	require.NoError(t, NewHTTPReporter(srv.URL).Heartbeat(context.Background(), hb))
	assert.Equal(t, hb, got)
}

func TestHTTPReporterNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPReporter(srv.URL).Heartbeat(context.Background(), session.Heartbeat{UserID: "u1"})
	assert.ErrorContains(t, err, "502")
}

func TestHTTPReporterUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPReporter(url).Heartbeat(context.Background(), session.Heartbeat{UserID: "u1"})
	assert.Error(t, err)
}
