package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forum/internal/config"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Service.Listen = "127.0.0.1:0"
	cfg.Service.ShutdownTimeout = 1
	cfg.Auth.JWTSecret = "server-test-secret-012345"
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_WritesAreJournaled(t *testing.T) {
	s, err := New(testConfig(t), quietLogger(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { closeJournal(s.journal, s.logger) })

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/users", "application/json", strings.NewReader(`{"name":"alice","authKey":"key"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	records, err := s.journal.List(context.Background(), repository.ListOptions{Kind: observer.UserAdded})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Event.New)
}

func TestServer_WithoutJournalOrSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Path = ""
	cfg.Auth.JWTSecret = ""

	s, err := New(cfg, quietLogger(), "test")
	require.NoError(t, err)
	assert.Nil(t, s.journal)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/users", "application/json", strings.NewReader(`{"name":"alice","authKey":"key"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/login", "application/json", strings.NewReader(`{"name":"alice","authKey":"key"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s, err := New(testConfig(t), quietLogger(), "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("debug", "json")
	assert.NoError(t, err)
	_, err = NewLogger("chatty", "text")
	assert.Error(t, err)
}
