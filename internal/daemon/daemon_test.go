package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wikimirror/internal/config"
)

func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := config.Defaults()
	cfg.BaseURL = "https://wiki.example.com"
	cfg.Email = "svc@example.com"
	cfg.APIToken = "token"
	cfg.RootPageID = "100"
	return New(&cfg, filepath.Join(t.TempDir(), ".env"), nil)
}

func TestEnvWatcherFiresOnEdit(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("A=1\n"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := NewEnvWatcher(envPath, func() { fired <- struct{}{} })
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(envPath, []byte("A=2\n"), 0o644))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not fire after env edit")
	}
}

func TestEnvWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("A=1\n"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := NewEnvWatcher(envPath, func() { fired <- struct{}{} })
	require.NoError(t, err)
	w.debounce = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-fired:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestServerEndpoints(t *testing.T) {
	d := testDaemon(t)
	srv := httptest.NewServer(newServer(":0", d).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.False(t, st.Running)
	assert.Nil(t, st.LastRun)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
