package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mpetrov/streamtube/internal/testutil"
)

// Smoke test: boot the whole service against a real database, check the API
// answers and the server stops gracefully on context cancellation.
func TestRun(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	defer pg.Terminate()

	port, err := testutil.RandomPort()
	require.NoError(t, err)
	addr := fmt.Sprintf("localhost:%d", port)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx,
			func(string) string { return "" },
			func() (string, error) { return t.TempDir(), nil },
			[]string{
				"--address", addr,
				"--database", pg.DSN,
				"--access-secret", "test-access-secret",
				"--refresh-secret", "test-refresh-secret",
				"--media-bucket", "test-bucket",
				"--environment", "dev",
			},
		)
	}()

	baseURL := "http://" + addr + "/api/users"

	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/me")
		if err != nil {
			return false
		}
		defer resp.Body.Close() // nolint:errcheck
		return resp.StatusCode == http.StatusUnauthorized
	}, 10*time.Second, 100*time.Millisecond, "server should start and protect /me")

	t.Run("login with unknown user answers 401", func(t *testing.T) {
		resp, err := http.Post(baseURL+"/login", "application/json",
			jsonBody(`{"username":"nobody","password":"password"}`))
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("refresh without token answers 401", func(t *testing.T) {
		resp, err := http.Post(baseURL+"/refresh", "application/json", jsonBody(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown route answers 404", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/no-such-route")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "graceful shutdown should not be an error")
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func TestRun_ConfigErrors(t *testing.T) {
	t.Parallel()

	getenv := func(string) string { return "" }
	getwd := func() (string, error) { return t.TempDir(), nil }

	t.Run("unreachable database fails fast", func(t *testing.T) {
		t.Parallel()

		err := run(t.Context(), getenv, getwd, []string{"--database", "postgres://localhost:1/none"})

		require.Error(t, err)
	})

	t.Run("unknown flag fails fast", func(t *testing.T) {
		t.Parallel()

		err := run(t.Context(), getenv, getwd, []string{"--no-such-flag"})

		require.Error(t, err)
	})
}
