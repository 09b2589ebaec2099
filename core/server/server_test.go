package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/auditbot/core/server"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})
}

func waitListening(t *testing.T, s *server.Server) string {
	t.Helper()
	var addr string
	require.Eventually(t, func() bool {
		addr = s.Addr()
		return addr != "127.0.0.1:0"
	}, 2*time.Second, 5*time.Millisecond)
	return addr
}

func TestServerRun(t *testing.T) {
	t.Parallel()

	s := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, okHandler())() }()

	addr := waitListening(t, s)
	resp, err := http.Get("http://" + addr + "/health/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err = http.Get("http://" + addr + "/health/live")
	assert.Error(t, err)
}

func TestServerDoubleStart(t *testing.T) {
	t.Parallel()

	s := server.New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = s.Start(ctx, okHandler()) }()
	waitListening(t, s)

	assert.ErrorIs(t, s.Start(ctx, okHandler()), server.ErrServerAlreadyRunning)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}

func TestServerListenFailure(t *testing.T) {
	t.Parallel()

	s := server.New("256.0.0.1:99999")
	err := s.Start(context.Background(), okHandler())
	assert.ErrorIs(t, err, server.ErrListen)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	_, err := server.NewFromConfig(server.Config{})
	assert.ErrorIs(t, err, server.ErrMissingAddress)
	assert.False(t, server.Config{}.Enabled())

	s, err := server.NewFromConfig(server.Config{Addr: ":9090", ShutdownTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, ":9090", s.Addr())
}
