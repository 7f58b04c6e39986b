package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewServer_Validation(t *testing.T) {
	handler := http.NewServeMux()
	logger := logging.NewNop()

	_, err := NewServer(config.ServerConfig{Port: 8080}, nil, logger)
	assert.Error(t, err)

	_, err = NewServer(config.ServerConfig{Port: 8080}, handler, nil)
	assert.Error(t, err)

	_, err = NewServer(config.ServerConfig{Port: 0}, handler, logger)
	assert.Error(t, err)

	_, err = NewServer(config.ServerConfig{Port: 70000}, handler, logger)
	assert.Error(t, err)
}

func TestServer_GracefulShutdown(t *testing.T) {
	port := freePort(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv, err := NewServer(config.ServerConfig{Port: port, ShutdownTimeout: 2 * time.Second}, mux, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Wait for the listener to come up.
	url := fmt.Sprintf("http://127.0.0.1:%d/ping", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
