package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(handler http.Handler) *Server {
	return New(handler, Config{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServer_RunServesAndShutsDownLIFO(t *testing.T) {
	srv := testServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	srv.OnShutdown("database", record("database"))
	srv.OnShutdown("worker", record("worker"))

	drained := make(chan struct{})
	srv.OnDrain(func() { close(drained) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	<-drained
	assert.Equal(t, []string{"worker", "database"}, order)
}

func TestServer_ShutdownErrorsJoined(t *testing.T) {
	srv := testServer(http.NotFoundHandler())
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	srv.OnShutdown("a", func(ctx context.Context) error { return errA })
	srv.OnShutdown("b", func(ctx context.Context) error { return errB })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	<-srv.Ready()
	cancel()

	err := <-done
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestServer_ListenError(t *testing.T) {
	first := testServer(http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = first.Run(ctx) }()
	<-first.Ready()

	second := New(http.NotFoundHandler(), Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	second.httpServer.Addr = first.Addr()
	assert.Error(t, second.Run(context.Background()))
}
