package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"
)

func testServer(h http.Handler) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(h, Config{Port: 0, ShutdownTimeout: time.Second}, logger)
}

func TestServer_ServeAndShutdownOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	srv := testServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
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
	srv.OnShutdown("postgres", record("postgres"))
	srv.OnShutdown("redis", record("redis"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if !slices.Equal(order, []string{"redis", "postgres"}) {
		t.Errorf("shutdown order = %v", order)
	}
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	srv := testServer(http.NotFoundHandler())
	errRedis := errors.New("redis close failed")
	ran := false
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		ran = true
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error { return errRedis })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = srv.Serve(ctx, ln)
	if !errors.Is(err, errRedis) {
		t.Errorf("expected redis error, got %v", err)
	}
	if !ran {
		t.Error("a failing hook must not stop the remaining hooks")
	}
}
