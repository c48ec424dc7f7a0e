package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// getUnreachableAddr returns an address that is guaranteed to be unreachable
// by allocating an available port and immediately closing it
func getUnreachableAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()
	return addr
}

func TestDialContextWithRetry_SucceedsImmediately(t *testing.T) {
	srv, srvURL, err := StartTestServer(NewTestHTTPHandlerWrapper(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))
	if err != nil {
		t.Fatalf("failed to start test server: %v", err)
	}
	defer srv.Close()

	dialer := NewNetDialer(100*time.Millisecond, 1*time.Second)
	dialRetry := DialContextWithRetry(dialer, wait.Backoff{
		Duration: time.Second,
		Factor:   2,
		Steps:    3,
	})

	start := time.Now()
	conn, err := dialRetry(t.Context(), "tcp", srvURL.Host)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn == nil {
		t.Fatal("expected non-nil connection")
	}
	conn.Close()

	// Should connect well before the first backoff step.
	if elapsed >= 500*time.Millisecond {
		t.Errorf("elapsed %v; should connect immediately", elapsed)
	}
}

func TestDialContextWithRetry_RetriesUntilReachable(t *testing.T) {
	addr := getUnreachableAddr(t)

	// Start a listener on the same address after a delay.
	ready := make(chan struct{})
	go func() {
		defer close(ready)
		time.Sleep(150 * time.Millisecond)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	dialer := NewNetDialer(50*time.Millisecond, 1*time.Second)
	dialRetry := DialContextWithRetry(dialer, wait.Backoff{
		Duration: 50 * time.Millisecond,
		Factor:   1,
		Steps:    40,
	})

	conn, err := dialRetry(t.Context(), "tcp", addr)
	if err != nil {
		t.Fatalf("expected success after target becomes reachable: %v", err)
	}
	conn.Close()
	<-ready
}

func TestDialContextWithRetry_StopsAfterSteps(t *testing.T) {
	backoff := wait.Backoff{
		Duration: 50 * time.Millisecond,
		Factor:   1,
		Steps:    4,
	}
	dialer := NewNetDialer(10*time.Millisecond, 10*time.Millisecond)
	dialRetry := DialContextWithRetry(dialer, backoff)

	start := time.Now()
	_, err := dialRetry(t.Context(), "tcp", getUnreachableAddr(t))
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error when connecting to unreachable address")
	}
	if !errors.Is(err, wait.ErrWaitTimeout) {
		t.Errorf("expected wait.ErrWaitTimeout, got %v", err)
	}

	minExpected := MinTotalBackoffDuration(backoff)
	if elapsed < minExpected {
		t.Errorf("elapsed %v < min expected %v", elapsed, minExpected)
	}
}

func TestDialContextWithRetry_RespectsParentContext(t *testing.T) {
	dialer := NewNetDialer(10*time.Millisecond, 1*time.Second)
	dialRetry := DialContextWithRetry(dialer, wait.Backoff{
		Duration: time.Second,
		Factor:   1,
		Steps:    10,
	})

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := dialRetry(ctx, "tcp", getUnreachableAddr(t))
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error on context cancellation")
	}
	// Should stop around the parent context timeout, not after the full backoff.
	if elapsed > 500*time.Millisecond {
		t.Errorf("elapsed %v; should have stopped near parent context timeout", elapsed)
	}
}

func TestDialContextWithRetry_WrapsError(t *testing.T) {
	dialer := NewNetDialer(1*time.Millisecond, 10*time.Millisecond)
	dialRetry := DialContextWithRetry(dialer, wait.Backoff{
		Duration: 10 * time.Millisecond,
		Steps:    2,
	})

	addr := getUnreachableAddr(t)
	_, err := dialRetry(t.Context(), "tcp", addr)
	if err == nil {
		t.Fatal("expected error")
	}
	// The underlying dial error should be unwrappable.
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Errorf("expected wrapped *net.OpError, got %T: %v", err, err)
	}
}

func TestStartCountingTestServer(t *testing.T) {
	srv, srvURL, counter, err := StartCountingTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	if err != nil {
		t.Fatalf("failed to start test server: %v", err)
	}
	defer srv.Close()

	cl := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	for range 2 {
		res, err := cl.Get(srvURL.String())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res.Body.Close()
	}
	if got := counter.Count(); got != 2 {
		t.Errorf("got %d connections, want 2", got)
	}
	counter.Reset()
	if got := counter.Count(); got != 0 {
		t.Errorf("got %d connections after reset, want 0", got)
	}
}
