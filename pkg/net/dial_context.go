package net

import (
	"context"
	"fmt"
	stdnet "net"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// DialContextFunc is a function that matches the (net).Dialer.DialContext functions's
// signature
type DialContextFunc func(ctx context.Context, network, addr string) (stdnet.Conn, error)

// DialContextWithRetry creates a new DialContextFunc --
// which has the same signature as the net.Conn.DialContext function --
// that calls coreDialer.DialContext up to backoff.Steps times, sleeping
// backoff.Step() between attempts.
//
// Every transport handed out by the agent resolver dials through this
// function, so a proxy or origin that is briefly unreachable (restarting,
// still binding its port) does not immediately fail the request. The
// request timeout still bounds the whole attempt through ctx.
//
// Thanks to KNative for inspiring this code. See GitHub link below
// https://github.com/knative/serving/blob/1640d2755a7c61bdb65414ef552bfb511470ac70/vendor/knative.dev/pkg/network/transports.go#L64
func DialContextWithRetry(coreDialer *stdnet.Dialer, backoff wait.Backoff) DialContextFunc {
	return func(ctx context.Context, network, addr string) (stdnet.Conn, error) {
		// backoff is a value, each dial gets its own copy of the steps.
		b := backoff
		if b.Steps <= 0 {
			b.Steps = 1
		}
		var lastErr error
		for b.Steps > 0 {
			conn, err := coreDialer.DialContext(ctx, network, addr)
			if err == nil {
				return conn, nil
			}
			lastErr = err
			// NOTE: make sure to call b.Step() only once per loop iteration.
			// it decrements b.Steps every call. b.Steps is the number
			// of steps left in the backoff, and it's used in the loop iteration.
			sleepDur := b.Step()
			if b.Steps == 0 {
				break
			}
			t := time.NewTimer(sleepDur)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, fmt.Errorf("%w: %w", wait.ErrWaitTimeout, lastErr)
			case <-t.C:
			}
		}
		return nil, fmt.Errorf("%w: %w", wait.ErrWaitTimeout, lastErr)
	}
}

// NewNetDialer creates a new (net).Dialer with the given connection timeout and
// keep alive duration.
func NewNetDialer(connectTimeout, keepAlive time.Duration) *stdnet.Dialer {
	return &stdnet.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: keepAlive,
	}
}
