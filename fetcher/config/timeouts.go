package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/kedacore/http-fetcher/pkg/agent"
)

// Timeouts is the configuration for the connections of every agent
type Timeouts struct {
	// Connect is the connection timeout
	Connect time.Duration `envconfig:"FETCH_CONNECT_TIMEOUT" default:"500ms"`
	// KeepAlive is the interval between TCP keepalive probes
	KeepAlive time.Duration `envconfig:"FETCH_TCP_KEEP_ALIVE" default:"1s"`
	// ResponseHeader is how long to wait for response headers after the
	// request was written. 0 waits forever
	ResponseHeader time.Duration `envconfig:"FETCH_RESPONSE_HEADER_TIMEOUT" default:"0s"`
	// DialRetries is how many times a failed dial is retried
	DialRetries int `envconfig:"FETCH_DIAL_RETRIES" default:"0"`
	// MaxIdleConns is the max number of idle connections across all origins
	// of one agent
	MaxIdleConns int `envconfig:"FETCH_MAX_IDLE_CONNS" default:"100"`
	// IdleConnTimeout is the timeout after which an idle pooled connection
	// is closed
	IdleConnTimeout time.Duration `envconfig:"FETCH_IDLE_CONN_TIMEOUT" default:"90s"`
	// TLSHandshakeTimeout is the max amount of time to wait for a TLS
	// handshake
	TLSHandshakeTimeout time.Duration `envconfig:"FETCH_TLS_HANDSHAKE_TIMEOUT" default:"10s"`
	// ExpectContinueTimeout is the max amount of time to wait for a server's
	// first response headers after sending Expect: 100-continue
	ExpectContinueTimeout time.Duration `envconfig:"FETCH_EXPECT_CONTINUE_TIMEOUT" default:"1s"`
}

// Backoff returns a wait.Backoff based on the timeouts in t
func (t *Timeouts) Backoff(factor, jitter float64, steps int) wait.Backoff {
	return wait.Backoff{
		Duration: t.Connect,
		Factor:   factor,
		Jitter:   jitter,
		Steps:    steps,
	}
}

// DefaultBackoff calls t.Backoff with reasonable defaults, dialing once
// plus DialRetries retries
func (t *Timeouts) DefaultBackoff() wait.Backoff {
	return t.Backoff(2, 0.5, t.DialRetries+1)
}

// TransportConfig returns the agent transport configuration of t.
func (t *Timeouts) TransportConfig() agent.TransportConfig {
	return agent.TransportConfig{
		ConnectTimeout:        t.Connect,
		KeepAlive:             t.KeepAlive,
		TLSHandshakeTimeout:   t.TLSHandshakeTimeout,
		ResponseHeaderTimeout: t.ResponseHeader,
		ExpectContinueTimeout: t.ExpectContinueTimeout,
		IdleConnTimeout:       t.IdleConnTimeout,
		MaxIdleConns:          t.MaxIdleConns,
		DialBackoff:           t.DefaultBackoff(),
	}
}

// MustParseTimeouts parses the timeouts from the environment and panics if
// that fails
func MustParseTimeouts() *Timeouts {
	ret := new(Timeouts)
	envconfig.MustProcess("", ret)
	return ret
}
