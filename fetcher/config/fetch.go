package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"k8s.io/utils/ptr"

	"github.com/kedacore/http-fetcher/pkg/agent"
	"github.com/kedacore/http-fetcher/pkg/cache"
)

// Fetch is the configuration of the fetcher's agent pooling and request
// handling
type Fetch struct {
	// TransportFamily selects the transport family agents are built for,
	// one of: classic, dispatcher
	TransportFamily agent.Family `envconfig:"FETCH_TRANSPORT_FAMILY" default:"classic"`
	// AgentCacheSize is the number of agents kept before the least recently
	// used one is disposed
	AgentCacheSize int `envconfig:"FETCH_AGENT_CACHE_SIZE" default:"512"`
	// DefaultTimeout applies to requests that set no timeout. 0 disables it
	DefaultTimeout time.Duration `envconfig:"FETCH_DEFAULT_TIMEOUT" default:"0s"`
	// AbortCompat resolves an empty 200 response for cancelled requests
	// instead of failing them
	AbortCompat bool `envconfig:"FETCH_ABORT_COMPAT" default:"false"`
	// MaxSockets is the default per-origin connection ceiling
	MaxSockets int `envconfig:"FETCH_MAX_SOCKETS" default:"64"`
	// KeepAlive is the default connection persistence
	KeepAlive bool `envconfig:"FETCH_KEEP_ALIVE" default:"false"`
}

// AgentOptions returns the agent options every request starts from.
func (f *Fetch) AgentOptions() agent.Options {
	return agent.Options{
		MaxSockets: ptr.To(f.MaxSockets),
		KeepAlive:  ptr.To(f.KeepAlive),
	}
}

// CacheSize returns AgentCacheSize, or the cache's default when it is not
// positive.
func (f *Fetch) CacheSize() int {
	if f.AgentCacheSize <= 0 {
		return cache.DefaultSize
	}
	return f.AgentCacheSize
}

// MustParseFetch parses the fetch configuration from the environment and
// panics if that fails
func MustParseFetch() *Fetch {
	ret := new(Fetch)
	envconfig.MustProcess("", ret)
	return ret
}
