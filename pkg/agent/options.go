package agent

import (
	"k8s.io/utils/ptr"
)

const (
	// DefaultMaxSockets is the per-origin connection ceiling applied when the
	// caller does not choose one.
	DefaultMaxSockets = 64
	// DefaultKeepAlive is the connection persistence applied when the caller
	// does not choose one.
	DefaultKeepAlive = false
)

// Options is the family-neutral option set a caller passes per request.
// Nil fields are unset. Every field is a primitive so the whole set can take
// part in the cache key.
type Options struct {
	// MaxSockets is the ceiling of parallel connections per origin. 0 means
	// unlimited.
	MaxSockets *int `json:"maxSockets,omitempty"`
	// KeepAlive keeps connections open for reuse across requests.
	KeepAlive *bool `json:"keepAlive,omitempty"`
	// Pipelining is the dispatcher-family persistence knob. 0 disables
	// persistent connections.
	Pipelining *int `json:"pipelining,omitempty"`
	// Connections is the dispatcher-family name for MaxSockets.
	Connections *int `json:"connections,omitempty"`
	// NoProxy skips proxy resolution for this call. It is consumed by the
	// resolver and never reaches a transport.
	NoProxy bool `json:"noProxy,omitempty"`
}

// DefaultOptions returns the options every request starts from.
func DefaultOptions() Options {
	return Options{
		MaxSockets: ptr.To(DefaultMaxSockets),
		KeepAlive:  ptr.To(DefaultKeepAlive),
	}
}

// Merge returns o with every field that is set in override replaced.
func (o Options) Merge(override Options) Options {
	if override.MaxSockets != nil {
		o.MaxSockets = ptr.To(*override.MaxSockets)
	}
	if override.KeepAlive != nil {
		o.KeepAlive = ptr.To(*override.KeepAlive)
	}
	if override.Pipelining != nil {
		o.Pipelining = ptr.To(*override.Pipelining)
	}
	if override.Connections != nil {
		o.Connections = ptr.To(*override.Connections)
	}
	if override.NoProxy {
		o.NoProxy = true
	}
	return o
}
