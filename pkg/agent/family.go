package agent

import (
	"context"
	"crypto/tls"
	"fmt"
	stdnet "net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
	"k8s.io/apimachinery/pkg/util/wait"

	kedanet "github.com/kedacore/http-fetcher/pkg/net"
)

// Family is a transport family: a set of transports sharing one
// configuration vocabulary.
type Family int

const (
	// FamilyClassic transports are configured with keep-alive and a socket
	// ceiling, and are attached to a request as its agent.
	FamilyClassic Family = iota
	// FamilyDispatcher transports negotiate HTTP/2, are configured with a
	// pipelining depth and a connection count, and are attached to a request
	// as its dispatcher.
	FamilyDispatcher
)

func (f Family) String() string {
	switch f {
	case FamilyClassic:
		return "classic"
	case FamilyDispatcher:
		return "dispatcher"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily parses the name returned by Family.String.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "classic":
		return FamilyClassic, nil
	case "dispatcher":
		return FamilyDispatcher, nil
	default:
		return FamilyClassic, fmt.Errorf("unknown transport family %q", s)
	}
}

// Decode lets envconfig parse a Family.
func (f *Family) Decode(value string) error {
	parsed, err := ParseFamily(value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// TransportConfig holds the settings shared by every transport the resolver
// builds, whatever its family or proxy.
type TransportConfig struct {
	ConnectTimeout        time.Duration
	KeepAlive             time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	ExpectContinueTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConns          int
	// DialBackoff drives dial retries. Steps <= 1 dials once.
	DialBackoff     wait.Backoff
	TLSClientConfig *tls.Config
	// DialContext, if set, replaces the retrying dialer.
	DialContext func(ctx context.Context, network, addr string) (stdnet.Conn, error)
}

// DefaultTransportConfig mirrors the timeouts of http.DefaultTransport and
// dials once.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ConnectTimeout:        30 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		DialBackoff:           wait.Backoff{Steps: 1},
	}
}

func (c TransportConfig) newTransport() *http.Transport {
	dial := c.DialContext
	if dial == nil {
		dial = kedanet.DialContextWithRetry(kedanet.NewNetDialer(c.ConnectTimeout, c.KeepAlive), c.DialBackoff)
	}
	var tlsCfg *tls.Config
	if c.TLSClientConfig != nil {
		tlsCfg = c.TLSClientConfig.Clone()
	}
	return &http.Transport{
		// the resolver picks the proxy, never the environment
		Proxy:                 nil,
		DialContext:           dial,
		TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.ResponseHeaderTimeout,
		ExpectContinueTimeout: c.ExpectContinueTimeout,
		IdleConnTimeout:       c.IdleConnTimeout,
		MaxIdleConns:          c.MaxIdleConns,
		TLSClientConfig:       tlsCfg,
	}
}

// BuildFunc constructs the transport of one agent. proxy is nil for direct
// connections.
type BuildFunc func(cfg TransportConfig, opts FamilyOptions, proxy *url.URL) (*http.Transport, error)

// Capability is the result of detecting whether a transport flavor can be
// built. Resolution branches on Available instead of on build failures.
type Capability struct {
	Available bool
	Build     BuildFunc
}

// Available tags build as a usable capability.
func Available(build BuildFunc) Capability {
	return Capability{Available: true, Build: build}
}

// Unavailable is the capability of a flavor that cannot be built.
var Unavailable = Capability{}

// Variant selects a transport flavor along its two axes.
type Variant struct {
	Family  Family
	Proxied bool
}

func (v Variant) String() string {
	if v.Proxied {
		return v.Family.String() + "/proxied"
	}
	return v.Family.String() + "/direct"
}

// Capabilities maps every variant to its detected capability. A variant
// missing from the map is unavailable.
type Capabilities map[Variant]Capability

// DefaultCapabilities returns the four built-in flavors.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		{Family: FamilyClassic, Proxied: false}:    Available(BuildClassic),
		{Family: FamilyClassic, Proxied: true}:     Available(BuildClassic),
		{Family: FamilyDispatcher, Proxied: false}: Available(BuildDispatcher),
		{Family: FamilyDispatcher, Proxied: true}:  Available(BuildDispatcher),
	}
}

func (c Capabilities) lookup(v Variant) Capability {
	if c == nil {
		return Unavailable
	}
	return c[v]
}

// BuildClassic builds an HTTP/1.1 transport from ClassicOptions.
func BuildClassic(cfg TransportConfig, opts FamilyOptions, proxy *url.URL) (*http.Transport, error) {
	o, ok := opts.(ClassicOptions)
	if !ok {
		return nil, fmt.Errorf("classic transport given %s options", opts.Family())
	}
	t := cfg.newTransport()
	t.DisableKeepAlives = !o.KeepAlive
	t.MaxConnsPerHost = o.MaxSockets
	if o.KeepAlive {
		t.MaxIdleConnsPerHost = o.MaxSockets
	}
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy)
	}
	return t, nil
}

// BuildDispatcher builds an HTTP/2-capable transport from DispatcherOptions.
// A pipelining depth of 1 holds each connection to the server's advertised
// stream limit; deeper pipelining lets requests queue on existing
// connections.
func BuildDispatcher(cfg TransportConfig, opts FamilyOptions, proxy *url.URL) (*http.Transport, error) {
	o, ok := opts.(DispatcherOptions)
	if !ok {
		return nil, fmt.Errorf("dispatcher transport given %s options", opts.Family())
	}
	t := cfg.newTransport()
	t.ForceAttemptHTTP2 = true
	t.DisableKeepAlives = o.Pipelining == 0
	t.MaxConnsPerHost = o.Connections
	if o.Pipelining > 0 {
		t.MaxIdleConnsPerHost = o.Connections
	}
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy)
	}
	t2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("configuring HTTP/2: %w", err)
	}
	t2.StrictMaxConcurrentStreams = o.Pipelining == 1
	return t, nil
}

// Agent is a pooled transport bound to one cache key.
//
// Disposing an Agent closes its idle connections. Requests already issued
// on it, in either family, run to completion on their own connections, and
// the Agent stays usable; the resolver simply stops handing it out.
type Agent struct {
	variant   Variant
	proxy     *url.URL
	transport *http.Transport
	rt        http.RoundTripper

	disposeOnce sync.Once
	disposed    atomic.Bool
}

var _ http.RoundTripper = (*Agent)(nil)

func newAgent(v Variant, proxy *url.URL, t *http.Transport, wrap func(http.RoundTripper) http.RoundTripper) *Agent {
	a := &Agent{
		variant:   v,
		proxy:     proxy,
		transport: t,
		rt:        t,
	}
	if wrap != nil {
		a.rt = wrap(t)
	}
	return a
}

func (a *Agent) RoundTrip(r *http.Request) (*http.Response, error) {
	return a.rt.RoundTrip(r)
}

// Dispose closes the idle connections of the agent. Only the first call
// has an effect.
func (a *Agent) Dispose() {
	a.disposeOnce.Do(func() {
		a.disposed.Store(true)
		a.transport.CloseIdleConnections()
	})
}

// Disposed reports whether Dispose was called.
func (a *Agent) Disposed() bool {
	return a.disposed.Load()
}

// Variant returns the flavor the agent was built as.
func (a *Agent) Variant() Variant {
	return a.variant
}

// Proxy returns the proxy the agent tunnels through, or nil.
func (a *Agent) Proxy() *url.URL {
	return a.proxy
}

// Transport returns the underlying transport.
func (a *Agent) Transport() *http.Transport {
	return a.transport
}
