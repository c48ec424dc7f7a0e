package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"

	"github.com/kedacore/http-fetcher/pkg/agent"
	"github.com/kedacore/http-fetcher/pkg/cache"
)

// Config configures a Fetcher.
type Config struct {
	Logger logr.Logger
	// Family selects the transport family agents are built for, and the
	// Options field they are attached to.
	Family agent.Family
	// AgentCacheSize bounds the agent cache. <= 0 selects cache.DefaultSize.
	AgentCacheSize int
	// DefaultTimeout applies to calls that leave Options.Timeout at 0.
	DefaultTimeout time.Duration
	// AbortCompat resolves an empty 200 response instead of an error when
	// the request function fails with a cancellation, which can only come
	// from the caller's ctx or Signal. The fetcher's own timeout always
	// fails with a *TimeoutError, compat mode or not.
	AbortCompat bool
	// AgentOptions are merged over agent.DefaultOptions for every call.
	AgentOptions agent.Options
	// Transport is agent.DefaultTransportConfig when nil.
	Transport    *agent.TransportConfig
	Proxy        agent.ProxyResolver
	Capabilities agent.Capabilities
	// Wrap decorates every built transport.
	Wrap     func(http.RoundTripper) http.RoundTripper
	Recorder Recorder
}

// Fetcher wraps a request function with agent pooling and request
// timeouts. Each Fetcher owns its agent cache.
type Fetcher struct {
	lggr     logr.Logger
	do       Func
	cfg      Config
	cache    *cache.AgentCache
	resolver *agent.Resolver
	rec      Recorder
	defaults agent.Options
}

// New wraps do, or HTTPDo when do is nil.
func New(do Func, cfg Config) (*Fetcher, error) {
	if do == nil {
		do = HTTPDo
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = noopRecorder{}
	}
	lggr := cfg.Logger.WithName("fetcher")

	c, err := cache.New(cfg.AgentCacheSize, func(key string) {
		rec.RecordAgentDisposal()
		lggr.V(1).Info("disposed agent", "key", key)
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent cache: %w", err)
	}

	tcfg := agent.DefaultTransportConfig()
	if cfg.Transport != nil {
		tcfg = *cfg.Transport
	}
	resolver, err := agent.NewResolver(agent.ResolverConfig{
		Logger:       lggr,
		Family:       cfg.Family,
		Cache:        c,
		Proxy:        cfg.Proxy,
		Transport:    tcfg,
		Capabilities: cfg.Capabilities,
		Wrap:         cfg.Wrap,
		OnLookup:     rec.RecordCacheLookup,
	})
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		lggr:     lggr,
		do:       do,
		cfg:      cfg,
		cache:    c,
		resolver: resolver,
		rec:      rec,
		defaults: agent.DefaultOptions().Merge(cfg.AgentOptions),
	}, nil
}

// Fetch sends a request to rawURL through the request function.
//
// Unless o already carries a handle for the fetcher's family, the agent for
// rawURL is resolved first; resolution errors are returned before any
// network activity. ctx bounds the resolution and, when o.Signal is nil,
// the request itself. A request that does not settle within its timeout
// fails with a *TimeoutError; its response, should one arrive later, is
// closed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, o Options) (*http.Response, error) {
	o.Method = o.method()
	switch {
	case o.Timeout == 0:
		o.Timeout = f.cfg.DefaultTimeout
	case o.Timeout < 0:
		o.Timeout = 0
	}
	host := hostOf(rawURL)

	if err := f.attachAgent(ctx, rawURL, &o); err != nil {
		f.rec.RecordFetch(o.Method, host, OutcomeError)
		return nil, err
	}

	resp, outcome, err := f.send(ctx, rawURL, o)
	f.rec.RecordFetch(o.Method, host, outcome)
	return resp, err
}

func (f *Fetcher) attachAgent(ctx context.Context, rawURL string, o *Options) error {
	slot := &o.Agent
	if f.resolver.Family() == agent.FamilyDispatcher {
		slot = &o.Dispatcher
	}
	if *slot != nil {
		return nil
	}
	h, err := f.resolver.Resolve(ctx, rawURL, f.defaults.Merge(o.AgentOptions))
	if err != nil {
		return err
	}
	*slot = h
	return nil
}

// settle turns the result of the request function into the result of
// Fetch.
func (f *Fetcher) settle(o Options, resp *http.Response, err error) (*http.Response, Outcome, error) {
	if err == nil {
		return resp, OutcomeCompleted, nil
	}
	if f.cfg.AbortCompat && isAbort(err) {
		f.lggr.V(1).Info("request cancelled, resolving empty response", "method", o.Method, "error", err.Error())
		return emptyResponse(), OutcomeAborted, nil
	}
	return nil, OutcomeError, err
}

// ClearCache disposes every pooled agent. It is safe to call at any time.
func (f *Fetcher) ClearCache() {
	n := f.cache.Len()
	f.cache.Clear()
	f.lggr.Info("cleared agent cache", "agents", n)
}

// CacheStats returns the counters of the agent cache.
func (f *Fetcher) CacheStats() cache.Stats {
	return f.cache.Stats()
}

// Agents returns the cache keys of the pooled agents, least recently used
// first.
func (f *Fetcher) Agents() []string {
	return f.cache.Keys()
}

// Family returns the transport family of the fetcher.
func (f *Fetcher) Family() agent.Family {
	return f.resolver.Family()
}

func emptyResponse() *http.Response {
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Body:       http.NoBody,
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
