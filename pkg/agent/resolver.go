package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/kedacore/http-fetcher/pkg/cache"
)

// maxResolveAttempts bounds how often Resolve starts over after the agent it
// obtained was disposed by a concurrent clear or eviction. The last attempt
// hands out what it got: disposal only closes idle connections, so the agent
// still serves requests.
const maxResolveAttempts = 3

// ResolverConfig contains the dependencies of a Resolver.
type ResolverConfig struct {
	Logger logr.Logger
	// Family is the transport family every agent is built for.
	Family Family
	// Cache stores the agents. A cache of cache.DefaultSize is created when
	// nil.
	Cache *cache.AgentCache
	// Proxy resolves proxies. EnvProxyResolver is used when nil.
	Proxy ProxyResolver
	// Transport is shared by every built transport.
	Transport TransportConfig
	// Capabilities overrides DefaultCapabilities.
	Capabilities Capabilities
	// Wrap, if set, decorates every built transport, e.g. for tracing.
	Wrap func(http.RoundTripper) http.RoundTripper
	// OnLookup, if set, observes every cache lookup.
	OnLookup func(hit bool)
}

// Resolver hands out cached agents for request URLs, building one on the
// first request for a cache key.
type Resolver struct {
	lggr     logr.Logger
	family   Family
	cache    *cache.AgentCache
	proxy    ProxyResolver
	tcfg     TransportConfig
	caps     Capabilities
	wrap     func(http.RoundTripper) http.RoundTripper
	onLookup func(hit bool)

	flights singleflight.Group
	// constructed runs after every successful construction, before the
	// disposal check. Tests use it to race a cache clear.
	constructed func(h http.RoundTripper)
}

// NewResolver creates a Resolver from cfg.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	c := cfg.Cache
	if c == nil {
		var err error
		c, err = cache.New(cache.DefaultSize, nil)
		if err != nil {
			return nil, fmt.Errorf("creating agent cache: %w", err)
		}
	}
	proxy := cfg.Proxy
	if proxy == nil {
		proxy = EnvProxyResolver{}
	}
	caps := cfg.Capabilities
	if caps == nil {
		caps = DefaultCapabilities()
	}
	return &Resolver{
		lggr:     cfg.Logger.WithName("agentResolver"),
		family:   cfg.Family,
		cache:    c,
		proxy:    proxy,
		tcfg:     cfg.Transport,
		caps:     caps,
		wrap:     cfg.Wrap,
		onLookup: cfg.OnLookup,
	}, nil
}

// Family returns the transport family of the agents the resolver builds.
func (r *Resolver) Family() Family {
	return r.family
}

// Cache returns the agent cache of the resolver.
func (r *Resolver) Cache() *cache.AgentCache {
	return r.cache
}

// Resolve returns the agent serving rawURL with options o. Agents are cached
// by resolved proxy, origin, protocol and options; a cache hit returns the
// cached instance as is. Construction errors are returned before any
// network activity.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, o Options) (http.RoundTripper, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	var proxy string
	if !o.NoProxy {
		proxy = r.proxy.ProxyForURL(target.URL)
	}
	key := CacheKey(proxy, target, o)

	for attempt := 1; ; attempt++ {
		if h, ok := r.cache.Get(key); ok && !isDisposed(h) {
			r.observe(true)
			return h, nil
		}
		r.observe(false)

		h, err := r.construct(ctx, key, target, proxy, o)
		if err != nil {
			return nil, err
		}
		if r.constructed != nil {
			r.constructed(h)
		}
		// the cache may have been cleared while this call waited on the
		// construction
		if !isDisposed(h) {
			return h, nil
		}
		if attempt == maxResolveAttempts {
			r.lggr.V(1).Info("agent disposed on every attempt, using it uncached", "origin", target.Origin)
			return h, nil
		}
		r.lggr.V(1).Info("agent disposed during resolution, retrying", "origin", target.Origin)
	}
}

// construct builds the agent for key, sharing one construction between
// concurrent callers.
func (r *Resolver) construct(ctx context.Context, key string, target Target, proxy string, o Options) (http.RoundTripper, error) {
	ch := r.flights.DoChan(key, func() (any, error) {
		if h, ok := r.cache.Peek(key); ok && !isDisposed(h) {
			return h, nil
		}
		a, err := r.build(target, proxy, o)
		if err != nil {
			return nil, err
		}
		actual, added := r.cache.GetOrAdd(key, a)
		if !added {
			a.Dispose()
		} else {
			r.lggr.V(1).Info(
				"created agent",
				"origin", target.Origin,
				"variant", a.Variant().String(),
				"proxied", a.Proxy() != nil,
			)
		}
		return actual, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(http.RoundTripper), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Resolver) build(target Target, proxy string, o Options) (*Agent, error) {
	v := Variant{Family: r.family, Proxied: proxy != ""}

	var proxyURL *url.URL
	if v.Proxied {
		var err error
		proxyURL, err = parseProxyURL(proxy)
		if err != nil {
			return nil, &ConstructionError{Family: r.family, Proxy: redactProxy(proxy), Err: err}
		}
	}

	capability := r.caps.lookup(v)
	if !capability.Available {
		if v.Proxied {
			return nil, &ConstructionError{
				Family: r.family,
				Proxy:  proxyURL.Redacted(),
				Err:    fmt.Errorf("%w: %s", ErrCapabilityUnavailable, v),
			}
		}
		// direct connections never need the optional capability, fall back
		// to the classic flavor
		v = Variant{Family: FamilyClassic}
		capability = r.caps.lookup(v)
		if !capability.Available {
			capability = Available(BuildClassic)
		}
		r.lggr.V(1).Info("family unavailable for direct connections, using classic", "family", r.family.String(), "origin", target.Origin)
	}

	t, err := capability.Build(r.tcfg, Translate(o, v.Family), proxyURL)
	if err != nil {
		ce := &ConstructionError{Family: v.Family, Err: err}
		if proxyURL != nil {
			ce.Proxy = proxyURL.Redacted()
		}
		return nil, ce
	}
	return newAgent(v, proxyURL, t, r.wrap), nil
}

func (r *Resolver) observe(hit bool) {
	if r.onLookup != nil {
		r.onLookup(hit)
	}
}

func isDisposed(h http.RoundTripper) bool {
	d, ok := h.(interface{ Disposed() bool })
	return ok && d.Disposed()
}
