package agent

import (
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// ProxyResolver decides which proxy, if any, serves a request URL. An empty
// result means a direct connection. Implementations never fail: a proxy
// value that cannot be used surfaces when the agent is constructed.
type ProxyResolver interface {
	ProxyForURL(u *url.URL) string
}

// ProxyFunc adapts a function to a ProxyResolver.
type ProxyFunc func(u *url.URL) string

func (f ProxyFunc) ProxyForURL(u *url.URL) string {
	return f(u)
}

// NoProxy never selects a proxy.
var NoProxy ProxyResolver = ProxyFunc(func(*url.URL) string { return "" })

// probeProxy stands in for a configured proxy value httpproxy could not
// parse, to learn whether the request would have been proxied.
const probeProxy = "http://proxy.invalid"

// EnvProxyResolver resolves proxies from HTTP_PROXY, HTTPS_PROXY and
// NO_PROXY (or their lowercase forms). The environment is read on every
// call, unlike http.ProxyFromEnvironment which reads it once per process.
type EnvProxyResolver struct{}

var _ ProxyResolver = EnvProxyResolver{}

func (EnvProxyResolver) ProxyForURL(u *url.URL) string {
	cfg := httpproxy.FromEnvironment()
	proxyURL, err := cfg.ProxyFunc()(u)
	if err == nil && proxyURL != nil {
		return proxyURL.String()
	}

	raw := configuredProxy(cfg, u)
	if raw == "" {
		return ""
	}
	// httpproxy silently drops values it cannot parse. If the request would
	// have been proxied, hand the raw value on so agent construction
	// rejects it instead of connecting directly.
	probe := *cfg
	setConfiguredProxy(&probe, u, probeProxy)
	if p, err := probe.ProxyFunc()(u); err != nil || p == nil {
		return ""
	}
	return raw
}

func configuredProxy(cfg *httpproxy.Config, u *url.URL) string {
	if u.Scheme == "https" {
		return cfg.HTTPSProxy
	}
	return cfg.HTTPProxy
}

func setConfiguredProxy(cfg *httpproxy.Config, u *url.URL, proxy string) {
	if u.Scheme == "https" {
		cfg.HTTPSProxy = proxy
		return
	}
	cfg.HTTPProxy = proxy
}
