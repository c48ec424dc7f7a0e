package agent

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Target is the part of a request URL that decides which agent serves it.
type Target struct {
	// Origin is scheme://host[:port] with the default port stripped.
	Origin string
	// Protocol is the scheme followed by a colon, e.g. "https:".
	Protocol string
	URL      *url.URL
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// ParseTarget parses rawURL once for the duration of a call.
func ParseTarget(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("parsing request URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Target{}, fmt.Errorf("request URL %q must be absolute", rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == defaultPorts[scheme] {
		port = ""
	}
	hostport := host
	switch {
	case port != "":
		hostport = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		hostport = "[" + host + "]"
	}

	return Target{
		Origin:   scheme + "://" + hostport,
		Protocol: scheme + ":",
		URL:      u,
	}, nil
}

// IsHTTPS reports whether the target is reached over TLS.
func (t Target) IsHTTPS() bool {
	return t.Protocol == "https:"
}
