package agent

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrCapabilityUnavailable reports that the active family cannot build
	// the transport flavor a request needs.
	ErrCapabilityUnavailable = errors.New("transport capability unavailable")
)

// ConstructionError reports that no agent could be built for a request. It
// is returned before any network activity.
type ConstructionError struct {
	Family Family
	// Proxy is the redacted proxy URL the agent needed, empty for direct
	// connections.
	Proxy string
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Proxy == "" {
		return fmt.Sprintf("constructing %s agent: %v", e.Family, e.Err)
	}
	if errors.Is(e.Err, ErrCapabilityUnavailable) {
		return fmt.Sprintf("%s transports cannot reach proxy %s: %v", e.Family, e.Proxy, e.Err)
	}
	return fmt.Sprintf("constructing %s agent for proxy %s: %v", e.Family, e.Proxy, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func parseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL: missing host")
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("invalid proxy URL: unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

func redactProxy(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparsable>"
	}
	return u.Redacted()
}
