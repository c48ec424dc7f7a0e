package agent

import (
	"encoding/json"
)

type cacheKey struct {
	ProxyURL *string `json:"proxyUrl"`
	Origin   string  `json:"origin"`
	Protocol string  `json:"protocol"`
	Options  Options `json:"options"`
}

// CacheKey derives the agent cache key of a request. The resolved proxy is
// part of the key, so the same origin reached directly and through a proxy
// maps to two agents.
func CacheKey(proxy string, t Target, o Options) string {
	k := cacheKey{
		Origin:   t.Origin,
		Protocol: t.Protocol,
		Options:  o,
	}
	if proxy != "" {
		k.ProxyURL = &proxy
	}
	// cannot fail: every field is a string, int or bool
	b, _ := json.Marshal(k)
	return string(b)
}
