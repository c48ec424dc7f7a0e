package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := map[string]struct {
		raw      string
		origin   string
		protocol string
	}{
		"http with port": {
			raw:      "http://127.0.0.1:8080/path?q=1",
			origin:   "http://127.0.0.1:8080",
			protocol: "http:",
		},
		"default port is stripped": {
			raw:      "https://Example.COM:443/a",
			origin:   "https://example.com",
			protocol: "https:",
		},
		"ipv6 without port": {
			raw:      "http://[::1]/",
			origin:   "http://[::1]",
			protocol: "http:",
		},
		"ipv6 with port": {
			raw:      "http://[::1]:9000/",
			origin:   "http://[::1]:9000",
			protocol: "http:",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := require.New(t)
			target, err := ParseTarget(tt.raw)
			r.NoError(err)
			r.Equal(tt.origin, target.Origin)
			r.Equal(tt.protocol, target.Protocol)
			r.Equal(tt.raw, target.URL.String())
		})
	}
}

func TestParseTargetRejectsRelativeURLs(t *testing.T) {
	r := require.New(t)
	_, err := ParseTarget("/relative")
	r.Error(err)
	_, err = ParseTarget("http://[::1")
	r.Error(err)
}
