package agent

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFamiliesNegotiateProtocols(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Proto)
	}))
	srv.EnableHTTP2 = true
	srv.StartTLS()
	defer srv.Close()

	roots := srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs

	tests := map[string]struct {
		family Family
		proto  string
	}{
		"classic speaks HTTP/1.1": {
			family: FamilyClassic,
			proto:  "HTTP/1.1",
		},
		"dispatcher negotiates HTTP/2": {
			family: FamilyDispatcher,
			proto:  "HTTP/2.0",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := require.New(t)
			tcfg := DefaultTransportConfig()
			tcfg.TLSClientConfig = &tls.Config{RootCAs: roots}
			res := newTestResolver(t, ResolverConfig{Family: tt.family, Transport: tcfg})

			h, err := res.Resolve(context.Background(), srv.URL, DefaultOptions())
			r.NoError(err)
			client := &http.Client{Transport: h}
			resp, err := client.Get(srv.URL)
			r.NoError(err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			r.NoError(err)
			r.Equal(tt.proto, string(body))
		})
	}
}
