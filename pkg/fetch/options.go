package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kedacore/http-fetcher/pkg/agent"
)

// NoTimeout, or any other negative Options.Timeout, turns timeout
// enforcement off for a single call.
const NoTimeout time.Duration = -1

// Options configures one Fetch call.
type Options struct {
	// Method defaults to GET.
	Method string
	Header http.Header
	Body   io.Reader
	// Timeout bounds the request. 0 falls back to the fetcher's default
	// timeout, which disables enforcement unless configured. NoTimeout
	// disables enforcement for this call regardless of the default.
	Timeout time.Duration
	// AgentOptions tune the agent the fetcher resolves. They are merged over
	// the fetcher's defaults.
	AgentOptions agent.Options
	// Agent is the transport handle of the classic family. When set on a
	// classic fetcher, no agent is resolved.
	Agent http.RoundTripper
	// Dispatcher is the transport handle of the dispatcher family. When set
	// on a dispatcher fetcher, no agent is resolved.
	Dispatcher http.RoundTripper
	// Signal cancels the request. A caller-supplied Signal is never
	// cancelled by the fetcher; when it is nil the fetcher attaches its own.
	Signal context.Context
}

func (o Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

// Func is a request function the fetcher wraps. It must honor o.Signal and
// send the request through o.Agent or o.Dispatcher.
type Func func(rawURL string, o *Options) (*http.Response, error)

// HTTPDo is the default Func. It sends the request with an http.Client
// whose transport is o.Dispatcher, else o.Agent, else
// http.DefaultTransport.
func HTTPDo(rawURL string, o *Options) (*http.Response, error) {
	ctx := o.Signal
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, o.method(), rawURL, o.Body)
	if err != nil {
		return nil, err
	}
	for name, values := range o.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	var rt http.RoundTripper = http.DefaultTransport
	switch {
	case o.Dispatcher != nil:
		rt = o.Dispatcher
	case o.Agent != nil:
		rt = o.Agent
	}
	client := &http.Client{Transport: rt}
	return client.Do(req)
}
