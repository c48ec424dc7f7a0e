package fetch

import (
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/kedacore/http-fetcher/pkg/agent"
)

func newTestFetcher(t *testing.T, do Func, cfg Config) *Fetcher {
	t.Helper()
	if cfg.Proxy == nil {
		cfg.Proxy = agent.NoProxy
	}
	cfg.Logger = logr.Discard()
	f, err := New(do, cfg)
	require.NoError(t, err)
	return f
}

type fakeRecorder struct {
	mu        sync.Mutex
	outcomes  []Outcome
	hits      int
	misses    int
	disposals atomic.Int32
}

func (r *fakeRecorder) RecordFetch(_, _ string, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *fakeRecorder) RecordAgentDisposal() {
	r.disposals.Add(1)
}

func (r *fakeRecorder) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

type stubTransport struct{}

func (*stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return noContent(), nil
}

func noContent() *http.Response {
	return &http.Response{
		StatusCode: http.StatusNoContent,
		Header:     http.Header{},
		Body:       http.NoBody,
	}
}

type trackingBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackingBody) Close() error {
	b.closed.Store(true)
	return nil
}

// capture records the Options each call receives and answers 204.
type capture struct {
	mu    sync.Mutex
	calls []Options
}

func (c *capture) do(_ string, o *Options) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, *o)
	return noContent(), nil
}

func (c *capture) last() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}
