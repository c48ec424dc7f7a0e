package fetch

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"
)

type result struct {
	resp *http.Response
	err  error
}

// send runs the request function, racing it against the timeout when one
// is set.
func (f *Fetcher) send(ctx context.Context, rawURL string, o Options) (*http.Response, Outcome, error) {
	var cancel context.CancelCauseFunc
	if o.Signal == nil {
		if o.Timeout <= 0 {
			o.Signal = ctx
		} else {
			o.Signal, cancel = context.WithCancelCause(ctx)
		}
	}

	if o.Timeout <= 0 {
		resp, err := f.do(rawURL, &o)
		return f.settle(o, resp, err)
	}

	results := make(chan result, 1)
	call := o
	go func() {
		resp, err := f.do(rawURL, &call)
		results <- result{resp: resp, err: err}
	}()

	timer := time.NewTimer(o.Timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if cancel != nil {
			if res.err != nil || res.resp == nil || res.resp.Body == nil {
				cancel(nil)
			} else {
				res.resp.Body = &cancelOnClose{ReadCloser: res.resp.Body, cancel: cancel}
			}
		}
		return f.settle(o, res.resp, res.err)
	case <-timer.C:
		if cancel != nil {
			cancel(ErrInternalAbort)
		}
		go discard(results)
		f.lggr.V(1).Info("request timed out", "method", o.Method, "url", rawURL, "timeout", o.Timeout.String())
		return nil, OutcomeTimeout, &TimeoutError{Method: o.Method, URL: rawURL, Timeout: o.Timeout}
	}
}

// discard waits for a request that lost the race against its timeout and
// releases its response.
func discard(results <-chan result) {
	res := <-results
	if res.resp != nil && res.resp.Body != nil {
		res.resp.Body.Close()
	}
}

// cancelOnClose releases the fetcher's signal once the caller is done with
// the body. Cancelling earlier would abort reading it.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelCauseFunc
	once   sync.Once
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() { b.cancel(nil) })
	return err
}
