package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/kedacore/http-fetcher/pkg/agent"
	"github.com/kedacore/http-fetcher/pkg/fetch"
)

const fetchPath = "/fetch"

// Fetcher sends requests on behalf of the fetch route.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, o fetch.Options) (*http.Response, error)
}

// FetchResult is the body of a successful fetch route call.
type FetchResult struct {
	URL        string `json:"url"`
	Status     int    `json:"status"`
	Proto      string `json:"proto"`
	Bytes      int64  `json:"bytes"`
	DurationMS int64  `json:"durationMs"`
}

// AddFetchRoute serves GET /fetch, which sends one request through f and
// reports how it went. Query parameters: url (required), method, timeout
// (a Go duration) and noProxy.
func AddFetchRoute(lggr logr.Logger, mux *http.ServeMux, f Fetcher) {
	lggr = lggr.WithName("pkg.http.AddFetchRoute")
	lggr.Info("adding fetch route", "path", fetchPath)
	mux.Handle("GET "+fetchPath, newFetchHandler(lggr, f))
}

func newFetchHandler(lggr logr.Logger, f Fetcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		target := q.Get("url")
		if target == "" {
			writeError(lggr, w, http.StatusBadRequest, errors.New("missing url parameter"))
			return
		}
		o := fetch.Options{Method: q.Get("method")}
		if raw := q.Get("timeout"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				writeError(lggr, w, http.StatusBadRequest, err)
				return
			}
			o.Timeout = d
		}
		if raw := q.Get("noProxy"); raw != "" {
			noProxy, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(lggr, w, http.StatusBadRequest, err)
				return
			}
			o.AgentOptions.NoProxy = noProxy
		}

		start := time.Now()
		resp, err := f.Fetch(r.Context(), target, o)
		if err != nil {
			lggr.V(1).Info("fetch failed", "url", target, "error", err.Error())
			writeError(lggr, w, fetchErrorStatus(err), err)
			return
		}
		defer resp.Body.Close()
		n, err := io.Copy(io.Discard, resp.Body)
		if err != nil {
			writeError(lggr, w, http.StatusBadGateway, err)
			return
		}
		writeJSON(lggr, w, http.StatusOK, FetchResult{
			URL:        target,
			Status:     resp.StatusCode,
			Proto:      resp.Proto,
			Bytes:      n,
			DurationMS: time.Since(start).Milliseconds(),
		})
	})
}

func fetchErrorStatus(err error) int {
	var ce *agent.ConstructionError
	switch {
	case fetch.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeError(lggr logr.Logger, w http.ResponseWriter, status int, err error) {
	writeJSON(lggr, w, status, map[string]string{"error": err.Error()})
}
