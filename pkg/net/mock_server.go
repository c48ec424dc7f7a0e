package net

import (
	stdnet "net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
)

type TestHTTPHandlerWrapper struct {
	rwm              *sync.RWMutex
	hdl              http.Handler
	incomingRequests []http.Request
}

func (t *TestHTTPHandlerWrapper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.rwm.Lock()
	t.incomingRequests = append(t.incomingRequests, *r)
	t.rwm.Unlock()
	t.hdl.ServeHTTP(w, r)
}

// IncomingRequests returns a copy slice of all the requests that have been received before
// this function was called.
func (t *TestHTTPHandlerWrapper) IncomingRequests() []http.Request {
	t.rwm.RLock()
	defer t.rwm.RUnlock()
	retSlice := make([]http.Request, len(t.incomingRequests))
	copy(retSlice, t.incomingRequests)
	return retSlice
}

func NewTestHTTPHandlerWrapper(hdl http.Handler) *TestHTTPHandlerWrapper {
	return &TestHTTPHandlerWrapper{
		rwm:              new(sync.RWMutex),
		hdl:              hdl,
		incomingRequests: nil,
	}
}

// StartTestServer starts an *httptest.Server, parses its URL, and returns both values.
// The caller is responsible for closing the returned server
func StartTestServer(hdl http.Handler) (*httptest.Server, *url.URL, error) {
	srv := httptest.NewServer(hdl)
	u, err := url.Parse(srv.URL)
	if err != nil {
		srv.Close()
		return nil, nil, err
	}
	return srv, u, nil
}

// ConnCounter counts the TCP connections a test server accepted.
type ConnCounter struct {
	n atomic.Int64
}

// Count returns the number of connections accepted so far.
func (c *ConnCounter) Count() int64 {
	return c.n.Load()
}

// Reset sets the count back to zero.
func (c *ConnCounter) Reset() {
	c.n.Store(0)
}

func (c *ConnCounter) connState(_ stdnet.Conn, state http.ConnState) {
	if state == http.StateNew {
		c.n.Add(1)
	}
}

// StartCountingTestServer is StartTestServer with a ConnCounter attached to
// the server's connection state hook.
func StartCountingTestServer(hdl http.Handler) (*httptest.Server, *url.URL, *ConnCounter, error) {
	counter := new(ConnCounter)
	srv := httptest.NewUnstartedServer(hdl)
	srv.Config.ConnState = counter.connState
	srv.Start()
	u, err := url.Parse(srv.URL)
	if err != nil {
		srv.Close()
		return nil, nil, nil, err
	}
	return srv, u, counter, nil
}
