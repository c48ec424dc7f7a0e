package main

import (
	"net/http"

	"github.com/go-logr/logr"

	"github.com/kedacore/http-fetcher/pkg/fetch"
	kedahttp "github.com/kedacore/http-fetcher/pkg/http"
)

// BuildAdminHandler creates the handler of the admin server: the agent
// cache routes, the optional fetch route, and the config and version
// endpoints.
func BuildAdminHandler(lggr logr.Logger, f *fetch.Fetcher, fetchRoute bool, configs ...any) http.Handler {
	mux := http.NewServeMux()

	kedahttp.AddAgentRoutes(lggr, mux, f)
	if fetchRoute {
		kedahttp.AddFetchRoute(lggr, mux, f)
	}
	kedahttp.AddConfigEndpoint(lggr, mux, configs...)
	kedahttp.AddVersionEndpoint(lggr.WithName("fetcherAdmin"), mux)

	return mux
}
