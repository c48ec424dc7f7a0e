package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Serving is configuration for how the fetcher serves its admin server
type Serving struct {
	// AdminPort is the port the admin server, with the agent and fetch
	// routes, runs on
	AdminPort int `envconfig:"FETCH_ADMIN_PORT" default:"9090"`
	// EnableFetchRoute exposes GET /fetch on the admin server
	EnableFetchRoute bool `envconfig:"FETCH_ADMIN_FETCH_ROUTE_ENABLED" default:"true"`
}

// MustParseServing parses the serving configuration from the environment
// and panics if that fails
func MustParseServing() *Serving {
	ret := new(Serving)
	envconfig.MustProcess("", ret)
	return ret
}
