package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"

	"github.com/kedacore/http-fetcher/pkg/cache"
)

const (
	agentsPath      = "/agents"
	clearAgentsPath = "/agents/clear"
)

// AgentAdmin is the management surface of a fetcher's agent cache.
type AgentAdmin interface {
	CacheStats() cache.Stats
	Agents() []string
	ClearCache()
}

// AgentsReport is the body of the agents routes.
type AgentsReport struct {
	Stats cache.Stats `json:"stats"`
	Keys  []string    `json:"keys"`
}

// AddAgentRoutes serves the agent cache report on GET /agents and clears
// the cache on POST /agents/clear.
func AddAgentRoutes(lggr logr.Logger, mux *http.ServeMux, admin AgentAdmin) {
	lggr = lggr.WithName("pkg.http.AddAgentRoutes")
	lggr.Info("adding agent routes", "path", agentsPath)
	mux.Handle("GET "+agentsPath, newAgentsHandler(lggr, admin))
	mux.Handle("POST "+clearAgentsPath, newClearAgentsHandler(lggr, admin))
}

func report(admin AgentAdmin) AgentsReport {
	keys := admin.Agents()
	if keys == nil {
		keys = []string{}
	}
	return AgentsReport{Stats: admin.CacheStats(), Keys: keys}
}

func newAgentsHandler(lggr logr.Logger, admin AgentAdmin) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(lggr, w, http.StatusOK, report(admin))
	})
}

func newClearAgentsHandler(lggr logr.Logger, admin AgentAdmin) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		admin.ClearCache()
		writeJSON(lggr, w, http.StatusOK, report(admin))
	})
}

// GetAgents requests the agent report from the admin server at adminURL.
func GetAgents(httpCl *http.Client, adminURL url.URL) (*AgentsReport, error) {
	adminURL.Path = agentsPath
	resp, err := httpCl.Get(adminURL.String())
	if err != nil {
		return nil, fmt.Errorf("requesting agents from %s: %w", adminURL.String(), err)
	}
	return decodeReport(resp, adminURL)
}

// ClearAgents asks the admin server at adminURL to clear its agent cache
// and returns the report taken afterwards.
func ClearAgents(httpCl *http.Client, adminURL url.URL) (*AgentsReport, error) {
	adminURL.Path = clearAgentsPath
	resp, err := httpCl.Post(adminURL.String(), "", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("clearing agents at %s: %w", adminURL.String(), err)
	}
	return decodeReport(resp, adminURL)
}

func decodeReport(resp *http.Response, adminURL url.URL) (*AgentsReport, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, adminURL.String())
	}
	rep := new(AgentsReport)
	if err := json.NewDecoder(resp.Body).Decode(rep); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", adminURL.String(), err)
	}
	return rep, nil
}
