package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/kedacore/http-fetcher/pkg/build"
)

// AddConfigEndpoint serves configs as JSON on /config.
func AddConfigEndpoint(lggr logr.Logger, mux *http.ServeMux, configs ...any) {
	mux.HandleFunc("GET /config", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(lggr, w, http.StatusOK, map[string]any{
			"configs": configs,
		})
	})
}

func AddVersionEndpoint(lggr logr.Logger, mux *http.ServeMux) {
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(lggr, w, http.StatusOK, map[string]any{
			"version": build.Version(),
		})
	})
}

func writeJSON(lggr logr.Logger, w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		lggr.Error(err, "failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(err.Error())); err != nil {
			lggr.Error(err, "could not send error message to client")
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		lggr.Error(err, "could not send response to client")
	}
}
