package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the process is serving requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// HealthHandler returns an HTTP handler that serves the aggregate Response.
// A down process answers 503; healthy and unhealthy answer 200.
func HealthHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := reg.HealthResponse(r.Context())
		writeJSON(w, StatusCode(response.Status), response)
	}
}

// IntegrationHandler returns an HTTP handler for a single integration.
// The integration name is read from the {name} path value.
func IntegrationHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		// Evaluate everything so the single view matches /health.
		_ = reg.HealthResponse(r.Context())

		report, ok := reg.Integration(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": ErrIntegrationNotFound.Error(),
			})
			return
		}

		code := http.StatusOK
		if report.Status == StatusFail && !report.Optional {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

// ResetHandler returns an HTTP handler that clears all error histories.
// Only POST is accepted. Callers are expected to protect it.
func ResetHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
				"error": "method not allowed",
			})
			return
		}
		reg.ResetAllErrors()
		w.WriteHeader(http.StatusNoContent)
	}
}

// StatusCode maps an overall status to an HTTP status code.
func StatusCode(o Overall) int {
	if o == OverallDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// RegisterHandlers registers the public health handlers on the given mux.
func RegisterHandlers(mux *http.ServeMux, reg *Registry) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /health", HealthHandler(reg))
	mux.HandleFunc("GET /health/{name}", IntegrationHandler(reg))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
