package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck reports whether a named subsystem can serve requests.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthBody struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// HealthHandler returns an [http.Handler] for liveness checks at /healthz.
// It always answers 200 with {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, healthBody{Status: healthStatusOK})
	})
}

// ReadyHandler returns an [http.Handler] for readiness checks at /readyz.
// Every check runs; any failure answers 503 and lists the failing names.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		var failed []string

		for _, rc := range checks {
			err := rc.Check(hr.Context())
			if err != nil {
				failed = append(failed, rc.Name)
			}
		}

		if len(failed) > 0 {
			writeHealth(rw, http.StatusServiceUnavailable, healthBody{Status: healthStatusUnavailable, Failed: failed})

			return
		}

		writeHealth(rw, http.StatusOK, healthBody{Status: healthStatusOK})
	})
}

func writeHealth(rw http.ResponseWriter, code int, body healthBody) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	data, err := json.Marshal(body)
	if err != nil {
		return
	}

	_, _ = rw.Write(data)
}
