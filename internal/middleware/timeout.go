package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

const defaultRequestTimeout = 15 * time.Second

// Timeout bounds the handler chain. A request that runs out of time gets a
// 503 in the usual error envelope.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	body, _ := json.Marshal(model.APIResponse{
		Status:  model.StatusError,
		Code:    apierror.CodeRequestTimeout,
		Message: "request timed out",
	})

	return func(next http.Handler) http.Handler {
		limited := http.TimeoutHandler(next, timeout, string(body))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Replaced by the handler's own Content-Type when it sets one.
			w.Header().Set("Content-Type", "application/json")
			limited.ServeHTTP(w, r)
		})
	}
}
