package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/fitmate/internal/telemetry/metrics"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a panicking handler into a 500 response. The panic is
// logged, counted and reported to sentry (a no-op when sentry is not set up).
// http.ErrAbortHandler is re-panicked, net/http uses it to abort a response.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(r)
				}

				log.WithFields(log.Fields{
					"method":  req.Method,
					"path":    req.URL.Path,
					"user_id": mux.Vars(req)["id"],
				}).Errorf("http: panic serving request: %v\n%s", r, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				hub := sentry.GetHubFromContext(req.Context())
				if hub == nil {
					hub = sentry.CurrentHub().Clone()
				}
				hub.RecoverWithContext(req.Context(), r)

				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, req)
		})
	}
}
