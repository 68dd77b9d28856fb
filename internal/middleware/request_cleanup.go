package middleware

import (
	"io"
	"net/http"
)

// MaxRequestBodyBytes caps what handlers can read from a request body.
// Profiles, feedback and chat messages are all well below it.
const MaxRequestBodyBytes = 1 << 20

// DrainAndCloseRequest limits the request body to maxBodyBytes for the handlers
// down the chain, and drains whatever they left unread before closing it, so
// the connection can be reused.
func DrainAndCloseRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
