package http

import (
	"net/http"
	"time"
)

// DelayMiddleware holds every request for d before handling it. The original
// deployment shipped with a fixed 2s pause in front of the API as a demo
// throttle; it is kept here as an explicit, configurable middleware.
// A zero or negative d disables it.
func DelayMiddleware(d time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-r.Context().Done():
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
