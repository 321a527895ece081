package httpmw

import (
	"crypto/subtle"
	"net/http"
)

// CronKey guards the sweep endpoint with a shared bearer key. An empty key
// disables the endpoint.
func CronKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				WriteError(w, http.StatusForbidden, "cron endpoint disabled")
				return
			}
			got, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				WriteError(w, http.StatusUnauthorized, "invalid cron key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
