package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/logger"
)

// HeaderRequestID is the header carrying the request id.
const HeaderRequestID = "X-Request-Id"

// RequestID injects a unique X-Request-Id into every request and response and
// stores it in the request context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.New().String()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
