package middleware

import (
	"net/http"

	"github.com/learnportal/backend/internal/apperrors"
)

// RequestSizeLimitMiddleware rejects bodies declared larger than maxBytes and caps the rest while reading
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				tooLarge := apperrors.Clone(apperrors.ErrValidation, "request body too large")
				tooLarge.Status = http.StatusRequestEntityTooLarge
				writeError(w, tooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
