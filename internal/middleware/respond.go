package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/learnportal/backend/internal/apperrors"
)

// writeError writes the error body shared with the handlers package: {"error": ..., "code": ...}
func writeError(w http.ResponseWriter, e *apperrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
