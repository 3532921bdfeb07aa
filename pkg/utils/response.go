package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/aegatekeeper/backend/internal/apperr"
)

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError writes a JSON error body.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondAppError maps an error through the taxonomy: validation and config
// errors go out verbatim as 400s, everything else as a 500 with the
// classified message.
func RespondAppError(w http.ResponseWriter, err error) {
	RespondError(w, apperr.Status(err), err.Error())
}
