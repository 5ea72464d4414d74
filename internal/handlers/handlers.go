package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"portfolio-server/internal/types"
)

// sendJSON writes v as a JSON response with the given status
func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

// sendError sends an error response
func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, types.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
