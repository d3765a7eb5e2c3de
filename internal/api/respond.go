package api

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeInternalError logs the real error and masks it with a generic
// message; persistence internals never reach the caller.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("internal error request_id=%s: %v", GetRequestID(r.Context()), err)
	writeError(w, http.StatusInternalServerError, "Server error")
}
