package json

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Write(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	})
}

func WriteNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, "no such endpoint")
}
