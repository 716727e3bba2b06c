package respond

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope is the uniform response shape used by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// APIError carries an HTTP status alongside a client-safe message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Constructors for the error taxonomy. Handlers map package sentinel errors
// into these before anything reaches the wire.
func Validation(msg string) *APIError   { return &APIError{Status: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) *APIError { return &APIError{Status: http.StatusUnauthorized, Message: msg} }
func Forbidden(msg string) *APIError    { return &APIError{Status: http.StatusForbidden, Message: msg} }
func NotFound(msg string) *APIError     { return &APIError{Status: http.StatusNotFound, Message: msg} }
func Conflict(msg string) *APIError     { return &APIError{Status: http.StatusConflict, Message: msg} }
func QuotaExceeded(msg string) *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Message: msg}
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes a 200 envelope with data.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// OKMessage writes a 200 envelope with a message and optional data.
func OKMessage(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 envelope with a message and data.
func Created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// List writes a 200 envelope with data and its count.
func List(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

// Error writes an error envelope. Unrecognized errors become opaque 500s so
// persistence details never cross the boundary.
func Error(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, Envelope{Success: false, Error: apiErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
}
