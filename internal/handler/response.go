package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "message": "product not found with id 42"}
//
// so the frontend always knows what fields to expect, whether it's a 400,
// 401, 404, or 500.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/game-store/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — w.Write flushes them.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// The service layer returns apperror values (ErrValidation, ErrNotFound,
// ErrUnauthorized, ErrConflict); this is the single place they become HTTP
// status codes. Anything unrecognised is a 500 with a generic message — raw
// error text can contain SQL or file paths and never reaches the client.
//
// A store call that ran out its deadline maps to 503: the request failed
// because a dependency was slow, not because the input was bad.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: "The service is temporarily unavailable, try again later",
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
