package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"fulfillment-console/internal/app"
	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service-layer failures onto the error envelope.
// Local precondition failures never reached the backend and come back as
// 422; backend rejections pass the backend's own detail message through;
// anything else is a transport-level failure the operator retries manually.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEmptySelection),
		errors.Is(err, core.ErrNonPositiveFreight),
		errors.Is(err, core.ErrMissingTracking),
		errors.Is(err, core.ErrNonPositiveQty),
		errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, app.ErrUnknownCategory):
		writeError(w, r, err.Error(), "PRECONDITION", http.StatusUnprocessableEntity)
	case errors.Is(err, app.ErrStaleItem), errors.Is(err, app.ErrOrderNotFound):
		writeError(w, r, err.Error(), "STALE_SNAPSHOT", http.StatusConflict)
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = "request rejected by order backend"
			}
			writeError(w, r, message, "BACKEND_REJECTED", apiErr.StatusCode)
			return
		}
		writeError(w, r, err.Error(), "BACKEND_UNAVAILABLE", http.StatusBadGateway)
	}
}
