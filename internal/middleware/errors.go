package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
)

var httpStatus = map[connect.Code]int{
	connect.CodeInvalidArgument:    http.StatusBadRequest,
	connect.CodeUnauthenticated:    http.StatusUnauthorized,
	connect.CodePermissionDenied:   http.StatusForbidden,
	connect.CodeNotFound:           http.StatusNotFound,
	connect.CodeAlreadyExists:      http.StatusConflict,
	connect.CodeResourceExhausted:  http.StatusTooManyRequests,
	connect.CodeFailedPrecondition: http.StatusPreconditionFailed,
	connect.CodeUnimplemented:      http.StatusNotImplemented,
	connect.CodeUnavailable:        http.StatusServiceUnavailable,
}

// HTTPStatus maps a connect code to the HTTP status used by REST routes.
func HTTPStatus(code connect.Code) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError writes err as a JSON body {"code": ..., "message": ...}.
// Internal and unknown errors are logged and answered with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := CodeOf(err)
	msg := err.Error()
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		msg = connectErr.Message()
	}
	if code == connect.CodeInternal || code == connect.CodeUnknown {
		slog.Error("Request failed", "code", code.String(), "error", err)
		msg = "internal error"
	}
	WriteJSON(w, HTTPStatus(code), map[string]string{
		"code":    code.String(),
		"message": msg,
	})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
