package billing

import (
	"encoding/json"
	"net/http"

	"github.com/pricewise/plus/pkg/entitlement"
)

// envelope is the uniform response shape. Success responses carry data,
// failures carry a stable error code plus a human-readable message.
type envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    entitlement.Code `json:"code"`
	Message string           `json:"message"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	code := entitlement.CodeOf(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpStatusOf(code))
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &errorDetail{Code: code, Message: messageOf(code, err)},
	})
}

func httpStatusOf(code entitlement.Code) int {
	switch code {
	case entitlement.CodeUnauthenticated:
		return http.StatusUnauthorized
	case entitlement.CodeNotFound:
		return http.StatusNotFound
	case entitlement.CodeInvalidArgument:
		return http.StatusBadRequest
	case entitlement.CodeConflict:
		return http.StatusConflict
	case entitlement.CodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageOf keeps internal failure details out of responses; everything
// else is safe to show as-is.
func messageOf(code entitlement.Code, err error) string {
	if code == entitlement.CodeInternal {
		return "internal error"
	}
	return err.Error()
}
