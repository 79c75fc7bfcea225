package api

import (
	"encoding/json"
	"net/http"

	"labportal/internal/fault"
)

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: APIError{Code: code, Message: message},
	})
}

// WriteFault maps a workflow failure to its HTTP status. Guard-condition
// messages are surfaced verbatim; unexpected errors get a generic 500.
func WriteFault(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case fault.NotFoundError:
		WriteError(w, http.StatusNotFound, e.Code, e.Message)
	case fault.ForbiddenError:
		WriteError(w, http.StatusForbidden, e.Code, e.Message)
	case fault.ValidationError:
		WriteError(w, http.StatusBadRequest, e.Code, e.Message)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
