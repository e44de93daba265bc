package respond

import (
	"encoding/json"
	"net/http"
)

// Error codes shared by every handler. Clients dispatch on code, not on the
// message text.
const (
	CodeInvalidRequest      = "InvalidRequest"
	CodeAuthenticationError = "AuthenticationError"
	CodeAuthorizationError  = "AuthorizationError"
	CodeNotFound            = "NotFound"
	CodeConflict            = "Conflict"
	CodeTooManyRequests     = "TooManyRequests"
	CodeServerError         = "ServerError"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, errorBody{Code: code, Message: message})
}

func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeServerError, "Internal server error")
}
