package apierr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	CodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

const internalMessage = "Internal server error"

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// Responder writes error responses. Server-side failures are logged in full;
// their detail only reaches the client when ExposeInternal is set, which is
// meant for development deployments.
type Responder struct {
	Logger         *slog.Logger
	ExposeInternal bool
}

// NewResponder creates a Responder
func NewResponder(logger *slog.Logger, exposeInternal bool) *Responder {
	return &Responder{Logger: logger, ExposeInternal: exposeInternal}
}

// WriteError writes an error response to the response writer
func (rs *Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)

	if he.status >= http.StatusInternalServerError {
		rs.Logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", he.status),
			slog.String("error", err.Error()),
		)
		if rs.ExposeInternal {
			he.apiError.Message = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError. The result is always a
// fresh value so callers may modify it.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		out := *he
		return &out
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{CodeValidationError, ve.Error(), ve.Field}}
	}

	switch {
	case errors.Is(err, model.ErrDuplicateUsername):
		return &httpError{http.StatusConflict, APIError{Code: CodeUsernameExists, Message: "Username already exists"}}
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid username or password"}}
	case errors.Is(err, model.ErrUnauthenticated):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Message: "Authentication required"}}
	case errors.Is(err, model.ErrIdentityNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeIdentityNotFound, Message: "User not found"}}
	case errors.Is(err, model.ErrTransactionNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeTransactionNotFound, Message: "Transaction not found"}}
	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeStoreUnavailable, Message: "Service temporarily unavailable"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: internalMessage}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: internalMessage}}
}
