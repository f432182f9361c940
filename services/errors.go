package services

import "net/http"

// Error codes returned to clients alongside the HTTP status.
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeInvalidState       = "invalid_state"
	CodeConflict           = "conflict"
	CodeGatewayUnavailable = "gateway_unavailable"
	CodeGatewayRejected    = "gateway_rejected"
	CodeInvalidPayload     = "invalid_payload"
	CodeUnauthenticated    = "unauthenticated"
	CodeInternal           = "internal_error"
)

// ServiceError is a typed error with an HTTP status code and a stable
// machine-readable code.
type ServiceError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ServiceError) Error() string { return e.Message }

func ErrInvalidArgument(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Code: CodeInvalidArgument, Message: msg}
}

func ErrNotFound(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func ErrForbidden(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func ErrInvalidState(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Code: CodeInvalidState, Message: msg}
}

func ErrConflict(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Code: CodeConflict, Message: msg}
}

func ErrGatewayUnavailable(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadGateway, Code: CodeGatewayUnavailable, Message: msg}
}

func ErrGatewayRejected(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusUnprocessableEntity, Code: CodeGatewayRejected, Message: msg}
}

func ErrInvalidPayload(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Code: CodeInvalidPayload, Message: msg}
}

func ErrUnauthenticated(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: msg}
}

func ErrInternal(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Code: CodeInternal, Message: msg}
}
