package srvcerror

import "net/http"

type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int // optional, for HTTP responses
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

// Unwrap exposes the debug error so errors.Is works through service errors.
func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

const (
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeNotAuthenticated = "not_authenticated"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeConflict         = "conflict"
	ErrCodeUnexpected       = "unexpected_error"
)

func ErrMethodNotAllowed() *Error {
	return New(
		ErrCodeMethodNotAllowed,
		"Method not allowed",
	).SetHttpStatusCode(http.StatusMethodNotAllowed)
}

// ErrValidation reports a missing or malformed request field.
func ErrValidation(msg string) *Error {
	return New(ErrCodeValidation, msg).SetHttpStatusCode(http.StatusBadRequest)
}

func ErrNotFound(msg string) *Error {
	return New(ErrCodeNotFound, msg).SetHttpStatusCode(http.StatusNotFound)
}

func ErrNotAuthenticated() *Error {
	return New(
		ErrCodeNotAuthenticated,
		"Not authenticated",
	).SetHttpStatusCode(http.StatusUnauthorized)
}

func ErrUnauthorized(msg string) *Error {
	return New(ErrCodeUnauthorized, msg).SetHttpStatusCode(http.StatusForbidden)
}

func ErrConflict(msg string) *Error {
	return New(ErrCodeConflict, msg).SetHttpStatusCode(http.StatusConflict)
}

// ErrUnexpected surfaces the raw error message with a 500 status.
func ErrUnexpected(err error) *Error {
	return New(
		ErrCodeUnexpected,
		err.Error(),
	).SetHttpStatusCode(http.StatusInternalServerError).SetDebug(err)
}
