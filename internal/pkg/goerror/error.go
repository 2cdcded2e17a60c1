package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by stores when a write violates a uniqueness rule.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies an Error by who is at fault.
type Type int

const (
	// TypeServer is an infrastructure failure; the caller may retry.
	TypeServer Type = iota
	// TypeBusiness is a domain rule rejection.
	TypeBusiness
	// TypeValidation is malformed or invalid input.
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

// String returns the stable name of t.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is a stable identifier that decides the HTTP status of an Error.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
)

type codeInfo struct {
	name   string
	status int
}

var codes = map[Code]codeInfo{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
}

func (c Code) info() codeInfo {
	if info, ok := codes[c]; ok {
		return info
	}
	return codes[CodeInternal]
}

// String returns the stable name of c.
func (c Code) String() string {
	return c.info().name
}

// Error carries a user-facing message next to the underlying cause.
//
// Error() reports the cause so logs keep the real failure; Msg() is what the
// HTTP layer sends back.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

var fallbackMessages = map[Type]string{
	TypeValidation: "Validation violation",
	TypeBusiness:   "Logical business not meet with requirement",
	TypeServer:     "Internal error",
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	if msg, ok := fallbackMessages[e.errType]; ok {
		return msg
	}
	return "Unknown error"
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing message.
func (e *Error) Msg() string { return e.msg }

// Type returns the error type.
func (e *Error) Type() Type { return e.errType }

// Code returns the error code.
func (e *Error) Code() Code { return e.code }

// Fields returns per-field validation messages, keyed by field name.
func (e *Error) Fields() map[string]string { return e.fields }

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status.
func (e *Error) StatusCode() int { return e.code.info().status }

func newError(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an infrastructure failure.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business rejection with no cause.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// NewBusinessCause creates a business rejection that wraps cause, so callers
// can match it with errors.Is while the response still carries msg.
func NewBusinessCause(cause error, msg string, code Code) error {
	return newError(cause, msg, TypeBusiness, code)
}

// IsServer reports whether err carries a server-type Error.
func IsServer(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.errType == TypeServer
}

// NewInvalidInput reports a validation failure. A non-nil err (usually the
// validator's result) is wrapped as is; otherwise kv lists field, message
// pairs. An odd kv length is treated as a malformed request.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newError(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	e := newError(nil, "Validation error", TypeValidation, CodeInvalidInput)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat reports a body that could not be decoded.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return newError(nil, msg, TypeValidation, CodeInvalidFormat)
}
