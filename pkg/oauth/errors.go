// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies which branch of the error taxonomy an Error belongs to.
type Kind int

const (
	// KindOAuth is any protocol-level rejection whose name and description
	// may be disclosed to the client.
	KindOAuth Kind = iota
	// KindInvalidArgument is a configuration or model-capability error.
	KindInvalidArgument
	// KindUnauthorizedRequest is an authentication failure whose details
	// must not be disclosed.
	KindUnauthorizedRequest
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOAuth:
		return "oauth"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorizedRequest:
		return "unauthorized_request"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error names defined by RFC 6749, RFC 6750 and the engine contract.
const (
	ErrorNameInvalidArgument         = "invalid_argument"
	ErrorNameUnauthorizedRequest     = "unauthorized_request"
	ErrorNameInvalidRequest          = "invalid_request"
	ErrorNameInvalidClient           = "invalid_client"
	ErrorNameInvalidGrant            = "invalid_grant"
	ErrorNameInvalidScope            = "invalid_scope"
	ErrorNameInvalidToken            = "invalid_token"
	ErrorNameInsufficientScope       = "insufficient_scope"
	ErrorNameUnauthorizedClient      = "unauthorized_client"
	ErrorNameUnsupportedGrantType    = "unsupported_grant_type"
	ErrorNameUnsupportedResponseType = "unsupported_response_type"
	ErrorNameAccessDenied            = "access_denied"
	ErrorNameServerError             = "server_error"
)

// Error is a typed OAuth error carrying a machine-readable name, a
// human-readable message and the HTTP status code to answer with.
type Error struct {
	// Kind selects the branch of the taxonomy.
	Kind Kind

	// Name is the short error code, e.g. "invalid_request".
	Name string

	// Message is the human-readable description.
	Message string

	// Code is the HTTP status code.
	Code int

	// Cause is the underlying error, if any. It is never sent to clients.
	Cause error
}

// Error returns the message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of e that wraps cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// StatusCode returns the HTTP status code, falling back to 500.
func (e *Error) StatusCode() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// NewError creates a KindOAuth error.
func NewError(name, message string, code int) *Error {
	return &Error{Kind: KindOAuth, Name: name, Message: message, Code: code}
}

// NewInvalidArgumentError creates an invalid_argument error.
func NewInvalidArgumentError(message string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Name:    ErrorNameInvalidArgument,
		Message: message,
		Code:    http.StatusInternalServerError,
	}
}

// NewUnauthorizedRequestError creates an unauthorized_request error. An empty
// message defaults to "Unauthorized request".
func NewUnauthorizedRequestError(message string) *Error {
	if message == "" {
		message = "Unauthorized request"
	}
	return &Error{
		Kind:    KindUnauthorizedRequest,
		Name:    ErrorNameUnauthorizedRequest,
		Message: message,
		Code:    http.StatusUnauthorized,
	}
}

// NewInvalidRequestError creates an invalid_request error.
func NewInvalidRequestError(message string) *Error {
	return NewError(ErrorNameInvalidRequest, message, http.StatusBadRequest)
}

// NewInvalidClientError creates an invalid_client error.
func NewInvalidClientError(message string) *Error {
	return NewError(ErrorNameInvalidClient, message, http.StatusBadRequest)
}

// NewInvalidGrantError creates an invalid_grant error.
func NewInvalidGrantError(message string) *Error {
	return NewError(ErrorNameInvalidGrant, message, http.StatusBadRequest)
}

// NewInvalidScopeError creates an invalid_scope error.
func NewInvalidScopeError(message string) *Error {
	return NewError(ErrorNameInvalidScope, message, http.StatusBadRequest)
}

// NewInvalidTokenError creates an invalid_token error.
func NewInvalidTokenError(message string) *Error {
	return NewError(ErrorNameInvalidToken, message, http.StatusUnauthorized)
}

// NewInsufficientScopeError creates an insufficient_scope error.
func NewInsufficientScopeError(message string) *Error {
	return NewError(ErrorNameInsufficientScope, message, http.StatusForbidden)
}

// NewUnauthorizedClientError creates an unauthorized_client error.
func NewUnauthorizedClientError(message string) *Error {
	return NewError(ErrorNameUnauthorizedClient, message, http.StatusBadRequest)
}

// NewUnsupportedGrantTypeError creates an unsupported_grant_type error.
func NewUnsupportedGrantTypeError(message string) *Error {
	return NewError(ErrorNameUnsupportedGrantType, message, http.StatusBadRequest)
}

// NewUnsupportedResponseTypeError creates an unsupported_response_type error.
func NewUnsupportedResponseTypeError(message string) *Error {
	return NewError(ErrorNameUnsupportedResponseType, message, http.StatusBadRequest)
}

// NewAccessDeniedError creates an access_denied error.
func NewAccessDeniedError(message string) *Error {
	return NewError(ErrorNameAccessDenied, message, http.StatusBadRequest)
}

// NewServerError creates a server_error error.
func NewServerError(message string) *Error {
	return NewError(ErrorNameServerError, message, http.StatusInternalServerError)
}

// MissingParameter returns the invalid_request error for an absent parameter.
func MissingParameter(name string) *Error {
	return NewInvalidRequestError(fmt.Sprintf("Missing parameter: '%s'", name))
}

// MissingModelCapability returns the invalid_argument error raised when the
// model lacks a method a verb needs.
func MissingModelCapability(method string) *Error {
	return NewInvalidArgumentError(fmt.Sprintf("Invalid argument: model does not implement `%s()`", method))
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr, true
	}
	return nil, false
}

// InternalErrorMessage is the description given to clients for errors outside
// the taxonomy. The original error is only kept as the cause.
const InternalErrorMessage = "Server error: internal server error"

// ToError converts err into an *Error. Errors outside the taxonomy become a
// server_error wrapping the original.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	if oauthErr, ok := AsError(err); ok {
		return oauthErr
	}
	return NewServerError(InternalErrorMessage).WithCause(err)
}

// IsUnauthorizedRequest reports whether err is an unauthorized_request error.
func IsUnauthorizedRequest(err error) bool {
	oauthErr, ok := AsError(err)
	return ok && oauthErr.Kind == KindUnauthorizedRequest
}

// IsInvalidArgument reports whether err is an invalid_argument error.
func IsInvalidArgument(err error) bool {
	oauthErr, ok := AsError(err)
	return ok && oauthErr.Kind == KindInvalidArgument
}
