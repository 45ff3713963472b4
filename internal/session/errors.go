package session

import (
	"errors"
	"fmt"
)

// SessionError is returned by Session operations.
type SessionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RequestID identifies the affected request, if any.
	RequestID string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes session errors.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates an analysis request failed validation.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeClosed indicates the session no longer accepts work.
	ErrCodeClosed ErrorCode = "SESSION_CLOSED"

	// ErrCodeTransportFault indicates the engine channel failed.
	ErrCodeTransportFault ErrorCode = "TRANSPORT_FAULT"
)

// Error implements the error interface.
func (e *SessionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request=%s)", msg, e.RequestID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsClosed returns true if err reports a closed session.
func IsClosed(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

// IsInvalidRequest returns true if err reports a rejected request.
func IsInvalidRequest(err error) bool {
	return hasCode(err, ErrCodeInvalidRequest)
}

// IsTransportFault returns true if err reports a transport failure.
func IsTransportFault(err error) bool {
	return hasCode(err, ErrCodeTransportFault)
}

func hasCode(err error, code ErrorCode) bool {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newInvalidRequestError(message string) *SessionError {
	return &SessionError{Code: ErrCodeInvalidRequest, Message: message}
}

func newClosedError(requestID string) *SessionError {
	return &SessionError{Code: ErrCodeClosed, Message: "session is stopped", RequestID: requestID}
}

func newTransportError(requestID string, err error) *SessionError {
	return &SessionError{Code: ErrCodeTransportFault, Message: "send failed", RequestID: requestID, Err: err}
}
