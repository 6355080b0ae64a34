// Package apperrors defines the error taxonomy shared by the market client,
// the collector and the lookup API.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failure so callers can pick a policy without
// matching on strings.
type ErrorType string

const (
	// ErrorTypeTransport is a non-200 response or a network failure.
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeDecode is a payload that does not match the expected grammar.
	ErrorTypeDecode ErrorType = "decode_error"
	// ErrorTypeParse is a malformed JSON envelope.
	ErrorTypeParse ErrorType = "parse_error"
	// ErrorTypeConfig is an unknown category or an inconsistent static table.
	ErrorTypeConfig ErrorType = "config_error"
	// ErrorTypeNotFound is a missing cache record.
	ErrorTypeNotFound ErrorType = "not_found"
)

// AppError carries the failure type, the operation that raised it and the
// wrapped cause.
type AppError struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError of the given type.
func New(errType ErrorType, op, message string, err error) *AppError {
	return &AppError{Type: errType, Op: op, Message: message, Err: err}
}

func NewTransportError(op, message string, err error) *AppError {
	return New(ErrorTypeTransport, op, message, err)
}

func NewDecodeError(op, message string, err error) *AppError {
	return New(ErrorTypeDecode, op, message, err)
}

func NewParseError(op, message string, err error) *AppError {
	return New(ErrorTypeParse, op, message, err)
}

func NewConfigError(op, message string, err error) *AppError {
	return New(ErrorTypeConfig, op, message, err)
}

func NewNotFoundError(op, message string, err error) *AppError {
	return New(ErrorTypeNotFound, op, message, err)
}

// TypeOf returns the type of the first AppError in err's chain, or "" when
// there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

func IsTransportError(err error) bool { return TypeOf(err) == ErrorTypeTransport }

func IsDecodeError(err error) bool { return TypeOf(err) == ErrorTypeDecode }

func IsParseError(err error) bool { return TypeOf(err) == ErrorTypeParse }

func IsConfigError(err error) bool { return TypeOf(err) == ErrorTypeConfig }

func IsNotFoundError(err error) bool { return TypeOf(err) == ErrorTypeNotFound }
