package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable reason codes for subscription gating, so clients can tell
// "no subscription" from "expired" from "wrong plan" without parsing messages.
const (
	ReasonSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	ReasonPremiumRequired      = "PREMIUM_REQUIRED"
	ReasonSubscriptionExpired  = "SUBSCRIPTION_EXPIRED"
)

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error constructors.

func ErrNotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: msg}
}

// ErrSubscriptionGate builds a 403 carrying one of the Reason* codes.
func ErrSubscriptionGate(msg, reason string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: msg, Reason: reason}
}

func ErrBadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: msg}
}

func ErrInternal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: msg, Err: err}
}

// AsAppError attempts to extract an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
