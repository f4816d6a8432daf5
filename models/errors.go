package models

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the booking engine.
const (
	CodeNoPaymentIntent          = "NoPaymentIntent"
	CodeBookingTimeNotAvailable  = "BookingTimeNotAvailable"
	CodeBookingWindowUnavailable = "BookingWindowUnavailable"
	CodeConflictDetected         = "ConflictDetected"
	CodeExternalStoreFailure     = "ExternalStoreFailure"
	CodeMalformedMetadata        = "MalformedMetadata"
	CodeNotCancelable            = "NotCancelable"
	CodeNothingToSettle          = "NothingToSettle"
	CodeInvalidSchedule          = "InvalidSchedule"
	CodeNotFound                 = "NotFound"
)

// BookingError is a typed engine failure. errors.Is matches on Code.
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func (e *BookingError) Is(target error) bool {
	var t *BookingError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewBookingError(code, msg string, err error) error {
	return &BookingError{Code: code, Message: msg, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrNoPaymentIntent          = &BookingError{Code: CodeNoPaymentIntent}
	ErrBookingTimeNotAvailable  = &BookingError{Code: CodeBookingTimeNotAvailable}
	ErrBookingWindowUnavailable = &BookingError{Code: CodeBookingWindowUnavailable}
	ErrConflictDetected         = &BookingError{Code: CodeConflictDetected}
	ErrExternalStoreFailure     = &BookingError{Code: CodeExternalStoreFailure}
	ErrMalformedMetadata        = &BookingError{Code: CodeMalformedMetadata}
	ErrNotCancelable            = &BookingError{Code: CodeNotCancelable}
	ErrNothingToSettle          = &BookingError{Code: CodeNothingToSettle}
	ErrInvalidSchedule          = &BookingError{Code: CodeInvalidSchedule}
	ErrNotFound                 = &BookingError{Code: CodeNotFound}
)

// ErrorCode extracts the code of a BookingError anywhere in err's chain.
func ErrorCode(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
