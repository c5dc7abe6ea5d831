package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError covers user-correctable input rejections, including coupon
// rejections. Details carries the per-check reason so callers never see a
// generic "invalid coupon".
type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// ConflictError signals an optimistic-concurrency loss: a claim raced by
// another driver or a transition applied against stale state. The caller must
// re-fetch before retrying; never retry with the same inputs.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// PreconditionError is a transition-guard failure. Slot names the evidence
// slot still missing when that is the failed guard, empty otherwise.
type PreconditionError struct {
	Message string
	Slot    string
}

func (e *PreconditionError) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("%s (missing evidence: %s)", e.Message, e.Slot)
	}
	return e.Message
}

func NewPreconditionError(message, slot string) *PreconditionError {
	return &PreconditionError{Message: message, Slot: slot}
}

func IsPreconditionError(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// TransientError wraps network/storage failures that are safe to retry with
// the same inputs.
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

func NewTransientError(message string, cause error) *TransientError {
	return &TransientError{Message: message, Cause: cause}
}

func IsTransientError(err error) (*TransientError, bool) {
	var te *TransientError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// HTTPStatus maps the taxonomy onto response codes for the controller layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case matches[*ValidationError](err):
		return http.StatusUnprocessableEntity
	case matches[*NotFoundError](err):
		return http.StatusNotFound
	case matches[*ConflictError](err):
		return http.StatusConflict
	case matches[*PreconditionError](err):
		return http.StatusPreconditionFailed
	case matches[*TransientError](err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func matches[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
