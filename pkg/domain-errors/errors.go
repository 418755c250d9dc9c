// Package domainerrors provides coded errors for domain outcomes.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate them into coded errors here so transports can map
// codes to protocol responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// Generic codes.
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"

	// Lottery allocation and draw outcomes.
	CodeRoundNotOpen           Code = "round_not_open"
	CodeRoundFrozen            Code = "round_frozen"
	CodeCapacityExceeded       Code = "capacity_exceeded"
	CodeInsufficientBalance    Code = "insufficient_balance"
	CodeQuotaExhausted         Code = "quota_exhausted"
	CodeConcurrentModification Code = "concurrent_modification"
	CodeEntropyUnavailable     Code = "entropy_unavailable"
)

// retryableCodes are outcomes callers are expected to retry transparently.
// ConcurrentModification is a normal result of optimistic locking, not a bug;
// EntropyUnavailable fails closed and is retried with backoff.
var retryableCodes = map[Code]bool{
	CodeConcurrentModification: true,
	CodeEntropyUnavailable:     true,
	CodeTimeout:                true,
}

// DomainError is a coded error with an optional wrapped cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error { return e.Err }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return New(code, message)
	}
	return DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de DomainError
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = DomainError{}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the error represents a transient outcome the
// caller should retry.
func IsRetryable(err error) bool {
	var de DomainError
	if errors.As(err, &de) {
		return retryableCodes[de.Code]
	}
	return false
}

// ToHTTPStatus maps a code onto an HTTP status for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict, CodeConcurrentModification:
		return http.StatusConflict
	case CodeRoundNotOpen, CodeRoundFrozen, CodeCapacityExceeded,
		CodeInsufficientBalance, CodeQuotaExhausted:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeEntropyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
