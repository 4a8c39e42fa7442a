package domain

import "fmt"

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeUnknownStage        = "UNKNOWN_STAGE"
	ErrCodeNoOp                = "NO_OP"
	ErrCodeDealClosed          = "DEAL_CLOSED"
	ErrCodeRemoteRejection     = "REMOTE_REJECTION"
	ErrCodeAggregationDegraded = "AGGREGATION_DEGRADED"
	ErrCodeMoveInFlight        = "MOVE_IN_FLIGHT"
	ErrCodeDragActive          = "DRAG_ACTIVE"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// Error constructors

// NewUnknownStageError creates an error for a stage id outside the catalog
func NewUnknownStageError(stage string) error {
	return &DomainError{
		Code:    ErrCodeUnknownStage,
		Message: fmt.Sprintf("stage %q is not part of the stage catalog", stage),
	}
}

// NewDealClosedError creates an error for a transition out of a terminal stage
func NewDealClosedError(dealID int) error {
	return &DomainError{
		Code:    ErrCodeDealClosed,
		Message: fmt.Sprintf("deal %d is closed and cannot change stage", dealID),
	}
}

// NewRemoteRejectionError wraps a backend rejection of a mutation request
func NewRemoteRejectionError(status int, err error) error {
	return &DomainError{
		Code:    ErrCodeRemoteRejection,
		Message: fmt.Sprintf("backend rejected the mutation (status %d)", status),
		Err:     err,
	}
}

// NewAggregationDegradedError signals an unavailable or malformed analytics source
func NewAggregationDegradedError(snapshot string, err error) error {
	return &DomainError{
		Code:    ErrCodeAggregationDegraded,
		Message: fmt.Sprintf("analytics snapshot %q degraded, serving fallback", snapshot),
		Err:     err,
	}
}

// NewMoveInFlightError rejects a second stage move while one is unresolved
func NewMoveInFlightError(dealID int) error {
	return &DomainError{
		Code:    ErrCodeMoveInFlight,
		Message: fmt.Sprintf("deal %d already has a stage move in flight", dealID),
	}
}

// NewDragActiveError rejects starting a drag while another session is active
func NewDragActiveError() error {
	return &DomainError{
		Code:    ErrCodeDragActive,
		Message: "another drag session is already active",
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

// IsUnknownStage checks if the error is an unknown stage error
func IsUnknownStage(err error) bool {
	return hasCode(err, ErrCodeUnknownStage)
}

// IsDealClosed checks if the error is a closed deal error
func IsDealClosed(err error) bool {
	return hasCode(err, ErrCodeDealClosed)
}

// IsRemoteRejection checks if the error is a backend rejection
func IsRemoteRejection(err error) bool {
	return hasCode(err, ErrCodeRemoteRejection)
}

// IsAggregationDegraded checks if the error is a degraded analytics source
func IsAggregationDegraded(err error) bool {
	return hasCode(err, ErrCodeAggregationDegraded)
}

// IsMoveInFlight checks if the error is an in-flight move rejection
func IsMoveInFlight(err error) bool {
	return hasCode(err, ErrCodeMoveInFlight)
}

// IsDragActive checks if the error is an active drag session conflict
func IsDragActive(err error) bool {
	return hasCode(err, ErrCodeDragActive)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ErrCodeInternal
}

func hasCode(err error, code string) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == code
	}
	return false
}
