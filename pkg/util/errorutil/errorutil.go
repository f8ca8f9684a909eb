// Package errorutil defines the error envelope codes shared by every layer.
package errorutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes surfaced to API callers.
const (
	CodeValidationFailed           = "VALIDATION_FAILED"
	CodeNotFound                   = "NOT_FOUND"
	CodeResidentNotFound           = "RESIDENT_NOT_FOUND"
	CodeDuplicateUsername          = "DUPLICATE_USERNAME"
	CodeDuplicateTrackingNumber    = "DUPLICATE_TRACKING_NUMBER"
	CodeRoomOccupied               = "ROOM_OCCUPIED"
	CodeNotFoundOrAlreadyCollected = "NOT_FOUND_OR_ALREADY_COLLECTED"
	CodeParcelNotPending           = "PARCEL_NOT_PENDING"
	CodeForbidden                  = "FORBIDDEN"
	CodeUnauthorized               = "UNAUTHORIZED"
	CodeInvalidCredentials         = "INVALID_CREDENTIALS"
	CodeStorageFailure             = "STORAGE_FAILURE"
	CodeInternal                   = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewResidentNotFound reports that a resident reference could not be resolved.
func NewResidentNotFound(details map[string]any) error {
	return NewDomainError(CodeResidentNotFound, "resident not found", http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewInvalidCredentials hides whether the username or the password was wrong.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid username or password", http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewConflict builds a 409 with a specific conflict code.
func NewConflict(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusConflict, details)
}

// NewStorageFailure wraps a blob or persistence write failure.
func NewStorageFailure(message string, err error) error {
	return &DomainError{
		Code:       CodeStorageFailure,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError. Errors raised by the
// database itself become STORAGE_FAILURE.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	if isStoreFailure(err) {
		return NewStorageFailure("storage unavailable", err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func isStoreFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded)
}
