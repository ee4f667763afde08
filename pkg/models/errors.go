package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrUpstream   = errors.New("upstream call failed")
	ErrExtraction = errors.New("no JSON object found in completion")
	ErrValidation = errors.New("invalid request")
	ErrStore      = errors.New("document store failure")
)

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ConflictError is returned when a document with the same id already exists.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("document %s already exists", e.ID)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func NewConflictError(id string) error {
	return &ConflictError{ID: id}
}

// AuthError is returned when an access token cannot be obtained.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("auth error: %s", e.Message)
}

func (e *AuthError) Unwrap() []error {
	return unwrapWith(ErrAuth, e.Err)
}

func NewAuthError(message string, err error) error {
	return &AuthError{Message: message, Err: err}
}

// UpstreamError wraps a failed generation call. StatusCode is 0 for transport failures.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("upstream error: %v", e.Err)
	default:
		return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Body)
	}
}

func (e *UpstreamError) Unwrap() []error {
	return unwrapWith(ErrUpstream, e.Err)
}

func NewUpstreamError(statusCode int, body string, err error) error {
	return &UpstreamError{StatusCode: statusCode, Body: body, Err: err}
}

// ExtractionError carries the raw completion that could not be parsed.
type ExtractionError struct {
	Raw string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrExtraction.Error(), e.Err)
	}
	return ErrExtraction.Error()
}

func (e *ExtractionError) Unwrap() []error {
	return unwrapWith(ErrExtraction, e.Err)
}

func NewExtractionError(raw string, err error) error {
	return &ExtractionError{Raw: raw, Err: err}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return unwrapWith(ErrStore, e.Err)
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func unwrapWith(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}
