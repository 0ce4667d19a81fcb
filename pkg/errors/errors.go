// Package errors holds the error kinds of the MDM engine.
//
// Engines report rule violations as values (validation lists, Success=false
// merge results). Errors are for broken contracts and failing collaborators:
// a missing record, a forbidden lifecycle move, a version conflict on
// commit, an unreadable dataset. Every typed error answers errors.Is for its
// sentinel so callers can branch on kind without type assertions.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-exported so callers need only this package.
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Sentinels matched by the typed errors below.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMergeRejected     = errors.New("merge rejected")
)

// IsNotFound reports whether err is a missing record, job, duplicate or queue item.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err is bad caller input.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsConflict reports whether err is an optimistic concurrency failure.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsInvalidTransition reports whether err is a forbidden lifecycle move.
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }

// IsMergeRejected reports whether err is a merge job that failed validation.
func IsMergeRejected(err error) bool { return errors.Is(err, ErrMergeRejected) }

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string // record, merge_job, duplicate, queue_item
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError is bad input to an operation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// WrapValidation turns err into a ValidationError on field. Nil stays nil.
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// TransitionError is a lifecycle move the state machine forbids.
type TransitionError struct {
	Resource string // duplicate, merge_job, queue_item
	ID       string
	From     string
	To       string
}

func (e *TransitionError) Error() string {
	subject := e.Resource
	if e.ID != "" {
		subject += " " + e.ID
	}
	return fmt.Sprintf("%s cannot move from %s to %s", subject, e.From, e.To)
}

// Is matches ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// NewTransitionError creates a TransitionError.
func NewTransitionError(resource, id, from, to string) *TransitionError {
	return &TransitionError{Resource: resource, ID: id, From: from, To: to}
}

// ConflictError is a commit whose expected version did not match the store.
type ConflictError struct {
	Resource string
	ID       string
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently (expected version %d, found %d)",
		e.Resource, e.ID, e.Expected, e.Actual)
}

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NewConflictError creates a ConflictError.
func NewConflictError(resource, id string, expected, actual int) *ConflictError {
	return &ConflictError{Resource: resource, ID: id, Expected: expected, Actual: actual}
}

// MergeError is a merge job that could not be applied. Reasons are
// validation failures; Err is a collaborator failure such as a conflict.
type MergeError struct {
	JobID     string
	PrimaryID string
	Reasons   []string
	Err       error
}

func (e *MergeError) Error() string {
	job := "merge job " + e.JobID
	if e.PrimaryID != "" {
		job += " into " + e.PrimaryID
	}
	if len(e.Reasons) > 0 {
		return job + " rejected: " + strings.Join(e.Reasons, "; ")
	}
	return fmt.Sprintf("%s failed: %v", job, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// Is matches ErrMergeRejected when the job failed validation.
func (e *MergeError) Is(target error) bool {
	return target == ErrMergeRejected && len(e.Reasons) > 0
}

// NewMergeError creates a MergeError.
func NewMergeError(jobID, primaryID string, reasons []string, err error) *MergeError {
	return &MergeError{JobID: jobID, PrimaryID: primaryID, Reasons: reasons, Err: err}
}

// ConfigError is an unusable configuration value or rule.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError is a dataset, rules or provenance file that could not be decoded.
type ParseError struct {
	Format  string // yaml, json
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: invalid %s: %s", e.File, e.Line, e.Column, e.Format, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: invalid %s: %s", e.File, e.Format, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WrapParse turns err into a ParseError. Nil stays nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// IOError is a failed file operation.
type IOError struct {
	Operation string // read, write, create, rename, close
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WrapIO turns err into an IOError. Nil stays nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// ResourceError is a failed store operation on one resource.
type ResourceError struct {
	Operation string // load, commit, lock
	Resource  string // record, merge_job, duplicate
	ID        string
	Err       error
}

func (e *ResourceError) Error() string {
	subject := e.Resource
	if e.ID != "" {
		subject += " " + e.ID
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, subject, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// WrapResource turns err into a ResourceError. Nil stays nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}
