package core

import (
	"errors"
	"fmt"
	"strings"
)

// ReasonCode is the machine-checkable cause carried by engine errors.
type ReasonCode string

const (
	ReasonMissingField         ReasonCode = "MissingField"
	ReasonInvalidValue         ReasonCode = "InvalidValue"
	ReasonNotFound             ReasonCode = "NotFound"
	ReasonLastAdminViolation   ReasonCode = "LastAdminViolation"
	ReasonReferencedEntity     ReasonCode = "ReferencedEntity"
	ReasonConfirmationMismatch ReasonCode = "ConfirmationMismatch"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrValidation     = errors.New("validation error")
	ErrConstraint     = errors.New("constraint violation")
	ErrPartialFailure = errors.New("partial failure")
)

// PartialFailureMessage is shown when a multi-step workflow stopped half way.
const PartialFailureMessage = "some items may remain, please review"

// ValidationError is a caller-correctable input problem.
type ValidationError struct {
	Code    ReasonCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConstraintViolation reports a structural invariant the operation would break.
type ConstraintViolation struct {
	Code    ReasonCode
	Entity  EntityKind
	ID      string
	Message string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConstraintViolation) Is(target error) bool { return target == ErrConstraint }

// PartialFailure reports a workflow whose intents were applied only in part.
// Intents already applied are not rolled back.
type PartialFailure struct {
	PlanID    string
	Succeeded int
	Failed    int
	Skipped   int
	Errs      []error
}

func (e *PartialFailure) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("partial failure: %d succeeded, %d failed, %d skipped: %s",
		e.Succeeded, e.Failed, e.Skipped, strings.Join(msgs, "; "))
}

func (e *PartialFailure) Is(target error) bool { return target == ErrPartialFailure }

func (e *PartialFailure) Unwrap() []error { return e.Errs }

// Invalid builds a ValidationError.
func Invalid(code ReasonCode, field, msg string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: msg}
}

// Missing builds a MissingField ValidationError for field.
func Missing(field string) *ValidationError {
	return &ValidationError{Code: ReasonMissingField, Field: field, Message: field + " is required"}
}

// Violation builds a ConstraintViolation.
func Violation(code ReasonCode, entity EntityKind, id, msg string) *ConstraintViolation {
	return &ConstraintViolation{Code: code, Entity: entity, ID: id, Message: msg}
}

// Code extracts the reason code of a validation or constraint error.
func Code(err error) (ReasonCode, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code, true
	}
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv.Code, true
	}
	return "", false
}

// UserMessage returns the text a caller surfaces for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrPartialFailure) {
		return PartialFailureMessage
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv.Message
	}
	return "unexpected error"
}
