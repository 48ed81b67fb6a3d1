package studyset

import (
	"errors"
	"fmt"

	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/requirement"
	"github.com/hupe1980/studyset/snapshot"
)

var (
	// ErrNotFound is the sentinel matched by every NotFoundError.
	ErrNotFound = errors.New("study not found")

	// ErrDuplicateStudy is returned by Add when a study ID is already present.
	ErrDuplicateStudy = errors.New("duplicate study")

	// ErrNotImplemented is returned for operations that are recognised but not supported yet.
	ErrNotImplemented = errors.New("not implemented")
)

// FormatError indicates that an input is not parseable as the expected
// structured or binary format.
//
// The underlying cause can be accessed via errors.Unwrap.
type FormatError struct {
	Path  string
	cause error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format in %s: %v", e.Path, e.cause)
}

func (e *FormatError) Unwrap() error { return e.cause }

// SchemaError indicates a record with an invalid shape or content.
//
// Path is empty for studies added programmatically.
type SchemaError struct {
	Path    string
	StudyID string
	Field   string
	Reason  string
	cause   error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("study %q", e.StudyID)
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.cause }

// UnknownRequirementError indicates a requirement clause that is not part of
// the dataset's vocabulary. Clause is empty for an empty clause.
type UnknownRequirementError struct {
	Clause      string
	Requirement string
	cause       error
}

func (e *UnknownRequirementError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("requirement %q contains an empty clause", e.Requirement)
	}
	return fmt.Sprintf("unknown requirement %q in %q", e.Clause, e.Requirement)
}

func (e *UnknownRequirementError) Unwrap() error { return e.cause }

// NotFoundError indicates a lookup of a study ID that does not exist.
// It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	StudyID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("study %q not found", e.StudyID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TypeMismatchError indicates a well-formed snapshot that does not hold a dataset.
type TypeMismatchError struct {
	Path string
	Kind snapshot.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: snapshot holds a %s, not a dataset", e.Path, e.Kind)
}

func newFormatError(path string, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		return err
	}
	return &FormatError{Path: path, cause: err}
}

// translateError maps sub-package errors to the root error taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var uce *requirement.UnknownClauseError
	if errors.As(err, &uce) {
		return &UnknownRequirementError{Clause: uce.Clause, Requirement: uce.Requirement, cause: err}
	}

	var fe *metadata.FieldError
	if errors.As(err, &fe) {
		return &SchemaError{
			Field:  fe.Field,
			Reason: fmt.Sprintf("has type %s, expected %s", fe.Got, fe.Expected),
			cause:  err,
		}
	}

	return err
}
