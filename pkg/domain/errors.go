package domain

import (
	"fmt"
	"io"
	"strings"
)

// EntityKind identifies the kind of record or entity an error refers to.
type EntityKind string

// Entity kinds used in NotFoundError values.
const (
	KindJob           EntityKind = "job"
	KindSection       EntityKind = "section"
	KindQuestion      EntityKind = "question"
	KindForm          EntityKind = "form"
	KindJobType       EntityKind = "job_type"
	KindSpecification EntityKind = "specification"
)

// NotFoundError reports that a lookup by id (or by name) matched nothing.
type NotFoundError struct {
	Kind EntityKind
	ID   uint64
	Name string // set instead of ID when the lookup was by name
}

func (e NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ConnectionError reports a failure to open the backing store.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "open store: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// StatementError reports a failed statement, surfaced verbatim from the
// store. Constraint violations (unique, foreign key) arrive here; callers
// that care about duplicate-key semantics inspect the wrapped driver error.
type StatementError struct {
	Op  string
	Err error
}

func (e *StatementError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StatementError) Unwrap() error { return e.Err }

// CloseError reports that a connection failed to close after an operation.
// It is recorded in addition to any primary operation error.
type CloseError struct {
	Err error
}

func (e *CloseError) Error() string { return "close store: " + e.Err.Error() }
func (e *CloseError) Unwrap() error { return e.Err }

// ErrorSet is the ordered, non-empty error collection returned by store
// operations. When closing the per-operation connection fails, the still-open
// handle is surfaced through Conn so the caller may retry the close instead
// of leaking it; the handle is never silently discarded.
type ErrorSet struct {
	Errors []error
	Conn   io.Closer
}

func (e *ErrorSet) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the member errors to errors.Is and errors.As.
func (e *ErrorSet) Unwrap() []error { return e.Errors }
