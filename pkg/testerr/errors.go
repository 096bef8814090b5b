// Package testerr defines the failure kinds that helpers and page objects raise when
// the product does not behave as a test expects.
package testerr

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound reports a UI element or API entity that is missing.
	ErrElementNotFound = errors.New("element not found")
	// ErrElementNotCreated reports a create flow that finished without producing the entity.
	ErrElementNotCreated = errors.New("element not created")
	// ErrUnexpectedConditions reports product state a test cannot proceed from.
	ErrUnexpectedConditions = errors.New("unexpected conditions")
	// ErrFileDownload reports a download that never completed.
	ErrFileDownload = errors.New("file download failed")
)

// Error carries the kind sentinel plus context about the failure.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// ElementNotFound reports that what (a human label) could not be located by selector.
func ElementNotFound(what, selector string) error {
	detail := what
	if selector != "" {
		detail = fmt.Sprintf("%s (selector %q)", what, selector)
	}
	return &Error{Kind: ErrElementNotFound, Detail: detail}
}

// ElementNotFoundErr is ElementNotFound with a cause.
func ElementNotFoundErr(what, selector string, err error) error {
	e := ElementNotFound(what, selector).(*Error)
	e.Err = err
	return e
}

// ElementNotCreated reports that an entity of kind named name was not created.
func ElementNotCreated(kind, name string) error {
	return &Error{Kind: ErrElementNotCreated, Detail: fmt.Sprintf("%s %q", kind, name)}
}

// UnexpectedConditions formats a free-text description of the unexpected state.
func UnexpectedConditions(format string, args ...interface{}) error {
	return &Error{Kind: ErrUnexpectedConditions, Detail: fmt.Sprintf(format, args...)}
}

// FileDownload reports a failed download of name.
func FileDownload(name string, err error) error {
	return &Error{Kind: ErrFileDownload, Detail: name, Err: err}
}
