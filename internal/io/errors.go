package io

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound indicates a metric profile file is absent.
	ErrFileNotFound = errors.New("io: profile file not found")
	// ErrParse indicates malformed profile content.
	ErrParse = errors.New("io: malformed profile")
	// ErrBundleNotFound indicates a header lacks a requested bundle column.
	ErrBundleNotFound = errors.New("io: bundle column not found")
	// ErrIO indicates a read or write failure other than a missing input.
	ErrIO = errors.New("io: i/o failure")
)

// ParseError locates a malformed field inside a profile file.
type ParseError struct {
	Path   string
	Line   int // 1-based, counting the header
	Column int // 1-based, 0 when the whole row is at fault
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
