package models

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is wrapped by EmptyInputError for errors.Is checks.
var ErrEmptyInput = errors.New("no files to analyze")

// EmptyInputError is returned when an analysis is started without files.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no files to analyze: supply at least one source file or check ignore patterns and extensions"
}

// Unwrap allows errors.Is(err, ErrEmptyInput).
func (e *EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}

// FileAccessError is returned when a supplied path cannot be read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a file contains malformed source.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// ConfigError is returned for invalid or malformed configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
