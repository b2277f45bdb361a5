// Package errors provides custom error types for the authmatch system.
// These errors separate run-fatal failures (configuration, connection)
// from per-record failures (fetch, extraction, comparison) so that callers
// can decide programmatically whether to abort a run or log and continue.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As, Join and Unwrap re-export the standard library helpers so callers
// only need to import one errors package.
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Common sentinel errors for the authmatch system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a fatal configuration problem
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection indicates that a database or remote service is unreachable
	ErrConnection = errors.New("connection error")

	// ErrFetch indicates that authority content could not be retrieved
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates that a heading or XML document could not be parsed
	ErrExtraction = errors.New("extraction failed")

	// ErrCredentialsRequired indicates that credentials are required but not provided
	ErrCredentialsRequired = errors.New("credentials required")

	// ErrProviderUnavailable indicates that a remote service is temporarily unavailable
	ErrProviderUnavailable = errors.New("service unavailable")

	// ErrRateLimited indicates that the upstream rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error. It is always fatal and is
// raised before any I/O takes place.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ConnectionError represents a database or remote service that could not
// be reached. At batch start it aborts the run; during the batch it is
// recorded against the record being processed.
type ConnectionError struct {
	Service string // "database", "loc", "oclc"
	Target  string // host, DSN driver or URL
	Err     error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("cannot connect to %s at %s: %v", e.Service, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot connect to %s: %v", e.Service, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(service, target string, err error) *ConnectionError {
	return &ConnectionError{Service: service, Target: target, Err: err}
}

// APIError represents an unexpected response from an authority service
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Provider, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 404:
		return target == ErrNotFound
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrProviderUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}

// FetchError represents a failure to retrieve authority content for an
// identifier. It is recorded per record and never cached.
type FetchError struct {
	Source string // "loc" or "oclc"
	ID     string
	Err    error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s authority %s: %v", e.Source, e.ID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// NewFetchError creates a new FetchError
func NewFetchError(source, id string, err error) *FetchError {
	return &FetchError{Source: source, ID: id, Err: err}
}

// ExtractionError represents a heading string or XML element that could
// not be turned into subfields.
type ExtractionError struct {
	Input   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("extraction failed for %q: %s", e.Input, e.Message)
	}
	return fmt.Sprintf("extraction failed: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// ComparisonError wraps the cause of a failed record comparison.
type ComparisonError struct {
	BibID       string
	AuthorityID string
	Err         error
}

// Error implements the error interface
func (e *ComparisonError) Error() string {
	return fmt.Sprintf("compare record %s against %s: %v", e.BibID, e.AuthorityID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ComparisonError) Unwrap() error {
	return e.Err
}

// RecordError represents any other per-record failure, such as a catalog
// row that cannot be converted into a record.
type RecordError struct {
	BibID   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %s: %s: %v", e.BibID, e.Message, e.Err)
	}
	return fmt.Sprintf("record %s: %s", e.BibID, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *RecordError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "xml", "yaml", "csv"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrExtraction
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// AuthenticationError represents an authentication/authorization error
type AuthenticationError struct {
	Provider string
	Method   string // "oauth2", "api_key"
	Message  string
	Err      error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Provider, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrCredentialsRequired || target == ErrConnection
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConnectionError checks if an error means a service could not be reached
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsFetchError checks if an error is an authority fetch failure
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetch)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsProviderUnavailable checks if an error indicates service unavailability
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapFetch wraps an error as a FetchError
func WrapFetch(source, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewFetchError(source, id, err)
}
