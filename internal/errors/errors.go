// Package errors defines the typed errors shared across devpulse. The type
// decides how a failure surfaces: configuration errors abort a command with
// exit code 2 (HTTP 400), data quality errors reject a single record.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - unknown period, malformed pattern, missing field
	ErrorTypeConfig ErrorType = iota
	// Data quality errors - a single malformed commit record
	ErrorTypeDataQuality
	// Database errors - commit store connection or query failures
	ErrorTypeDatabase
	// Network errors - listener or connectivity failures
	ErrorTypeNetwork
	// FileSystem errors - reports, caches, log files
	ErrorTypeFileSystem
	// External errors - GitHub API failures
	ErrorTypeExternal
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeDataQuality:
		return "DATA_QUALITY"
	case ErrorTypeDatabase:
		return "DATABASE"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeFileSystem:
		return "FILESYSTEM"
	case ErrorTypeExternal:
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error is a typed error with optional key/value context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches any *Error of the same type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// DetailedString renders the error with its cause and context, keys sorted
func (e *Error) DetailedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", e.Type, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, "Caused by: %v\n", e.Cause)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, e.Context[k])
		}
	}
	return sb.String()
}

// New creates an error of the given type
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Wrap wraps err as the given type; a nil err stays nil
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Message: message, Cause: err}
}

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, fmt.Sprintf(format, args...))
}

// WrapConfig wraps a cause (e.g. a regexp compile error) as a configuration error
func WrapConfig(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeConfig, fmt.Sprintf(format, args...))
}

// DataQualityErrorf creates an error describing one rejected record
func DataQualityErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeDataQuality, fmt.Sprintf(format, args...))
}

// DatabaseError wraps a database error
func DatabaseError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabase, message)
}

// DatabaseErrorf wraps a database error with formatting
func DatabaseErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeDatabase, fmt.Sprintf(format, args...))
}

// NetworkErrorf wraps a network error with formatting
func NetworkErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeNetwork, fmt.Sprintf(format, args...))
}

// FileSystemError wraps a filesystem error
func FileSystemError(err error, message string) *Error {
	return Wrap(err, ErrorTypeFileSystem, message)
}

// FileSystemErrorf wraps a filesystem error with formatting
func FileSystemErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeFileSystem, fmt.Sprintf(format, args...))
}

// ExternalError wraps an external service error
func ExternalError(err error, message string) *Error {
	return Wrap(err, ErrorTypeExternal, message)
}

// GetType returns the type of the outermost typed error in err's chain.
// Untyped errors report ErrorTypeExternal.
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeExternal
}

// IsConfig reports whether err (or anything it wraps) is a configuration error
func IsConfig(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == ErrorTypeConfig
}

// IsDataQuality reports whether err (or anything it wraps) is a data quality error
func IsDataQuality(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == ErrorTypeDataQuality
}

// ExitCode maps err to a process exit status: 0 for nil, 2 for
// configuration errors, 1 otherwise
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsConfig(err):
		return 2
	default:
		return 1
	}
}
