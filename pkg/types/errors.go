package types

import (
	"errors"
	"fmt"
)

// Domain errors for type validation
var (
	ErrEmptyModuleID       = errors.New("module id cannot be empty")
	ErrInvalidFormat       = errors.New("invalid module format")
	ErrInvalidSideEffects  = errors.New("invalid side-effect classification")
	ErrUndeclaredSpecifier = errors.New("binding refers to an undeclared specifier")
)

// Stable diagnostic and error codes
const (
	CodeInvalidOption         = "INVALID_OPTION"
	CodeMissingManualModule   = "MISSING_MANUAL_CHUNK_MODULE"
	CodeDeprecatedFeature     = "DEPRECATED_FEATURE"
	CodeUnresolvedImport      = "UNRESOLVED_IMPORT"
	CodeUnknownOption         = "UNKNOWN_OPTION"
	CodeManualChunkMerge      = "MANUAL_CHUNK_MERGE"
	CodeManualChunkCycleSplit = "MANUAL_CHUNK_CYCLE_SPLIT"
	CodeCircularChunk         = "CIRCULAR_CHUNK"
	CodeDanglingBinding       = "DANGLING_BINDING"
	CodePluginError           = "PLUGIN_ERROR"
	CodeDuplicateModule       = "DUPLICATE_MODULE"
	CodeMissingEntry          = "MISSING_ENTRY"
)

// ErrorKind separates user-facing configuration errors from internal
// consistency failures
type ErrorKind string

const (
	KindConfig   ErrorKind = "config"
	KindInternal ErrorKind = "internal"
	KindPlugin   ErrorKind = "plugin"
)

// Error is a fatal build error with a stable code
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindInternal {
		return fmt.Sprintf("internal error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigError creates a fatal configuration error
func ConfigError(code, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: fmt.Sprintf(format, args...)}
}

// InternalError creates an internal consistency error
func InternalError(code, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the stable code from an error chain, or "" if none
func CodeOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// IsInternal reports whether err is an internal consistency error
func IsInternal(err error) bool {
	var coded *Error
	return errors.As(err, &coded) && coded.Kind == KindInternal
}
