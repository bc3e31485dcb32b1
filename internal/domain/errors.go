// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and engines can return.
var (
	// ErrInvalidOperation marks a command that does not apply in the current state.
	// The playback core treats it as a silent no-op.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidHandle is returned when an invalid engine handle is used.
	ErrInvalidHandle = errors.New("invalid engine handle")

	// ErrNoSession is returned when an operation needs a live playback session.
	ErrNoSession = fmt.Errorf("%w: no active session", ErrInvalidOperation)

	// ErrPlaylistEmpty is returned when an operation requires a non-empty playlist.
	ErrPlaylistEmpty = fmt.Errorf("%w: playlist is empty", ErrInvalidOperation)

	// ErrInvalidIndex is returned when a playlist index is out of bounds.
	ErrInvalidIndex = fmt.Errorf("%w: invalid playlist index", ErrInvalidOperation)

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = fmt.Errorf("%w: volume must be between 0.0 and 1.0", ErrInvalidOperation)

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrScanCancelled is returned when a folder scan is canceled.
	ErrScanCancelled = errors.New("scan cancelled")
)

// SourceOpenError is returned when a source cannot be opened or decoded:
// a bad or missing file, or an unsupported codec.
type SourceOpenError struct {
	Source string // Source that failed to open
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("cannot open %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceOpenError) Unwrap() error {
	return e.Err
}

// NewSourceOpenError creates a new SourceOpenError.
func NewSourceOpenError(source string, err error) *SourceOpenError {
	return &SourceOpenError{Source: source, Err: err}
}

// EngineRuntimeError is reported when playback fails after a session started,
// for example a decode failure in the middle of a file.
type EngineRuntimeError struct {
	Session SessionID // Session the failure belongs to
	Source  string    // Source being played
	Err     error     // Underlying error
}

// Error implements the error interface.
func (e *EngineRuntimeError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("playback of %q failed: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("playback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineRuntimeError) Unwrap() error {
	return e.Err
}

// NewEngineRuntimeError creates a new EngineRuntimeError.
func NewEngineRuntimeError(session SessionID, source string, err error) *EngineRuntimeError {
	return &EngineRuntimeError{Session: session, Source: source, Err: err}
}

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "open", "play", "seek")
	Path    string // File path (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackService", "LibraryService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsInvalidOperation reports whether err belongs to the silent no-op class.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}
