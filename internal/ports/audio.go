// Package ports define interfaces for dependency inversion.
// These interfaces allow the core playback logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// EngineEventSink receives asynchronous notifications from a media engine.
// It is called from engine goroutines, never from inside an engine command.
type EngineEventSink func(event domain.EngineEvent)

// MediaEngine is the interface for media decoding/output engines.
// It abstracts the underlying audio library and allows for testing with mocks.
//
// One handle corresponds to one playback session. Every event an engine
// delivers for that handle carries the session id passed to Open.
//
// Implementations must be thread-safe.
type MediaEngine interface {
	// Initialize prepares the output device and the spectrum analysis.
	Initialize(sampleRate int, spectrum domain.SpectrumConfig) error

	// Shutdown stops every session and releases the output device.
	Shutdown() error

	// SetEventSink installs the receiver of engine events. A nil sink drops events.
	SetEventSink(sink EngineEventSink)

	// Open decodes the header of source and prepares a paused session.
	// Failures are reported as *domain.SourceOpenError and leave no handle behind.
	Open(source string, session domain.SessionID) (domain.EngineHandle, error)

	// Play starts or resumes output for the handle.
	Play(handle domain.EngineHandle) error

	// Pause suspends output, keeping the position.
	Pause(handle domain.EngineHandle) error

	// Stop halts output. The handle stays valid until Dispose.
	Stop(handle domain.EngineHandle) error

	// Dispose releases the handle. Disposing an unknown handle is a no-op.
	Dispose(handle domain.EngineHandle) error

	// Seek moves the playback position; the position is clamped to the media length.
	Seek(handle domain.EngineHandle, position time.Duration) error

	// SetVolume sets the output gain in [0, 1] for the handle.
	SetVolume(handle domain.EngineHandle, volume float64) error
}

// Dispatcher marshals work onto the UI goroutine.
type Dispatcher interface {
	// Do schedules fn to run on the UI goroutine.
	Do(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Do calls f(fn).
func (f DispatcherFunc) Do(fn func()) {
	f(fn)
}
