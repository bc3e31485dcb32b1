package domain

import (
	"fmt"
	"time"
)

// EngineEventKind enumerates the notifications a media engine delivers.
type EngineEventKind int

const (
	// EngineReady is sent once the source is decoded and its duration is known
	EngineReady EngineEventKind = iota

	// EngineTick carries the current playback position
	EngineTick

	// EngineEndOfMedia is sent when the source played to its end
	EngineEndOfMedia

	// EngineError is sent when playback fails after the session started
	EngineError

	// EngineSpectrum carries one set of per-band magnitudes in dB
	EngineSpectrum
)

// String returns the event kind name.
func (k EngineEventKind) String() string {
	switch k {
	case EngineReady:
		return "ready"
	case EngineTick:
		return "tick"
	case EngineEndOfMedia:
		return "end_of_media"
	case EngineError:
		return "error"
	case EngineSpectrum:
		return "spectrum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// EngineEvent is a single asynchronous notification from the media engine.
// Every event carries the session it originated from.
type EngineEvent struct {
	Kind    EngineEventKind
	Session SessionID
	At      time.Time

	// Position is set for EngineTick
	Position time.Duration

	// Duration is set for EngineReady, and for EngineTick when known
	Duration time.Duration

	// Magnitudes is set for EngineSpectrum, one dB value per band
	Magnitudes []float64

	// Err is set for EngineError
	Err error
}

// NewReadyEvent creates an EngineReady event.
func NewReadyEvent(session SessionID, duration time.Duration) EngineEvent {
	return EngineEvent{Kind: EngineReady, Session: session, At: time.Now(), Duration: duration}
}

// NewTickEvent creates an EngineTick event.
func NewTickEvent(session SessionID, position, duration time.Duration) EngineEvent {
	return EngineEvent{Kind: EngineTick, Session: session, At: time.Now(), Position: position, Duration: duration}
}

// NewEndOfMediaEvent creates an EngineEndOfMedia event.
func NewEndOfMediaEvent(session SessionID) EngineEvent {
	return EngineEvent{Kind: EngineEndOfMedia, Session: session, At: time.Now()}
}

// NewEngineErrorEvent creates an EngineError event.
func NewEngineErrorEvent(session SessionID, err error) EngineEvent {
	return EngineEvent{Kind: EngineError, Session: session, At: time.Now(), Err: err}
}

// NewSpectrumEvent creates an EngineSpectrum event.
func NewSpectrumEvent(session SessionID, magnitudes []float64) EngineEvent {
	return EngineEvent{Kind: EngineSpectrum, Session: session, At: time.Now(), Magnitudes: magnitudes}
}
