// Package domain contains core business models and logic with no external dependencies
// beyond identifiers. This package defines the fundamental entities of the SpectraTune player.
package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Track represents a single playable audio source in the playlist.
// A Track is immutable once created.
type Track struct {
	// ID is a unique identifier for the track (UUID)
	ID string

	// Source is the cleaned path of the audio file; it is the identity used for duplicate checks
	Source string

	// Name is the display name: the file name with its extension stripped
	Name string
}

// NewTrack creates a track for the given source path.
func NewTrack(source string) Track {
	cleaned := filepath.Clean(source)
	return Track{
		ID:     uuid.NewString(),
		Source: cleaned,
		Name:   DisplayName(cleaned),
	}
}

// DisplayName derives a track name from a file path by stripping directory and extension.
func DisplayName(source string) string {
	base := filepath.Base(source)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// SameSource reports whether two tracks refer to the same audio source.
func (t Track) SameSource(other Track) bool {
	return t.Source == other.Source
}

// PlaybackState is the state of the playback state machine.
type PlaybackState int

const (
	// StateEmpty means nothing has been loaded yet
	StateEmpty PlaybackState = iota

	// StateLoading means a source is being opened
	StateLoading

	// StatePlaying means a session is live and playing
	StatePlaying

	// StatePaused means a session is live and paused
	StatePaused

	// StateStopped means the last session was torn down
	StateStopped

	// StateError means the last open or playback attempt failed
	StateError
)

// String returns a human-readable representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// HasSession reports whether the state implies a live engine session.
func (s PlaybackState) HasSession() bool {
	return s == StatePlaying || s == StatePaused
}

// SessionID identifies one playback session. Events from the media engine carry
// the session they originated from so stale events can be dropped.
type SessionID uint64

// NoSession is the zero session id; no live session ever uses it.
const NoSession SessionID = 0

// EngineHandle represents a handle to an opened source in the media engine.
// This is an opaque identifier used by the engine to reference live sessions.
type EngineHandle int64

const (
	// InvalidHandle represents an invalid or uninitialized engine handle
	InvalidHandle EngineHandle = 0
)

// PlayerStatus is a read-only view of the playback state machine.
type PlayerStatus struct {
	// State is the current state machine state
	State PlaybackState

	// CurrentIndex is the playlist index of the current track (-1 if none)
	CurrentIndex int

	// CurrentTrack is the track of the live session (nil if none)
	CurrentTrack *Track

	// Session is the id of the live session (NoSession if none)
	Session SessionID

	// Handle is the engine handle of the live session
	Handle EngineHandle

	// Position is the last displayed playback position
	Position time.Duration

	// Duration is the total duration of the current track (0 if unknown)
	Duration time.Duration

	// Volume is the pending/applied volume level (0.0 to 1.0)
	Volume float64

	// Scrubbing is true while the user drags the progress control
	Scrubbing bool

	// LastError is the message of the last open or runtime error
	LastError string
}

// Progress returns the position as a fraction of the duration, or 0 when the duration is unknown.
func (s PlayerStatus) Progress() float64 {
	return ProgressFraction(s.Position, s.Duration)
}

// ProgressFraction returns position/duration clamped to [0, 1], guarding against unknown duration.
func ProgressFraction(position, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	f := float64(position) / float64(duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SpectrumConfig configures the periodic spectrum-magnitude events of a media engine.
type SpectrumConfig struct {
	// Bands is the number of frequency bands per event
	Bands int `yaml:"bands"`

	// Interval is the time between two spectrum events
	Interval time.Duration `yaml:"interval"`

	// Threshold is the floor in dB; magnitudes below it are reported as the threshold
	Threshold float64 `yaml:"threshold"`
}

// DefaultSpectrumConfig returns 64 bands every 50ms with a -60dB floor.
func DefaultSpectrumConfig() SpectrumConfig {
	return SpectrumConfig{
		Bands:     64,
		Interval:  50 * time.Millisecond,
		Threshold: -60,
	}
}
