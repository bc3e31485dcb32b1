// Package domain defines events for the event-driven architecture.
// Events decouple the playback core from the UI that renders its state.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventStateChanged  EventType = "playback.state_changed"
	EventTrackStarted  EventType = "track.started"
	EventTrackReady    EventType = "track.ready"
	EventTrackPaused   EventType = "track.paused"
	EventTrackResumed  EventType = "track.resumed"
	EventTrackStopped  EventType = "track.stopped"
	EventTrackProgress EventType = "track.progress"
	EventTrackError    EventType = "track.error"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"

	// Playlist events
	EventPlaylistUpdated EventType = "playlist.updated"
	EventTracksAdded     EventType = "tracks.added"

	// Status line
	EventStatus EventType = "status"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanCompleted EventType = "scan.completed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// StateChangedEvent is published on every state machine transition.
type StateChangedEvent struct {
	baseEvent
	From PlaybackState
	To   PlaybackState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(from, to PlaybackState) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		From:      from,
		To:        to,
	}
}

// TrackStartedEvent is published when a newly opened track starts playing.
type TrackStartedEvent struct {
	baseEvent
	Track   Track
	Index   int
	Session SessionID
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, index int, session SessionID) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Session:   session,
	}
}

// TrackReadyEvent is published once the engine reports the track duration.
type TrackReadyEvent struct {
	baseEvent
	Track    Track
	Duration time.Duration
}

// Type returns the event type.
func (e TrackReadyEvent) Type() EventType {
	return EventTrackReady
}

// NewTrackReadyEvent creates a new TrackReadyEvent.
func NewTrackReadyEvent(track Track, duration time.Duration) TrackReadyEvent {
	return TrackReadyEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Duration:  duration,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackResumedEvent is published when a paused session resumes.
type TrackResumedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackResumedEvent) Type() EventType {
	return EventTrackResumed
}

// NewTrackResumedEvent creates a new TrackResumedEvent.
func NewTrackResumedEvent(track Track) TrackResumedEvent {
	return TrackResumedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackStoppedEvent is published when a session is torn down by the user
// or because its track was removed.
type TrackStoppedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(track Track) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackProgressEvent is published on every accepted engine tick.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// Fraction returns the progress in [0, 1]; 0 when the duration is unknown.
func (e TrackProgressEvent) Fraction() float64 {
	return ProgressFraction(e.Position, e.Duration)
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackErrorEvent is published when a track fails to open or fails during playback.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Index int
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, index int, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// PlaylistUpdatedEvent is published when the playlist content or the current index changes.
type PlaylistUpdatedEvent struct {
	baseEvent
	Tracks       []Track
	CurrentIndex int
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(tracks []Track, currentIndex int) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent:    newBaseEvent(),
		Tracks:       tracks,
		CurrentIndex: currentIndex,
	}
}

// TracksAddedEvent is published after a batch of sources was appended to the playlist.
type TracksAddedEvent struct {
	baseEvent
	Added   int
	Skipped int
}

// Type returns the event type.
func (e TracksAddedEvent) Type() EventType {
	return EventTracksAdded
}

// NewTracksAddedEvent creates a new TracksAddedEvent.
func NewTracksAddedEvent(added, skipped int) TracksAddedEvent {
	return TracksAddedEvent{
		baseEvent: newBaseEvent(),
		Added:     added,
		Skipped:   skipped,
	}
}

// StatusLevel classifies status line messages.
type StatusLevel int

const (
	// StatusInfo is a regular status message
	StatusInfo StatusLevel = iota

	// StatusError is a user-visible error message
	StatusError
)

// StatusEvent carries a message for the status line.
type StatusEvent struct {
	baseEvent
	Message string
	Level   StatusLevel
}

// Type returns the event type.
func (e StatusEvent) Type() EventType {
	return EventStatus
}

// NewStatusEvent creates an informational StatusEvent.
func NewStatusEvent(message string) StatusEvent {
	return StatusEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
		Level:     StatusInfo,
	}
}

// NewErrorStatusEvent creates an error StatusEvent.
func NewErrorStatusEvent(message string) StatusEvent {
	return StatusEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
		Level:     StatusError,
	}
}

// ScanStartedEvent is published when a folder scan begins.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanCompletedEvent is published when a folder scan finishes.
type ScanCompletedEvent struct {
	baseEvent
	Path     string
	Found    int
	Duration time.Duration
	Err      error
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(path string, found int, duration time.Duration, err error) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
		Found:     found,
		Duration:  duration,
		Err:       err,
	}
}
