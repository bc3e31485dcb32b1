// Package service provides the playback core of the SpectraTune player.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
	"github.com/tejashwikalptaru/spectratune/internal/visualizer"
)

// DefaultVolume is the volume before the user or the preferences set one.
const DefaultVolume = 0.5

// playbackSession is the single live engine session.
type playbackSession struct {
	id       domain.SessionID
	handle   domain.EngineHandle
	track    domain.Track
	position time.Duration
	duration time.Duration
}

// PlaybackService is the playback state machine. It owns the live engine
// session, reacts to engine events and drives the playlist selection.
//
// Commands are expected on the UI goroutine; engine events reach it through
// the dispatcher. State is still guarded by a mutex and bus events are
// published only after the mutex is released.
type PlaybackService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	engine     ports.MediaEngine
	bus        ports.EventBus
	playlist   *Playlist
	spectrum   *visualizer.Store
	dispatcher ports.Dispatcher

	// State
	state       domain.PlaybackState
	session     *playbackSession
	lastSession domain.SessionID
	volume      float64
	scrubbing   bool
	lastError   string

	// outbox collects events while mu is held
	outbox []domain.Event

	// Concurrency control
	mu sync.Mutex
}

// NewPlaybackService creates a playback service and installs itself as the
// engine's event sink. spectrum may be nil when nothing renders spectra;
// dispatcher may be nil to handle engine events on the calling goroutine.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.MediaEngine,
	bus ports.EventBus,
	playlist *Playlist,
	spectrum *visualizer.Store,
	dispatcher ports.Dispatcher,
) *PlaybackService {
	if dispatcher == nil {
		dispatcher = ImmediateDispatcher{}
	}

	s := &PlaybackService{
		logger:     logger.With(slog.String("service", "PlaybackService")),
		engine:     engine,
		bus:        bus,
		playlist:   playlist,
		spectrum:   spectrum,
		dispatcher: dispatcher,
		state:      domain.StateEmpty,
		volume:     DefaultVolume,
	}

	engine.SetEventSink(s.routeEngineEvent)
	s.logger.Debug("playback service initialized")

	return s
}

// unlockAndFlush releases mu and publishes the queued events.
func (s *PlaybackService) unlockAndFlush() {
	events := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, e := range events {
		s.bus.Publish(e)
	}
}

func (s *PlaybackService) emit(e domain.Event) {
	s.outbox = append(s.outbox, e)
}

func (s *PlaybackService) setStateLocked(to domain.PlaybackState) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	s.logger.Debug("state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	s.emit(domain.NewStateChangedEvent(from, to))
}

func (s *PlaybackService) emitPlaylistLocked() {
	s.emit(domain.NewPlaylistUpdatedEvent(s.playlist.Tracks(), s.playlist.Current()))
}

// teardownLocked stops and disposes the live session, if any.
func (s *PlaybackService) teardownLocked() {
	if s.spectrum != nil {
		s.spectrum.Clear()
	}
	s.scrubbing = false

	if s.session == nil {
		return
	}

	handle := s.session.handle
	s.session = nil

	if err := s.engine.Stop(handle); err != nil {
		s.logger.Warn("failed to stop session", slog.Int64("handle", int64(handle)), slog.Any("error", err))
	}
	if err := s.engine.Dispose(handle); err != nil {
		s.logger.Warn("failed to dispose session", slog.Int64("handle", int64(handle)), slog.Any("error", err))
	}
}

// LoadAndPlay tears down the live session and starts the track at index.
//
// On failure the state becomes Error, the selection keeps its previous value
// and no engine handle is left behind.
func (s *PlaybackService) LoadAndPlay(index int) error {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.loadAndPlayLocked(index)
}

func (s *PlaybackService) loadAndPlayLocked(index int) error {
	track, ok := s.playlist.At(index)
	if !ok {
		s.logger.Debug("load ignored", slog.Int("index", index))
		return domain.ErrInvalidIndex
	}

	s.teardownLocked()
	s.setStateLocked(domain.StateLoading)

	s.lastSession++
	id := s.lastSession

	handle, err := s.engine.Open(track.Source, id)
	if err != nil {
		if handle != domain.InvalidHandle {
			s.disposeQuietly(handle)
		}
		var openErr *domain.SourceOpenError
		if !errors.As(err, &openErr) {
			err = domain.NewSourceOpenError(track.Source, err)
		}
		s.failLocked(track, index, err, fmt.Sprintf("Cannot open %s: %v", track.Name, errors.Unwrap(err)))
		return err
	}

	if err := s.engine.SetVolume(handle, s.volume); err != nil {
		s.logger.Warn("failed to apply volume", slog.Any("error", err))
	}

	if s.spectrum != nil {
		s.spectrum.Activate(id)
	}

	if err := s.engine.Play(handle); err != nil {
		s.disposeQuietly(handle)
		if s.spectrum != nil {
			s.spectrum.Clear()
		}
		err = domain.NewSourceOpenError(track.Source, err)
		s.failLocked(track, index, err, fmt.Sprintf("Cannot play %s: %v", track.Name, errors.Unwrap(err)))
		return err
	}

	if err := s.playlist.Select(index); err != nil {
		s.logger.Warn("failed to select track", slog.Int("index", index), slog.Any("error", err))
	}

	s.session = &playbackSession{
		id:     id,
		handle: handle,
		track:  track,
	}
	s.lastError = ""

	s.logger.Info("playing",
		slog.String("source", track.Source),
		slog.Int("index", index),
		slog.Uint64("session", uint64(id)))

	s.setStateLocked(domain.StatePlaying)
	s.emit(domain.NewTrackStartedEvent(track, index, id))
	s.emitPlaylistLocked()
	s.emit(domain.NewStatusEvent("Playing: " + track.Name))
	return nil
}

func (s *PlaybackService) disposeQuietly(handle domain.EngineHandle) {
	if err := s.engine.Dispose(handle); err != nil {
		s.logger.Warn("failed to dispose handle", slog.Int64("handle", int64(handle)), slog.Any("error", err))
	}
}

// failLocked moves to the Error state and reports err.
func (s *PlaybackService) failLocked(track domain.Track, index int, err error, message string) {
	s.logger.Error("playback failed",
		slog.String("source", track.Source),
		slog.Any("error", err))

	s.lastError = message
	s.setStateLocked(domain.StateError)
	s.emit(domain.NewTrackErrorEvent(track, index, err))
	s.emit(domain.NewErrorStatusEvent(message))
}

// TogglePlayPause pauses a playing session, resumes a paused one, or starts
// the selected track (the first one when nothing is selected). It does
// nothing on an empty playlist and returns ErrPlaylistEmpty.
func (s *PlaybackService) TogglePlayPause() error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.playlist.IsEmpty() {
		return domain.ErrPlaylistEmpty
	}

	if s.session == nil {
		index := s.playlist.Current()
		if index < 0 {
			index = 0
		}
		return s.loadAndPlayLocked(index)
	}

	switch s.state {
	case domain.StatePlaying:
		if err := s.engine.Pause(s.session.handle); err != nil {
			s.logger.Error("pause failed", slog.Any("error", err))
			s.emit(domain.NewErrorStatusEvent(fmt.Sprintf("Pause failed: %v", err)))
			return err
		}
		s.setStateLocked(domain.StatePaused)
		s.emit(domain.NewTrackPausedEvent(s.session.track, s.session.position))
		s.emit(domain.NewStatusEvent("Paused"))

	case domain.StatePaused:
		if err := s.engine.Play(s.session.handle); err != nil {
			s.logger.Error("resume failed", slog.Any("error", err))
			s.emit(domain.NewErrorStatusEvent(fmt.Sprintf("Resume failed: %v", err)))
			return err
		}
		s.setStateLocked(domain.StatePlaying)
		s.emit(domain.NewTrackResumedEvent(s.session.track))
		s.emit(domain.NewStatusEvent("Playback"))
	}
	return nil
}

// Next plays the track after the current one, wrapping to the first.
func (s *PlaybackService) Next() error {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.nextLocked()
}

func (s *PlaybackService) nextLocked() error {
	index := s.playlist.NextIndex(s.playlist.Current())
	if index < 0 {
		return domain.ErrPlaylistEmpty
	}
	return s.loadAndPlayLocked(index)
}

// Previous plays the track before the current one, wrapping to the last.
func (s *PlaybackService) Previous() error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	index := s.playlist.PreviousIndex(s.playlist.Current())
	if index < 0 {
		return domain.ErrPlaylistEmpty
	}
	return s.loadAndPlayLocked(index)
}

// Select plays the track at index, as when the user picks it in the list.
func (s *PlaybackService) Select(index int) error {
	return s.LoadAndPlay(index)
}

// Stop tears down the live session and keeps the selection.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.session == nil {
		return nil
	}

	track := s.session.track
	s.teardownLocked()
	s.setStateLocked(domain.StateStopped)
	s.emit(domain.NewTrackStoppedEvent(track))
	s.emit(domain.NewTrackProgressEvent(0, 0))
	s.emit(domain.NewStatusEvent("Stopped"))
	return nil
}

// BeginScrub suspends position updates while the user drags the progress
// control. Without a session it returns ErrNoSession.
func (s *PlaybackService) BeginScrub() error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.session == nil {
		return domain.ErrNoSession
	}
	s.scrubbing = true
	return nil
}

// EndScrub resumes position updates and seeks to fraction of the track.
// fraction is clamped to [0, 1]. Without a session it returns ErrNoSession;
// while the duration is unknown no seek happens.
func (s *PlaybackService) EndScrub(fraction float64) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	s.scrubbing = false
	if s.session == nil {
		return domain.ErrNoSession
	}
	if s.session.duration <= 0 {
		return nil
	}

	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	duration := s.session.duration
	target := min(max(time.Duration(fraction*float64(duration)), 0), duration)

	if err := s.engine.Seek(s.session.handle, target); err != nil {
		s.logger.Warn("seek failed", slog.Duration("target", target), slog.Any("error", err))
		s.emit(domain.NewErrorStatusEvent(fmt.Sprintf("Seek failed: %v", err)))
		return err
	}

	s.session.position = target
	s.emit(domain.NewTrackProgressEvent(target, duration))
	return nil
}

// SetVolume stores the volume and applies it to the live session.
func (s *PlaybackService) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	s.volume = volume
	if s.session != nil {
		if err := s.engine.SetVolume(s.session.handle, volume); err != nil {
			s.logger.Warn("failed to apply volume", slog.Any("error", err))
		}
	}
	s.emit(domain.NewVolumeChangedEvent(volume))
	return nil
}

// Volume returns the current volume.
func (s *PlaybackService) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// AddTracks appends sources to the playlist, skipping duplicates.
// It returns the number of tracks added.
func (s *PlaybackService) AddTracks(sources ...string) int {
	if len(sources) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	tracks := make([]domain.Track, 0, len(sources))
	for _, src := range sources {
		tracks = append(tracks, domain.NewTrack(src))
	}
	added := s.playlist.AddAll(tracks)

	s.logger.Info("tracks added", slog.Int("added", added), slog.Int("selected", len(sources)))

	s.emit(domain.NewTracksAddedEvent(added, len(sources)-added))
	s.emitPlaylistLocked()
	s.emit(domain.NewStatusEvent(fmt.Sprintf("Loaded %d file(s)", len(sources))))
	return added
}

// RemoveTrack removes the track at index. Removing the playing track stops
// playback; removing the last track returns the player to Empty.
func (s *PlaybackService) RemoveTrack(index int) error {
	s.mu.Lock()
	defer s.unlockAndFlush()

	removed, wasCurrent, err := s.playlist.RemoveAt(index)
	if err != nil {
		return err
	}

	emptied := s.playlist.IsEmpty()
	if wasCurrent && s.session != nil {
		s.teardownLocked()
		s.setStateLocked(domain.StateStopped)
		s.emit(domain.NewTrackStoppedEvent(removed))
		s.emit(domain.NewTrackProgressEvent(0, 0))
	}
	if emptied {
		s.teardownLocked()
		s.lastError = ""
		s.setStateLocked(domain.StateEmpty)
	}

	s.emitPlaylistLocked()
	s.emit(domain.NewStatusEvent("Removed: " + removed.Name))
	return nil
}

// routeEngineEvent runs on engine goroutines. Spectrum events go straight to
// the snapshot store; everything else is marshalled to the UI goroutine.
func (s *PlaybackService) routeEngineEvent(e domain.EngineEvent) {
	if e.Kind == domain.EngineSpectrum {
		if s.spectrum != nil {
			s.spectrum.Publish(e.Session, e.Magnitudes, e.At)
		}
		return
	}
	s.dispatcher.Do(func() {
		s.HandleEngineEvent(e)
	})
}

// HandleEngineEvent applies an engine event to the state machine.
// Events of any session other than the live one are dropped.
func (s *PlaybackService) HandleEngineEvent(e domain.EngineEvent) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.session == nil || e.Session != s.session.id {
		s.logger.Debug("stale engine event dropped",
			slog.String("kind", e.Kind.String()),
			slog.Uint64("session", uint64(e.Session)))
		return
	}

	switch e.Kind {
	case domain.EngineReady:
		s.session.duration = e.Duration
		s.emit(domain.NewTrackReadyEvent(s.session.track, e.Duration))
		s.emit(domain.NewTrackProgressEvent(s.session.position, e.Duration))

	case domain.EngineTick:
		if e.Duration > 0 {
			s.session.duration = e.Duration
		}
		if s.scrubbing {
			return
		}
		s.session.position = e.Position
		s.emit(domain.NewTrackProgressEvent(e.Position, s.session.duration))

	case domain.EngineEndOfMedia:
		s.logger.Debug("end of media", slog.String("source", s.session.track.Source))
		if err := s.nextLocked(); err != nil {
			s.logger.Debug("auto-advance failed", slog.Any("error", err))
		}

	case domain.EngineError:
		track := s.session.track
		runtimeErr := domain.NewEngineRuntimeError(e.Session, track.Source, e.Err)
		s.teardownLocked()
		s.failLocked(track, s.playlist.Current(), runtimeErr, fmt.Sprintf("Playback error: %v", e.Err))

	case domain.EngineSpectrum:
		if s.spectrum != nil {
			s.spectrum.Publish(e.Session, e.Magnitudes, e.At)
		}
	}
}

// State returns a snapshot of the state machine.
func (s *PlaybackService) State() domain.PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.PlayerStatus{
		State:        s.state,
		CurrentIndex: s.playlist.Current(),
		Volume:       s.volume,
		Scrubbing:    s.scrubbing,
		LastError:    s.lastError,
		Handle:       domain.InvalidHandle,
	}
	if s.session != nil {
		track := s.session.track
		status.CurrentTrack = &track
		status.Session = s.session.id
		status.Handle = s.session.handle
		status.Position = s.session.position
		status.Duration = s.session.duration
	}
	return status
}

// Playlist returns the playlist the service drives.
func (s *PlaybackService) Playlist() *Playlist {
	return s.playlist
}

// Shutdown tears down the live session and detaches from the engine.
func (s *PlaybackService) Shutdown() error {
	s.engine.SetEventSink(nil)

	s.mu.Lock()
	defer s.unlockAndFlush()

	s.teardownLocked()
	s.logger.Debug("playback service shut down")
	return nil
}
