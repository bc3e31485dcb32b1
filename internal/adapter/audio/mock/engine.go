// Package mock provides a mock implementation of the MediaEngine interface.
// It is used for testing the playback core without an audio device.
package mock

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

// DefaultDuration is the media length reported for sources without a configured duration.
const DefaultDuration = 3 * time.Minute

// Status is the output state of a mock session.
type Status int

// Mock session states.
const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

// HandleState is a read-only view of a mock session, for assertions in tests.
type HandleState struct {
	Source   string
	Session  domain.SessionID
	Position time.Duration
	Duration time.Duration
	Volume   float64
	Status   Status
}

// Engine is a mock implementation of the MediaEngine interface.
// It simulates playback in memory. Events are only delivered when a test
// calls one of the Emit methods or SimulateProgress, never from inside a command.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Configuration
	initialized bool
	sampleRate  int
	spectrum    domain.SpectrumConfig
	durations   map[string]time.Duration

	// Session state
	handles    map[domain.EngineHandle]*mockSession
	nextHandle domain.EngineHandle
	disposed   int
	sink       ports.EngineEventSink
	mu         sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failOpen       map[string]error
	failOpenAll    bool
	failPlay       bool
	failSeek       bool
}

type mockSession struct {
	source   string
	session  domain.SessionID
	position time.Duration
	duration time.Duration
	volume   float64
	status   Status
}

// NewEngine creates a new mock media engine.
func NewEngine() *Engine {
	return &Engine{
		durations:  make(map[string]time.Duration),
		handles:    make(map[domain.EngineHandle]*mockSession),
		failOpen:   make(map[string]error),
		nextHandle: 1,
	}
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailInitialize configures the mock to fail initialization.
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailOpen configures the mock to fail opening every source.
func (m *Engine) SetFailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpenAll = fail
}

// FailSource makes Open fail for one source with err.
func (m *Engine) FailSource(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen[source] = err
}

// SetFailPlay configures the mock to fail Play.
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailSeek configures the mock to fail Seek.
func (m *Engine) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// SetDuration sets the media length reported for source.
func (m *Engine) SetDuration(source string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[source] = d
}

// Initialize initializes the mock engine.
func (m *Engine) Initialize(sampleRate int, spectrum domain.SpectrumConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.sampleRate = sampleRate
	m.spectrum = spectrum
	return nil
}

// Shutdown releases every session.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.disposed += len(m.handles)
	m.handles = make(map[domain.EngineHandle]*mockSession)
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetEventSink installs the event receiver.
func (m *Engine) SetEventSink(sink ports.EngineEventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// Open creates a paused session for source.
func (m *Engine) Open(source string, session domain.SessionID) (domain.EngineHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidHandle, domain.NewSourceOpenError(source, domain.ErrNotInitialized)
	}
	if err, ok := m.failOpen[source]; ok {
		return domain.InvalidHandle, domain.NewSourceOpenError(source, err)
	}
	if m.failOpenAll {
		return domain.InvalidHandle, domain.NewSourceOpenError(source, errors.New("mock open failed"))
	}

	duration, ok := m.durations[source]
	if !ok {
		duration = DefaultDuration
	}

	handle := m.nextHandle
	m.nextHandle++
	m.handles[handle] = &mockSession{
		source:   source,
		session:  session,
		duration: duration,
		volume:   1.0,
		status:   StatusPaused,
	}

	if m.logger != nil {
		m.logger.Debug("mock session opened",
			slog.String("source", source),
			slog.Uint64("session", uint64(session)),
			slog.Int64("handle", int64(handle)))
	}
	return handle, nil
}

// Play starts or resumes a session.
func (m *Engine) Play(handle domain.EngineHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.handles[handle]
	if !ok {
		return domain.ErrInvalidHandle
	}
	if m.failPlay {
		return domain.NewAudioEngineError("play", s.source, "mock play failed", nil)
	}
	s.status = StatusPlaying
	return nil
}

// Pause pauses a session.
func (m *Engine) Pause(handle domain.EngineHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.handles[handle]
	if !ok {
		return domain.ErrInvalidHandle
	}
	s.status = StatusPaused
	return nil
}

// Stop stops a session; the handle stays valid until Dispose.
func (m *Engine) Stop(handle domain.EngineHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.handles[handle]
	if !ok {
		return domain.ErrInvalidHandle
	}
	s.status = StatusStopped
	s.position = 0
	return nil
}

// Dispose releases a session. Unknown handles are ignored.
func (m *Engine) Dispose(handle domain.EngineHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.handles[handle]; ok {
		delete(m.handles, handle)
		m.disposed++
	}
	return nil
}

// Seek sets the position, clamped to the media length.
func (m *Engine) Seek(handle domain.EngineHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.handles[handle]
	if !ok {
		return domain.ErrInvalidHandle
	}
	if m.failSeek {
		return domain.NewAudioEngineError("seek", s.source, "mock seek failed", nil)
	}
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	s.position = min(position, s.duration)
	return nil
}

// SetVolume sets the gain of a session.
func (m *Engine) SetVolume(handle domain.EngineHandle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.handles[handle]
	if !ok {
		return domain.ErrInvalidHandle
	}
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	s.volume = volume
	return nil
}

// LiveHandles returns the number of handles not yet disposed.
func (m *Engine) LiveHandles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// DisposedHandles returns how many handles were released so far.
func (m *Engine) DisposedHandles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.disposed
}

// State returns the state of a session.
func (m *Engine) State(handle domain.EngineHandle) (HandleState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.handles[handle]
	if !ok {
		return HandleState{}, false
	}
	return HandleState{
		Source:   s.source,
		Session:  s.session,
		Position: s.position,
		Duration: s.duration,
		Volume:   s.volume,
		Status:   s.status,
	}, true
}

// Emit delivers ev to the sink as if it came from an engine goroutine.
func (m *Engine) Emit(ev domain.EngineEvent) {
	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()

	if sink != nil {
		sink(ev)
	}
}

func (m *Engine) sessionOf(handle domain.EngineHandle) (mockSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.handles[handle]
	if !ok {
		return mockSession{}, false
	}
	return *s, true
}

// EmitReady reports the media length of a session.
func (m *Engine) EmitReady(handle domain.EngineHandle) {
	if s, ok := m.sessionOf(handle); ok {
		m.Emit(domain.NewReadyEvent(s.session, s.duration))
	}
}

// EmitTick reports position for a session.
func (m *Engine) EmitTick(handle domain.EngineHandle, position time.Duration) {
	if s, ok := m.sessionOf(handle); ok {
		m.Emit(domain.NewTickEvent(s.session, position, s.duration))
	}
}

// EmitEndOfMedia reports that a session reached its end.
func (m *Engine) EmitEndOfMedia(handle domain.EngineHandle) {
	if s, ok := m.sessionOf(handle); ok {
		m.Emit(domain.NewEndOfMediaEvent(s.session))
	}
}

// EmitError reports a runtime failure of a session.
func (m *Engine) EmitError(handle domain.EngineHandle, err error) {
	if s, ok := m.sessionOf(handle); ok {
		m.Emit(domain.NewEngineErrorEvent(s.session, err))
	}
}

// EmitSpectrum reports spectrum magnitudes for a session.
func (m *Engine) EmitSpectrum(handle domain.EngineHandle, magnitudes []float64) {
	if s, ok := m.sessionOf(handle); ok {
		m.Emit(domain.NewSpectrumEvent(s.session, magnitudes))
	}
}

// SimulateProgress advances a playing session by delta and emits a tick, or
// end of media once the position reaches the length.
func (m *Engine) SimulateProgress(handle domain.EngineHandle, delta time.Duration) error {
	m.mu.Lock()
	s, ok := m.handles[handle]
	if !ok {
		m.mu.Unlock()
		return domain.ErrInvalidHandle
	}
	if s.status != StatusPlaying {
		m.mu.Unlock()
		return nil
	}

	s.position = min(s.position+delta, s.duration)
	ev := domain.NewTickEvent(s.session, s.position, s.duration)
	if s.position >= s.duration {
		s.status = StatusStopped
		ev = domain.NewEndOfMediaEvent(s.session)
	}
	m.mu.Unlock()

	m.Emit(ev)
	return nil
}

// Verify that Engine implements the MediaEngine interface
var _ ports.MediaEngine = (*Engine)(nil)
