// Package beepaudio provides the MediaEngine implementation backed by the
// gopxl/beep decoders and speaker.
package beepaudio

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

const (
	// FFTSize is the number of samples analyzed per spectrum frame.
	FFTSize = 2048

	// TickInterval is the minimum time between position ticks.
	TickInterval = 200 * time.Millisecond

	// speakerBuffer is the output buffer length handed to speaker.Init.
	speakerBuffer = 100 * time.Millisecond

	resampleQuality = 4
)

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

// decoders maps lower-case extensions to their beep decoders. AAC and M4A
// are listed by the file dialog but have no decoder and fail to open.
var decoders = map[string]decodeFunc{
	".mp3":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".wav":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	".flac": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(f) },
	".ogg":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
}

// Engine plays local files through the beep speaker.
//
// Each open session runs a poller goroutine that reports readiness, position
// ticks, spectrum frames, end of media and stream errors to the event sink.
// Events are never delivered from inside a command.
//
// Thread-safety: This implementation is thread-safe. Stream state is guarded
// by the speaker lock, the session table by mu.
type Engine struct {
	logger *slog.Logger

	initialized bool
	sampleRate  beep.SampleRate
	spectrum    domain.SpectrumConfig

	sessions   map[domain.EngineHandle]*session
	nextHandle domain.EngineHandle
	sink       ports.EngineEventSink
	mu         sync.RWMutex

	wg sync.WaitGroup
}

// session is one decoded source and its output pipeline:
//
//	decoder -> resampler -> volume -> tap -> ctrl -> speaker
type session struct {
	id     domain.SessionID
	source string

	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	volume   *effects.Volume
	tap      *Tap
	ctrl     *beep.Ctrl

	// guarded by the speaker lock
	queued bool
	closed bool

	ended atomic.Bool
	stop  chan struct{}
}

// NewEngine creates a beep media engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:     logger.With(slog.String("component", "BeepEngine")),
		sessions:   make(map[domain.EngineHandle]*session),
		nextHandle: 1,
	}
}

// Initialize opens the audio device at sampleRate.
func (e *Engine) Initialize(sampleRate int, spectrum domain.SpectrumConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if sampleRate <= 0 {
		return domain.NewAudioEngineError("initialize", "", fmt.Sprintf("invalid sample rate %d", sampleRate), nil)
	}

	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
		return domain.NewAudioEngineError("initialize", "", "failed to open audio device", err)
	}

	e.initialized = true
	e.sampleRate = sr
	e.spectrum = spectrum
	e.logger.Info("audio device initialized",
		slog.Int("sample_rate", sampleRate),
		slog.Int("bands", spectrum.Bands),
		slog.Duration("interval", spectrum.Interval))
	return nil
}

// Shutdown disposes every session and closes the audio device.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return domain.ErrNotInitialized
	}
	sessions := e.sessions
	e.sessions = make(map[domain.EngineHandle]*session)
	e.initialized = false
	e.mu.Unlock()

	for _, s := range sessions {
		e.release(s)
	}
	e.wg.Wait()

	speaker.Clear()
	speaker.Close()
	e.logger.Info("audio device closed")
	return nil
}

// SetEventSink installs the event receiver. nil detaches it.
func (e *Engine) SetEventSink(sink ports.EngineEventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

func (e *Engine) emit(ev domain.EngineEvent) {
	e.mu.RLock()
	sink := e.sink
	e.mu.RUnlock()

	if sink != nil {
		sink(ev)
	}
}

// Open decodes source and prepares a paused session. Readiness is reported
// asynchronously.
func (e *Engine) Open(source string, id domain.SessionID) (domain.EngineHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.InvalidHandle, domain.NewSourceOpenError(source, domain.ErrNotInitialized)
	}

	file, streamer, format, err := decode(source)
	if err != nil {
		return domain.InvalidHandle, domain.NewSourceOpenError(source, err)
	}

	var out beep.Streamer = streamer
	if format.SampleRate != e.sampleRate {
		out = beep.Resample(resampleQuality, format.SampleRate, e.sampleRate, out)
	}

	s := &session{
		id:       id,
		source:   source,
		file:     file,
		streamer: streamer,
		format:   format,
		stop:     make(chan struct{}),
	}
	s.tap, s.volume, s.ctrl = signalChain(out)

	handle := e.nextHandle
	e.nextHandle++
	e.sessions[handle] = s

	e.wg.Add(1)
	go e.poll(s, NewAnalyzer(FFTSize, int(e.sampleRate), e.spectrum), e.spectrum.Interval)

	e.logger.Debug("session opened",
		slog.String("source", source),
		slog.Uint64("session", uint64(id)),
		slog.Int64("handle", int64(handle)),
		slog.Int("sample_rate", int(format.SampleRate)))
	return handle, nil
}

// decode opens path and picks a decoder by extension.
// signalChain builds src -> tap -> volume -> ctrl. The tap sits before the
// gain stage so the spectrum reflects the source at any volume, muted included.
// The chain starts paused.
func signalChain(src beep.Streamer) (*Tap, *effects.Volume, *beep.Ctrl) {
	tap := NewTap(src, FFTSize)
	volume := &effects.Volume{Streamer: tap, Base: 2}
	ctrl := &beep.Ctrl{Streamer: volume, Paused: true}
	return tap, volume, ctrl
}

func decode(path string) (*os.File, beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return nil, nil, beep.Format{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, beep.Format{}, domain.ErrFileNotFound
		}
		return nil, nil, beep.Format{}, err
	}

	streamer, format, err := dec(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return f, streamer, format, nil
}

func (e *Engine) lookup(handle domain.EngineHandle) (*session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.sessions[handle]
	if !ok {
		return nil, domain.ErrInvalidHandle
	}
	return s, nil
}

// Play starts or resumes a session.
func (e *Engine) Play(handle domain.EngineHandle) error {
	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	speaker.Lock()
	s.ctrl.Paused = false
	queue := !s.queued
	s.queued = true
	speaker.Unlock()

	if queue {
		speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
			s.ended.Store(true)
		})))
	}
	return nil
}

// Pause pauses a session.
func (e *Engine) Pause(handle domain.EngineHandle) error {
	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop pauses a session and rewinds it.
func (e *Engine) Stop(handle domain.EngineHandle) error {
	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	speaker.Lock()
	defer speaker.Unlock()

	s.ctrl.Paused = true
	if s.closed {
		return nil
	}
	if err := s.streamer.Seek(0); err != nil {
		return domain.NewAudioEngineError("stop", s.source, "failed to rewind", err)
	}
	s.tap.Reset()
	return nil
}

// Dispose releases a session. Unknown handles are ignored. The poller exits
// on its own; events it emits afterwards carry a stale session id.
func (e *Engine) Dispose(handle domain.EngineHandle) error {
	e.mu.Lock()
	s, ok := e.sessions[handle]
	delete(e.sessions, handle)
	e.mu.Unlock()

	if ok {
		e.release(s)
	}
	return nil
}

func (e *Engine) release(s *session) {
	close(s.stop)

	speaker.Lock()
	s.ctrl.Paused = true
	s.ctrl.Streamer = nil
	s.closed = true
	err := s.streamer.Close()
	speaker.Unlock()

	if err != nil {
		e.logger.Warn("failed to close decoder", slog.String("source", s.source), slog.Any("error", err))
	}
	if err := s.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		e.logger.Warn("failed to close file", slog.String("source", s.source), slog.Any("error", err))
	}
}

// Seek moves a session to position, clamped to the media length.
func (e *Engine) Seek(handle domain.EngineHandle, position time.Duration) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	speaker.Lock()
	defer speaker.Unlock()

	if s.closed {
		return domain.ErrInvalidHandle
	}
	n := min(s.format.SampleRate.N(position), max(s.streamer.Len()-1, 0))
	if err := s.streamer.Seek(n); err != nil {
		return domain.NewAudioEngineError("seek", s.source, "seek failed", err)
	}
	s.tap.Reset()
	return nil
}

// SetVolume sets the linear gain of a session, 0 to 1.
func (e *Engine) SetVolume(handle domain.EngineHandle, volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	s, err := e.lookup(handle)
	if err != nil {
		return err
	}

	speaker.Lock()
	s.volume.Silent, s.volume.Volume = gain(volume)
	speaker.Unlock()
	return nil
}

// gain converts a linear level to the base-2 exponent used by effects.Volume.
func gain(level float64) (silent bool, exponent float64) {
	if level <= 0 {
		return true, 0
	}
	return false, math.Log2(level)
}

// poll reports the state of s until it is released or finishes.
func (e *Engine) poll(s *session, analyzer *Analyzer, interval time.Duration) {
	defer e.wg.Done()

	if interval <= 0 {
		interval = domain.DefaultSpectrumConfig().Interval
	}

	speaker.Lock()
	duration := s.format.SampleRate.D(s.streamer.Len())
	speaker.Unlock()
	e.emit(domain.NewReadyEvent(s.id, duration))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	samples := make([]float64, analyzer.Size())
	var lastTick time.Time

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			speaker.Lock()
			if s.closed {
				speaker.Unlock()
				return
			}
			paused := s.ctrl.Paused
			position := s.format.SampleRate.D(s.streamer.Position())
			streamErr := s.streamer.Err()
			speaker.Unlock()

			if streamErr != nil {
				e.logger.Error("stream failed", slog.String("source", s.source), slog.Any("error", streamErr))
				e.emit(domain.NewEngineErrorEvent(s.id, streamErr))
				return
			}
			if s.ended.Load() {
				e.emit(domain.NewTickEvent(s.id, duration, duration))
				e.emit(domain.NewEndOfMediaEvent(s.id))
				return
			}
			if paused {
				continue
			}

			e.emit(domain.NewSpectrumEvent(s.id, slices.Clone(analyzer.Analyze(s.tap.Samples(samples)))))
			if now.Sub(lastTick) >= TickInterval {
				lastTick = now
				e.emit(domain.NewTickEvent(s.id, position, duration))
			}
		}
	}
}

// Verify that Engine implements the MediaEngine interface
var _ ports.MediaEngine = (*Engine)(nil)
