// Package service provides the playback core of the SpectraTune player.
package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

// PreferenceService keeps the persisted volume in sync with the playback core.
// It listens for volume changes on the bus and writes them to the repository.
//
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	volume float64
	saved  bool

	subID domain.SubscriptionID

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service. fallbackVolume is
// reported until a volume has been saved.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
	fallbackVolume float64,
) *PreferenceService {
	s := &PreferenceService{
		logger:     logger.With(slog.String("service", "PreferenceService")),
		repository: repository,
		bus:        bus,
		volume:     fallbackVolume,
	}

	if vol, ok, err := repository.LoadVolume(); err != nil {
		s.logger.Warn("failed to load volume", slog.Any("error", err))
	} else if ok {
		s.volume = vol
		s.saved = true
	}

	s.subID = bus.Subscribe(domain.EventVolumeChanged, s.onVolumeChanged)
	s.logger.Debug("preference service initialized", slog.Float64("volume", s.volume))

	return s
}

func (s *PreferenceService) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	if err := s.SetVolume(e.Volume); err != nil {
		s.logger.Warn("failed to persist volume", slog.Any("error", err))
	}
}

// Volume returns the saved volume, or the fallback when none was saved.
func (s *PreferenceService) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// HasSavedVolume reports whether a volume was loaded from or written to the repository.
func (s *PreferenceService) HasSavedVolume() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saved
}

// SetVolume saves the volume preference (0.0 to 1.0).
func (s *PreferenceService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	if s.saved && s.volume == volume {
		s.mu.Unlock()
		return nil
	}
	s.volume = volume
	s.saved = true
	s.mu.Unlock()

	return s.repository.SaveVolume(volume)
}

// Shutdown unsubscribes from the bus.
func (s *PreferenceService) Shutdown() {
	s.bus.Unsubscribe(s.subID)
}
