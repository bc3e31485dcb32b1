package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/spectratune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/logger"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

// fakePreferences is an in-memory PreferencesRepository.
type fakePreferences struct {
	mu      sync.Mutex
	volume  float64
	saved   bool
	saves   int
	loadErr error
	saveErr error
}

func (f *fakePreferences) SaveVolume(volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.volume = volume
	f.saved = true
	f.saves++
	return nil
}

func (f *fakePreferences) LoadVolume() (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume, f.saved, f.loadErr
}

func (f *fakePreferences) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume, f.saved = 0, false
	return nil
}

var _ ports.PreferencesRepository = (*fakePreferences)(nil)

func newTestPreferenceService(t *testing.T, repo *fakePreferences) (*PreferenceService, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	svc := NewPreferenceService(logger.NewTestLogger(), repo, bus, DefaultVolume)
	t.Cleanup(func() {
		svc.Shutdown()
		_ = bus.Close()
	})
	return svc, bus
}

func TestPreferenceService_Fallback(t *testing.T) {
	svc, _ := newTestPreferenceService(t, &fakePreferences{})

	assert.Equal(t, DefaultVolume, svc.Volume())
	assert.False(t, svc.HasSavedVolume())
}

func TestPreferenceService_LoadsSavedVolume(t *testing.T) {
	svc, _ := newTestPreferenceService(t, &fakePreferences{volume: 0.25, saved: true})

	assert.Equal(t, 0.25, svc.Volume())
	assert.True(t, svc.HasSavedVolume())
}

func TestPreferenceService_LoadErrorUsesFallback(t *testing.T) {
	svc, _ := newTestPreferenceService(t, &fakePreferences{volume: 0.9, saved: true, loadErr: errors.New("corrupt")})

	assert.Equal(t, DefaultVolume, svc.Volume())
	assert.False(t, svc.HasSavedVolume())
}

func TestPreferenceService_SetVolume(t *testing.T) {
	repo := &fakePreferences{}
	svc, _ := newTestPreferenceService(t, repo)

	require.NoError(t, svc.SetVolume(0.7))
	assert.Equal(t, 0.7, svc.Volume())
	assert.Equal(t, 0.7, repo.volume)

	// Unchanged values are not written again
	require.NoError(t, svc.SetVolume(0.7))
	assert.Equal(t, 1, repo.saves)
}

func TestPreferenceService_SetVolume_Invalid(t *testing.T) {
	repo := &fakePreferences{}
	svc, _ := newTestPreferenceService(t, repo)

	assert.ErrorIs(t, svc.SetVolume(-0.5), domain.ErrInvalidVolume)
	assert.ErrorIs(t, svc.SetVolume(1.5), domain.ErrInvalidVolume)
	assert.Zero(t, repo.saves)
}

func TestPreferenceService_SetVolume_SaveError(t *testing.T) {
	repo := &fakePreferences{saveErr: errors.New("disk full")}
	svc, _ := newTestPreferenceService(t, repo)

	assert.Error(t, svc.SetVolume(0.4))
}

func TestPreferenceService_PersistsVolumeEvents(t *testing.T) {
	repo := &fakePreferences{}
	svc, bus := newTestPreferenceService(t, repo)

	bus.Publish(domain.NewVolumeChangedEvent(0.35))

	assert.Equal(t, 0.35, repo.volume)
	assert.Equal(t, 0.35, svc.Volume())
	assert.True(t, svc.HasSavedVolume())
}

func TestPreferenceService_FollowsPlaybackService(t *testing.T) {
	repo := &fakePreferences{}
	playback, _, bus, _ := newTestPlaybackService(t)
	prefs := NewPreferenceService(logger.NewTestLogger(), repo, bus, DefaultVolume)
	defer prefs.Shutdown()

	require.NoError(t, playback.SetVolume(0.6))

	assert.Equal(t, 0.6, repo.volume)
}

func TestPreferenceService_Shutdown(t *testing.T) {
	repo := &fakePreferences{}
	svc, bus := newTestPreferenceService(t, repo)

	svc.Shutdown()
	bus.Publish(domain.NewVolumeChangedEvent(0.9))

	assert.Zero(t, repo.saves)
}
