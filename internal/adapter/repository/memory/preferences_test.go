package memory

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// newTestPreferencesRepository uses a fresh in-memory test app per call.
func newTestPreferencesRepository() *PreferencesRepository {
	app := test.NewApp()
	return NewPreferencesRepository(app.Preferences())
}

func TestPreferencesRepository_SaveAndLoadVolume(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveVolume(0.75))

	volume, ok, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.75, volume)
}

func TestPreferencesRepository_LoadVolume_NothingSaved(t *testing.T) {
	repo := newTestPreferencesRepository()

	_, ok, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferencesRepository_SaveVolume_BoundaryValues(t *testing.T) {
	repo := newTestPreferencesRepository()

	for _, v := range []float64{0.0, 1.0} {
		require.NoError(t, repo.SaveVolume(v))

		volume, ok, err := repo.LoadVolume()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, v, volume)
	}
}

func TestPreferencesRepository_SaveVolume_RejectsOutOfRange(t *testing.T) {
	repo := newTestPreferencesRepository()

	assert.ErrorIs(t, repo.SaveVolume(1.5), domain.ErrInvalidVolume)
	assert.ErrorIs(t, repo.SaveVolume(-0.1), domain.ErrInvalidVolume)
}

func TestPreferencesRepository_Clear(t *testing.T) {
	repo := newTestPreferencesRepository()
	require.NoError(t, repo.SaveVolume(0.3))

	require.NoError(t, repo.Clear())

	_, ok, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferencesRepository_RoundsToPermille(t *testing.T) {
	repo := newTestPreferencesRepository()
	require.NoError(t, repo.SaveVolume(0.12345))

	volume, ok, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.123, volume)
}

func TestPreferencesRepository_IgnoresCorruptValue(t *testing.T) {
	app := test.NewApp()
	app.Preferences().SetInt(keyVolume, 5000)
	repo := NewPreferencesRepository(app.Preferences())

	_, ok, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.False(t, ok)
}
