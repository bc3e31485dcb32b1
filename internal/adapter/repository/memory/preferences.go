// Package memory keeps user preferences in the Fyne preferences store, which
// lives in memory and is flushed to disk by the Fyne app.
package memory

import (
	"math"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

const (
	keyVolume = "spectratune.volume_permille"

	// volumeScale stores the volume as an integer in [0, volumeScale].
	volumeScale = 1000
	unsetVolume = -1
)

// PreferencesRepository stores the volume as an integer per-mille value.
// fyne.Preferences is safe for concurrent use, so no extra locking is needed.
type PreferencesRepository struct {
	prefs fyne.Preferences
}

// NewPreferencesRepository wraps the store of a Fyne app, usually app.Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{prefs: prefs}
}

func (r *PreferencesRepository) SaveVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	r.prefs.SetInt(keyVolume, int(math.Round(volume*volumeScale)))
	return nil
}

// LoadVolume reports ok=false when nothing was saved or the stored value is
// outside the valid range.
func (r *PreferencesRepository) LoadVolume() (float64, bool, error) {
	permille := r.prefs.IntWithFallback(keyVolume, unsetVolume)
	if permille < 0 || permille > volumeScale {
		return 0, false, nil
	}
	return float64(permille) / volumeScale, true, nil
}

func (r *PreferencesRepository) Clear() error {
	r.prefs.RemoveValue(keyVolume)
	return nil
}

var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
