// Package ports define repository interfaces for data persistence abstraction.
package ports

// PreferencesRepository handles the persistence of user preferences.
// Only the volume survives a restart; playlists are never persisted.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveVolume persists the volume level.
	SaveVolume(volume float64) error

	// LoadVolume retrieves the saved volume level.
	// The boolean is false when no volume was saved yet.
	LoadVolume() (float64, bool, error)

	// Clear removes all saved preferences.
	Clear() error
}
