package visualizer

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// Snapshot is one set of spectrum magnitudes in dB as produced by the media engine.
// A published snapshot is never mutated.
type Snapshot struct {
	Session domain.SessionID
	At      time.Time
	Values  []float64
}

// Bands returns the number of bands in the snapshot.
func (s *Snapshot) Bands() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Store hands the latest snapshot from engine goroutines to the render path.
// Writers replace the whole snapshot; readers never block.
//
// Snapshots belonging to a session other than the active one are treated as absent.
type Store struct {
	latest atomic.Pointer[Snapshot]
	active atomic.Uint64
	floor  float64
}

// NewStore creates a store. Non-finite magnitudes are replaced with floor (or 0 for +Inf).
func NewStore(floor float64) *Store {
	return &Store{floor: floor}
}

// Activate marks session as the only one whose snapshots are accepted and drops
// whatever was stored before.
func (s *Store) Activate(session domain.SessionID) {
	s.active.Store(uint64(session))
	s.latest.Store(nil)
}

// Clear deactivates the current session; the render path falls back to idle.
func (s *Store) Clear() {
	s.Activate(domain.NoSession)
}

// Active returns the session currently accepted by the store.
func (s *Store) Active() domain.SessionID {
	return domain.SessionID(s.active.Load())
}

// Publish stores a copy of values as the latest snapshot for session.
// It reports false when session is not the active one.
func (s *Store) Publish(session domain.SessionID, values []float64, at time.Time) bool {
	if session == domain.NoSession || uint64(session) != s.active.Load() {
		return false
	}

	cp := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v), math.IsInf(v, -1):
			cp[i] = s.floor
		case math.IsInf(v, 1):
			cp[i] = 0
		default:
			cp[i] = v
		}
	}

	s.latest.Store(&Snapshot{Session: session, At: at, Values: cp})
	return true
}

// Latest returns the newest snapshot of the active session, or nil.
func (s *Store) Latest() *Snapshot {
	snap := s.latest.Load()
	if snap == nil || uint64(snap.Session) != s.active.Load() {
		return nil
	}
	return snap
}
