// Package service provides the playback core of the SpectraTune player.
package service

import (
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// Playlist is the ordered list of tracks and the current selection.
// No two tracks share a source. The current index is -1 or a valid index.
//
// All operations are thread-safe via sync.RWMutex.
type Playlist struct {
	tracks  []domain.Track
	current int

	mu sync.RWMutex
}

// NewPlaylist creates an empty playlist with no selection.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks:  make([]domain.Track, 0),
		current: -1,
	}
}

// Add appends a track. It returns false when a track with the same source is
// already present.
func (p *Playlist) Add(track domain.Track) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexOfLocked(track.Source) >= 0 {
		return false
	}
	p.tracks = append(p.tracks, track)
	return true
}

// AddAll appends every track whose source is not yet present and returns the
// number appended. Duplicates inside tracks are added once.
func (p *Playlist) AddAll(tracks []domain.Track) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	fresh := lo.UniqBy(tracks, func(t domain.Track) string { return t.Source })
	fresh = lo.Filter(fresh, func(t domain.Track, _ int) bool {
		return p.indexOfLocked(t.Source) < 0
	})
	p.tracks = append(p.tracks, fresh...)
	return len(fresh)
}

// RemoveAt removes the track at index. Removing the current track clears the
// selection; removing a track before it shifts the selection down by one.
// wasCurrent reports whether the removed track was selected.
func (p *Playlist) RemoveAt(index int) (removed domain.Track, wasCurrent bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.tracks) {
		return domain.Track{}, false, domain.ErrInvalidIndex
	}

	removed = p.tracks[index]
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)

	switch {
	case index == p.current:
		p.current = -1
		wasCurrent = true
	case index < p.current:
		p.current--
	}
	return removed, wasCurrent, nil
}

// At returns the track at index.
func (p *Playlist) At(index int) (domain.Track, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if index < 0 || index >= len(p.tracks) {
		return domain.Track{}, false
	}
	return p.tracks[index], true
}

// IndexOf returns the index of the track with the given source, or -1.
func (p *Playlist) IndexOf(source string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexOfLocked(source)
}

func (p *Playlist) indexOfLocked(source string) int {
	_, idx, ok := lo.FindIndexOf(p.tracks, func(t domain.Track) bool {
		return t.Source == source
	})
	if !ok {
		return -1
	}
	return idx
}

// Select makes index the current track. -1 clears the selection.
func (p *Playlist) Select(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < -1 || index >= len(p.tracks) {
		return domain.ErrInvalidIndex
	}
	p.current = index
	return nil
}

// Current returns the current index, or -1.
func (p *Playlist) Current() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// CurrentTrack returns the selected track.
func (p *Playlist) CurrentTrack() (domain.Track, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current < 0 {
		return domain.Track{}, false
	}
	return p.tracks[p.current], true
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tracks)
}

// IsEmpty returns true if the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// Tracks returns a copy of the tracks.
func (p *Playlist) Tracks() []domain.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// NextIndex returns the index after from, wrapping to 0. From -1 it returns 0.
// An empty playlist yields -1.
func (p *Playlist) NextIndex(from int) int {
	count := p.Len()
	if count == 0 {
		return -1
	}
	if from < 0 {
		return 0
	}
	return (from + 1) % count
}

// PreviousIndex returns the index before from, wrapping to the last track.
// From -1 it returns the last index. An empty playlist yields -1.
func (p *Playlist) PreviousIndex(from int) int {
	count := p.Len()
	if count == 0 {
		return -1
	}
	if from < 0 {
		return count - 1
	}
	return (from - 1 + count) % count
}

// Search returns the indices of tracks whose name fuzzily matches query, in
// playlist order. An empty query matches every track.
func (p *Playlist) Search(query string) []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return lo.FilterMap(p.tracks, func(t domain.Track, i int) (int, bool) {
		if query == "" {
			return i, true
		}
		return i, fuzzy.MatchNormalizedFold(query, t.Name)
	})
}
