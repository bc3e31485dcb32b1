package visualizer

import (
	"image"
	"sync"
	"time"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// Visualizer drives the render-once-per-frame contract: each Frame call reads
// the latest snapshot, smooths it once and renders it.
//
// Thread-safety: Frame and Draw may be called from any goroutine; calls are serialised.
type Visualizer struct {
	store    *Store
	smoother *Smoother
	renderer *Renderer

	now   func() time.Time
	start time.Time

	// lastSession is the session the smoother state belongs to
	lastSession domain.SessionID

	mu sync.Mutex
}

// New creates a visualizer that reads snapshots from store.
func New(store *Store) *Visualizer {
	return NewWithClock(store, time.Now)
}

// NewWithClock creates a visualizer with a custom clock for the idle animation.
func NewWithClock(store *Store, now func() time.Time) *Visualizer {
	return &Visualizer{
		store:    store,
		smoother: NewSmoother(),
		renderer: NewRenderer(),
		now:      now,
		start:    now(),
	}
}

// Store returns the snapshot store the visualizer reads from.
func (v *Visualizer) Store() *Store {
	return v.store
}

// Frame renders the bar commands for a canvas of the given size.
func (v *Visualizer) Frame(width, height int) []BarCommand {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := v.store.Latest()
	active := v.store.Active()
	if active != v.lastSession {
		v.smoother.Reset()
		v.lastSession = active
	}

	t := v.now().Sub(v.start).Seconds()
	return v.renderer.RenderFrame(snap, v.smoother, float64(width), float64(height), t)
}

// Draw renders a frame into a fresh image of the given size.
func (v *Visualizer) Draw(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	Clear(img)
	Rasterize(v.Frame(width, height), img)
	return img
}
