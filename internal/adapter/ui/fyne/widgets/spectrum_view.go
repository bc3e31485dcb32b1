// Package widgets provides custom Fyne widgets for the SpectraTune application.
package widgets

import (
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// FrameDuration is the nominal length of one animation cycle. The animation
// repeats forever; every tick refreshes the raster once.
const FrameDuration = time.Second

// DrawFunc renders one frame for a canvas of the given pixel size.
type DrawFunc func(width, height int) image.Image

// SpectrumView is a raster widget redrawn once per host frame.
// The raster pulls a frame from the DrawFunc each time it is refreshed.
type SpectrumView struct {
	widget.BaseWidget

	raster  *canvas.Raster
	draw    DrawFunc
	minSize fyne.Size

	anim    *fyne.Animation
	running bool
	frames  uint64
	mu      sync.Mutex
}

// NewSpectrumView creates a spectrum view that asks draw for every frame.
func NewSpectrumView(draw DrawFunc, minSize fyne.Size) *SpectrumView {
	v := &SpectrumView{
		draw:    draw,
		minSize: minSize,
	}

	v.raster = canvas.NewRaster(v.generate)
	v.raster.ScaleMode = canvas.ImageScaleFastest

	v.anim = fyne.NewAnimation(FrameDuration, v.tick)
	v.anim.Curve = fyne.AnimationLinear
	v.anim.RepeatCount = fyne.AnimationRepeatForever

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *SpectrumView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize returns the configured canvas size.
func (v *SpectrumView) MinSize() fyne.Size {
	return v.minSize
}

// Start begins the per-frame redraw.
func (v *SpectrumView) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return
	}
	v.running = true
	v.anim.Start()
}

// Stop halts the per-frame redraw.
func (v *SpectrumView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running {
		return
	}
	v.running = false
	v.anim.Stop()
}

// Running reports whether the frame clock is active.
func (v *SpectrumView) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

// Frames returns the number of frames generated so far.
func (v *SpectrumView) Frames() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// tick runs on the UI goroutine once per host frame.
func (v *SpectrumView) tick(float32) {
	v.raster.Refresh()
}

func (v *SpectrumView) generate(width, height int) image.Image {
	v.mu.Lock()
	v.frames++
	v.mu.Unlock()

	if v.draw == nil || width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	}
	return v.draw(width, height)
}
