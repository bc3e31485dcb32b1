// Package visualizer turns spectrum magnitudes into bar draw commands.
//
// The pipeline is: the media engine publishes magnitude arrays into a Store,
// and once per host frame the Renderer reads the latest snapshot, smooths it
// with a Smoother and emits a list of BarCommand values. Rasterize paints the
// commands onto an image for the UI toolkit.
package visualizer

import (
	"image/color"
	"math"
)

// Rendering constants.
const (
	// MinDB is the magnitude mapped to an empty bar
	MinDB = -60.0

	// DBRange is the span between MinDB and a full bar
	DBRange = 60.0

	// MinBarSlot is the nominal width in pixels used to derive the bar count
	MinBarSlot = 18.0

	// MinBars is the minimum number of bars drawn when the canvas is narrow
	MinBars = 24

	// MinBarHeight keeps every bar visible
	MinBarHeight = 2.0

	// HeadroomRatio is the share of the canvas height a full bar reaches
	HeadroomRatio = 0.95

	// GlowSpread is how far the glow extends beyond the bar body
	GlowSpread = 2.0

	// HighlightRatio is the share of the bar body covered by the highlight band
	HighlightRatio = 0.18
)

// CommandKind identifies which layer of a bar a command paints.
type CommandKind int

const (
	// KindGlow is the soft rectangle behind a bar
	KindGlow CommandKind = iota

	// KindBody is the bar itself
	KindBody

	// KindHighlight is the bright band on top of the bar
	KindHighlight
)

// String returns the layer name.
func (k CommandKind) String() string {
	switch k {
	case KindGlow:
		return "glow"
	case KindBody:
		return "body"
	case KindHighlight:
		return "highlight"
	default:
		return "unknown"
	}
}

// BarCommand is a filled rectangle to paint, in canvas pixels with the origin at top-left.
type BarCommand struct {
	Kind  CommandKind
	Bar   int
	X     float64
	Y     float64
	W     float64
	H     float64
	Color color.NRGBA
}

// Bottom returns the y coordinate of the lower edge.
func (c BarCommand) Bottom() float64 {
	return c.Y + c.H
}

// IdleColor is the flat tone used when no audio is playing.
var IdleColor = color.NRGBA{R: 74, G: 144, B: 226, A: 255}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Renderer maps smoothed magnitudes, or an idle animation, to bar draw commands.
// It holds no per-frame state; smoothing state lives in the Smoother passed in.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// BarCount returns how many bars a frame of the given width draws.
// bands < 0 means idle mode.
func BarCount(width float64, bands int) int {
	if !(width > 0) {
		return 0
	}
	target := int(math.Floor(width / MinBarSlot))
	if target < MinBars {
		target = MinBars
	}
	if bands < 0 {
		return target
	}
	return min(target, bands)
}

// RenderFrame computes one frame of bar commands.
//
// When snap is nil or carries no bands the idle animation driven by t (seconds)
// is drawn. Otherwise snap is smoothed exactly once and sampled per bar.
// Commands are returned in paint order. A non-positive canvas yields nil.
func (r *Renderer) RenderFrame(snap *Snapshot, smoother *Smoother, width, height, t float64) []BarCommand {
	if !(width > 0) || !(height > 0) {
		return nil
	}

	if snap.Bands() == 0 {
		return r.renderIdle(width, height, t)
	}
	return r.renderActive(snap.Values, smoother, width, height)
}

func (r *Renderer) renderIdle(width, height, t float64) []BarCommand {
	bars := BarCount(width, -1)
	if bars <= 0 {
		return nil
	}

	cmds := make([]BarCommand, 0, bars*2)
	for i := range bars {
		cmds = append(cmds, r.idleBar(i, bars, width, height, IdleLevel(i, t))...)
	}
	return cmds
}

func (r *Renderer) renderActive(raw []float64, smoother *Smoother, width, height float64) []BarCommand {
	bands := len(raw)
	bars := BarCount(width, bands)
	if bars <= 0 {
		return nil
	}

	smoothed := smoother.Smooth(raw)

	cmds := make([]BarCommand, 0, bars*3)
	for i := range bars {
		idx := i * bands / bars
		cmds = append(cmds, r.activeBar(i, bars, width, height, ActiveLevel(smoothed[idx]))...)
	}
	return cmds
}

// IdleLevel is the bar level of the idle wave animation for bar i at time t.
func IdleLevel(i int, t float64) float64 {
	fi := float64(i)
	wave1 := (math.Sin(t*2.2+fi*0.35) + 1) / 2
	wave2 := (math.Sin(t*1.2+fi*0.18+1.3) + 1) / 2
	return clamp01(math.Pow(0.15+0.55*(0.6*wave1+0.4*wave2), 1.35) * 0.45)
}

// ActiveLevel maps a smoothed magnitude in dB to a bar level in [0, 1].
func ActiveLevel(db float64) float64 {
	level := clamp01((db - MinDB) / DBRange)
	return clamp01(math.Pow(level, 0.55) * 1.75)
}

// barRect returns the body rectangle of bar i.
func barRect(i, bars int, width, height, level float64) (x, y, w, h float64) {
	barWidth := width / float64(bars)
	gap := math.Max(2, barWidth*0.15)
	w = math.Max(1, barWidth-gap)
	h = math.Max(MinBarHeight, height*HeadroomRatio*level)
	x = float64(i)*barWidth + (barWidth-w)/2
	y = height - h
	return x, y, w, h
}

func (r *Renderer) activeBar(i, bars int, width, height, level float64) []BarCommand {
	x, y, w, h := barRect(i, bars, width, height, level)

	hue := float64(i)*300/float64(max(1, bars-1)) + 20
	body := hsvColor(hue, 1, 0.95, 0.92)

	glowH := h + GlowSpread
	glow := BarCommand{
		Kind:  KindGlow,
		Bar:   i,
		X:     x - GlowSpread,
		Y:     height - glowH,
		W:     w + 2*GlowSpread,
		H:     glowH,
		Color: withAlpha(body, 0.15+0.2*level),
	}

	highlight := BarCommand{
		Kind:  KindHighlight,
		Bar:   i,
		X:     x,
		Y:     y,
		W:     w,
		H:     h * HighlightRatio,
		Color: withAlpha(mix(body, white, 0.55), 0.85),
	}

	return []BarCommand{
		glow,
		{Kind: KindBody, Bar: i, X: x, Y: y, W: w, H: h, Color: body},
		highlight,
	}
}

func (r *Renderer) idleBar(i, bars int, width, height, level float64) []BarCommand {
	x, y, w, h := barRect(i, bars, width, height, level)
	glowH := h + GlowSpread

	return []BarCommand{
		{
			Kind:  KindGlow,
			Bar:   i,
			X:     x - GlowSpread,
			Y:     height - glowH,
			W:     w + 2*GlowSpread,
			H:     glowH,
			Color: withAlpha(IdleColor, 0.1),
		},
		{Kind: KindBody, Bar: i, X: x, Y: y, W: w, H: h, Color: withAlpha(IdleColor, 0.35)},
	}
}

// clamp01 limits v to [0, 1]; NaN collapses to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
