package visualizer

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

func snapshotOf(values ...float64) *Snapshot {
	return &Snapshot{Session: 1, At: time.Unix(0, 0), Values: values}
}

func bodies(cmds []BarCommand) []BarCommand {
	var out []BarCommand
	for _, c := range cmds {
		if c.Kind == KindBody {
			out = append(out, c)
		}
	}
	return out
}

func TestBarCount(t *testing.T) {
	tests := []struct {
		name  string
		width float64
		bands int
		want  int
	}{
		{"narrow idle uses minimum", 100, -1, 24},
		{"wide idle", 640, -1, 35},
		{"active limited by bands", 640, 8, 8},
		{"active limited by width", 640, 64, 35},
		{"narrow active", 100, 64, 24},
		{"zero width", 0, 64, 0},
		{"nan width", math.NaN(), 64, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BarCount(tt.width, tt.bands))
		})
	}
}

func TestRenderFrame_NonPositiveCanvas(t *testing.T) {
	r := NewRenderer()

	assert.Nil(t, r.RenderFrame(nil, NewSmoother(), 0, 180, 0))
	assert.Nil(t, r.RenderFrame(nil, NewSmoother(), 640, 0, 0))
	assert.Nil(t, r.RenderFrame(snapshotOf(0), NewSmoother(), -1, 180, 0))
}

func TestRenderFrame_IdleWhenNoSnapshot(t *testing.T) {
	r := NewRenderer()

	cmds := r.RenderFrame(nil, NewSmoother(), 640, 180, 1.5)

	bars := BarCount(640, -1)
	require.Len(t, cmds, bars*2)
	for _, c := range cmds {
		assert.NotEqual(t, KindHighlight, c.Kind)
		assert.Equal(t, IdleColor.R, c.Color.R)
		assert.Equal(t, IdleColor.G, c.Color.G)
		assert.Equal(t, IdleColor.B, c.Color.B)
		assert.Less(t, c.Color.A, uint8(128), "idle tone is low alpha")
	}
}

func TestRenderFrame_EmptySnapshotIsIdle(t *testing.T) {
	r := NewRenderer()
	s := NewSmoother()

	cmds := r.RenderFrame(snapshotOf(), s, 640, 180, 0)

	assert.Len(t, cmds, BarCount(640, -1)*2)
	assert.Equal(t, 0, s.Len(), "idle frames do not touch the smoother")
}

func TestIdleLevel_StaysInRange(t *testing.T) {
	times := []float64{0, 0.5, 1, 10, 1e6, -3, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, tm := range times {
		for i := range 64 {
			level := IdleLevel(i, tm)
			assert.GreaterOrEqual(t, level, 0.0)
			assert.LessOrEqual(t, level, 1.0)
			assert.False(t, math.IsNaN(level))
		}
	}
}

func TestIdleLevel_IsContinuous(t *testing.T) {
	const dt = 1.0 / 60
	for i := range 24 {
		for step := range 600 {
			tm := float64(step) * dt
			delta := math.Abs(IdleLevel(i, tm+dt) - IdleLevel(i, tm))
			assert.Less(t, delta, 0.02, "bar %d at t=%.3f", i, tm)
		}
	}
}

func TestRenderFrame_IdleBarsNeverExceedCanvas(t *testing.T) {
	r := NewRenderer()

	for _, tm := range []float64{0, 0.3, 7, 123.4} {
		for _, c := range bodies(r.RenderFrame(nil, NewSmoother(), 640, 180, tm)) {
			assert.GreaterOrEqual(t, c.H, MinBarHeight)
			assert.LessOrEqual(t, c.H, 180*HeadroomRatio)
		}
	}
}

func TestRenderFrame_ActiveEmitsThreeLayersPerBar(t *testing.T) {
	r := NewRenderer()
	values := make([]float64, 64)
	for i := range values {
		values[i] = -30
	}

	cmds := r.RenderFrame(snapshotOf(values...), NewSmoother(), 640, 180, 0)

	bars := BarCount(640, 64)
	require.Len(t, cmds, bars*3)
	for i := range bars {
		assert.Equal(t, KindGlow, cmds[i*3].Kind)
		assert.Equal(t, KindBody, cmds[i*3+1].Kind)
		assert.Equal(t, KindHighlight, cmds[i*3+2].Kind)
		for _, c := range cmds[i*3 : i*3+3] {
			assert.Equal(t, i, c.Bar)
		}
	}
}

func TestRenderFrame_BarsAreBottomAnchored(t *testing.T) {
	r := NewRenderer()

	cmds := r.RenderFrame(snapshotOf(0, -10, -30, -59, -60, -200), NewSmoother(), 640, 180, 0)

	for _, c := range cmds {
		switch c.Kind {
		case KindGlow, KindBody:
			assert.InDelta(t, 180, c.Bottom(), 1e-9)
		case KindHighlight:
			assert.LessOrEqual(t, c.Bottom(), 180.0)
		}
	}
}

func TestRenderFrame_GlowIsLargerThanBody(t *testing.T) {
	r := NewRenderer()

	cmds := r.RenderFrame(snapshotOf(-20, -40), NewSmoother(), 640, 180, 0)

	for i := 0; i < len(cmds); i += 3 {
		glow, body, hl := cmds[i], cmds[i+1], cmds[i+2]
		assert.InDelta(t, body.X-GlowSpread, glow.X, 1e-9)
		assert.InDelta(t, body.W+2*GlowSpread, glow.W, 1e-9)
		assert.InDelta(t, body.H+GlowSpread, glow.H, 1e-9)
		assert.Less(t, glow.Color.A, body.Color.A)

		assert.InDelta(t, body.Y, hl.Y, 1e-9)
		assert.InDelta(t, body.H*HighlightRatio, hl.H, 1e-9)
	}
}

func TestRenderFrame_HeightMapping(t *testing.T) {
	r := NewRenderer()

	cmds := bodies(r.RenderFrame(snapshotOf(0, -60, math.NaN(), -200, 20), NewSmoother(), 100, 200, 0))

	require.Len(t, cmds, 5)
	assert.InDelta(t, 200*0.95, cmds[0].H, 1e-9, "0 dB is a full bar")
	assert.InDelta(t, MinBarHeight, cmds[1].H, 1e-9, "floor is the minimum height")
	assert.InDelta(t, MinBarHeight, cmds[2].H, 1e-9, "NaN collapses to zero")
	assert.InDelta(t, MinBarHeight, cmds[3].H, 1e-9, "below floor clamps")
	assert.InDelta(t, 200*0.95, cmds[4].H, 1e-9, "above 0 dB clamps")
}

func TestActiveLevel(t *testing.T) {
	assert.InDelta(t, 0, ActiveLevel(-60), 1e-12)
	assert.InDelta(t, 1, ActiveLevel(0), 1e-12)
	assert.InDelta(t, math.Min(1, math.Pow(0.5, 0.55)*1.75), ActiveLevel(-30), 1e-12)
	assert.InDelta(t, math.Pow(1.0/6, 0.55)*1.75, ActiveLevel(-50), 1e-12)
	assert.Equal(t, 0.0, ActiveLevel(math.NaN()))
}

func TestRenderFrame_HueRotatesAcrossBars(t *testing.T) {
	r := NewRenderer()
	values := make([]float64, 8)

	b := bodies(r.RenderFrame(snapshotOf(values...), NewSmoother(), 640, 180, 0))

	require.Len(t, b, 8)
	first, last := b[0].Color, b[7].Color
	// hue 20 is orange-red; hue 320 is magenta
	assert.Greater(t, first.R, first.B)
	assert.Greater(t, last.B, last.G)
	assert.NotEqual(t, first, last)
}

func TestRenderFrame_SmoothsOncePerFrame(t *testing.T) {
	r := NewRenderer()
	s := NewSmoother()

	r.RenderFrame(snapshotOf(-40, -40), s, 640, 180, 0)
	cmds := bodies(r.RenderFrame(snapshotOf(-60, -60), s, 640, 180, 0))

	want := ActiveLevel(-40*0.78 + -60*0.22)
	assert.InDelta(t, 180*0.95*want, cmds[0].H, 1e-9)
}

func TestRenderFrame_GoldenGeometry(t *testing.T) {
	type rect struct {
		Kind       CommandKind
		X, Y, W, H float64
	}

	r := NewRenderer()
	cmds := r.RenderFrame(snapshotOf(0, -60), NewSmoother(), 480, 100, 0)

	got := make([]rect, 0, len(cmds))
	for _, c := range cmds {
		got = append(got, rect{c.Kind, c.X, c.Y, c.W, c.H})
	}

	// 2 bars of 240px; gap 36px; inner width 204px
	want := []rect{
		{KindGlow, 16, 3, 208, 97},
		{KindBody, 18, 5, 204, 95},
		{KindHighlight, 18, 5, 204, 95 * HighlightRatio},
		{KindGlow, 256, 96, 208, 4},
		{KindBody, 258, 98, 204, 2},
		{KindHighlight, 258, 98, 204, 2 * HighlightRatio},
	}

	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestRasterize_PaintsAndClips(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	Clear(img)

	Rasterize([]BarCommand{
		{Kind: KindBody, X: 2, Y: 5, W: 3, H: 5, Color: color.NRGBA{R: 255, A: 255}},
		{Kind: KindGlow, X: -5, Y: -5, W: 7, H: 7, Color: color.NRGBA{G: 255, A: 255}},
		{Kind: KindGlow, X: 20, Y: 20, W: 5, H: 5, Color: color.NRGBA{B: 255, A: 255}},
	}, img)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(3, 7))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, img.RGBAAt(0, 0))
	bg := img.RGBAAt(9, 0)
	assert.Equal(t, Background.R, bg.R)
	assert.Equal(t, Background.B, bg.B)
}

func TestRasterize_BlendsTranslucentLayers(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Clear(img)

	Rasterize([]BarCommand{
		{Kind: KindGlow, X: 0, Y: 0, W: 4, H: 4, Color: color.NRGBA{R: 255, G: 255, B: 255, A: 128}},
	}, img)

	px := img.RGBAAt(1, 1)
	assert.Greater(t, px.R, Background.R)
	assert.Less(t, px.R, uint8(255))
	assert.Equal(t, uint8(255), px.A)
}

func TestVisualizer_FrameResetsSmootherOnSessionChange(t *testing.T) {
	store := NewStore(MinDB)
	v := NewWithClock(store, func() time.Time { return time.Unix(0, 0) })

	store.Activate(1)
	store.Publish(1, []float64{0}, time.Now())
	v.Frame(100, 100)

	store.Activate(2)
	store.Publish(2, []float64{-60}, time.Now())
	cmds := bodies(v.Frame(100, 100))

	require.Len(t, cmds, 1)
	assert.InDelta(t, MinBarHeight, cmds[0].H, 1e-9, "old session state must not leak into the new one")
}

func TestVisualizer_IdleWithoutActiveSession(t *testing.T) {
	store := NewStore(MinDB)
	v := New(store)

	store.Activate(1)
	store.Publish(1, []float64{0, 0, 0}, time.Now())
	store.Clear()

	cmds := v.Frame(640, 180)

	assert.Len(t, cmds, BarCount(640, -1)*2)
}

func TestVisualizer_IdleAnimatesWithClock(t *testing.T) {
	now := time.Unix(100, 0)
	v := NewWithClock(NewStore(MinDB), func() time.Time { return now })

	first := v.Frame(640, 180)
	now = now.Add(500 * time.Millisecond)
	second := v.Frame(640, 180)

	assert.NotEqual(t, first[1].H, second[1].H)
}

func TestVisualizer_Draw(t *testing.T) {
	store := NewStore(MinDB)
	v := New(store)
	store.Activate(domain.SessionID(5))
	store.Publish(5, []float64{0, 0}, time.Now())

	img := v.Draw(64, 32)

	require.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)
	// full bar reaches the bottom row
	assert.NotEqual(t, color.RGBA{R: Background.R, G: Background.G, B: Background.B, A: 255}, rgba.RGBAAt(16, 31))
}
