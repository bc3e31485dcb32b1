package visualizer

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Background is the colour the spectrum canvas is cleared to.
var Background = color.NRGBA{R: 16, G: 18, B: 24, A: 255}

// Clear fills img with the background colour.
func Clear(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
}

// Rasterize alpha-composites cmds onto img in order. Rectangles are snapped to
// whole pixels and clipped to the image bounds.
func Rasterize(cmds []BarCommand, img *image.RGBA) {
	bounds := img.Bounds()
	for _, cmd := range cmds {
		if cmd.Color.A == 0 || !(cmd.W > 0) || !(cmd.H > 0) {
			continue
		}

		rect := image.Rect(
			bounds.Min.X+int(math.Floor(cmd.X)),
			bounds.Min.Y+int(math.Floor(cmd.Y)),
			bounds.Min.X+int(math.Ceil(cmd.X+cmd.W)),
			bounds.Min.Y+int(math.Ceil(cmd.Y+cmd.H)),
		).Intersect(bounds)
		if rect.Empty() {
			continue
		}

		draw.Draw(img, rect, &image.Uniform{C: cmd.Color}, image.Point{}, draw.Over)
	}
}
