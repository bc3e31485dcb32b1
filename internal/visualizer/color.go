package visualizer

import (
	"image/color"
	"math"
)

// HSVToRGB converts HSV to RGB. h is in degrees, s and v in 0-1; the result is in 0-1.
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s <= 0 {
		return v, v, v
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// hsvColor returns an opaque-ready colour with the given alpha in 0-1.
func hsvColor(h, s, v, alpha float64) color.NRGBA {
	r, g, b := HSVToRGB(h, s, v)
	return color.NRGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: toByte(alpha)}
}

// mix blends c towards target by amount in 0-1, keeping alpha.
func mix(c, target color.NRGBA, amount float64) color.NRGBA {
	lerp := func(a, b uint8) uint8 {
		return toByte((float64(a) + (float64(b)-float64(a))*amount) / 255)
	}
	return color.NRGBA{
		R: lerp(c.R, target.R),
		G: lerp(c.G, target.G),
		B: lerp(c.B, target.B),
		A: c.A,
	}
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = toByte(alpha)
	return c
}

// toByte maps 0-1 to 0-255 with clamping.
func toByte(f float64) uint8 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(math.Round(f * 255))
}
