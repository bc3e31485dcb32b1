package beepaudio

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// Frequency range covered by the analyzer bands.
const (
	MinFrequency = 20.0
	MaxFrequency = 16000.0
)

// Analyzer turns a block of mono samples into per-band magnitudes in dB.
// Bands are spaced logarithmically between MinFrequency and MaxFrequency
// (capped at Nyquist); each band reports the peak bin it covers.
//
// An Analyzer reuses its buffers and must not be shared between goroutines.
type Analyzer struct {
	size       int
	sampleRate float64
	floor      float64

	fft    *fourier.FFT
	window []float64
	gain   float64

	// edges[b]..edges[b+1] is the bin range of band b
	edges []int

	buf    []float64
	coeffs []complex128
	out    []float64
}

// NewAnalyzer creates an analyzer for blocks of size samples at sampleRate.
func NewAnalyzer(size, sampleRate int, cfg domain.SpectrumConfig) *Analyzer {
	bands := max(cfg.Bands, 1)

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}
	coeffs = window.Hann(coeffs)

	var sum float64
	for _, c := range coeffs {
		sum += c
	}

	a := &Analyzer{
		size:       size,
		sampleRate: float64(sampleRate),
		floor:      cfg.Threshold,
		fft:        fourier.NewFFT(size),
		window:     coeffs,
		gain:       2 / sum,
		buf:        make([]float64, size),
		coeffs:     make([]complex128, size/2+1),
		out:        make([]float64, bands),
	}
	a.edges = a.bandEdges(bands)
	return a
}

// bandEdges computes strictly increasing bin boundaries for bands.
func (a *Analyzer) bandEdges(bands int) []int {
	bins := a.size/2 + 1
	top := math.Min(MaxFrequency, a.sampleRate/2)
	ratio := top / MinFrequency

	edges := make([]int, bands+1)
	for b := range edges {
		freq := MinFrequency * math.Pow(ratio, float64(b)/float64(bands))
		edges[b] = int(math.Round(freq * float64(a.size) / a.sampleRate))
		if b > 0 && edges[b] <= edges[b-1] {
			edges[b] = edges[b-1] + 1
		}
	}
	for b := range edges {
		edges[b] = min(edges[b], bins)
	}
	return edges
}

// Bands returns the number of bands produced by Analyze.
func (a *Analyzer) Bands() int {
	return len(a.out)
}

// Size returns the block size in samples.
func (a *Analyzer) Size() int {
	return a.size
}

// Analyze returns the band magnitudes of samples in dB, clamped to
// [threshold, 0]. Short blocks are zero padded. The returned slice is reused
// by the next call.
func (a *Analyzer) Analyze(samples []float64) []float64 {
	n := copy(a.buf, samples)
	clear(a.buf[n:])
	for i := range a.buf {
		a.buf[i] *= a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.buf)

	for b := range a.out {
		lo, hi := a.edges[b], a.edges[b+1]
		peak := 0.0
		for k := lo; k < hi; k++ {
			peak = math.Max(peak, cmplx.Abs(a.coeffs[k]))
		}
		a.out[b] = a.toDB(peak * a.gain)
	}
	return a.out
}

func (a *Analyzer) toDB(magnitude float64) float64 {
	if magnitude <= 0 {
		return a.floor
	}
	db := 20 * math.Log10(magnitude)
	return math.Max(a.floor, math.Min(0, db))
}
