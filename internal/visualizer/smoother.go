package visualizer

// SmoothingAlpha is the weight of the newest magnitudes in the one-pole low-pass filter.
const SmoothingAlpha = 0.22

// Smoother low-pass filters successive spectrum magnitude arrays so bars
// move without flicker. It keeps one value per band.
//
// A Smoother is not safe for concurrent use; the render path owns it.
type Smoother struct {
	state []float64
}

// NewSmoother creates an empty smoother.
func NewSmoother() *Smoother {
	return &Smoother{}
}

// Smooth folds raw into the smoothed state and returns the state.
//
// On the first call, or whenever the band count changes, the state is
// reallocated and initialised to raw. The returned slice is owned by the
// smoother and must not be modified by callers.
func (s *Smoother) Smooth(raw []float64) []float64 {
	if s.state == nil || len(s.state) != len(raw) {
		s.state = make([]float64, len(raw))
		copy(s.state, raw)
		return s.state
	}

	for i, v := range raw {
		s.state[i] = s.state[i]*(1-SmoothingAlpha) + v*SmoothingAlpha
	}
	return s.state
}

// Len returns the number of bands currently tracked.
func (s *Smoother) Len() int {
	return len(s.state)
}

// Reset drops the smoothed state; the next Smooth call starts over.
func (s *Smoother) Reset() {
	s.state = nil
}
