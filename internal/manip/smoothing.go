package manip

import "github.com/go-gl/mathgl/mgl64"

// DefaultSmoothingDepth is the number of samples averaged per move.
const DefaultSmoothingDepth = 6

// Smoother is a fixed-depth moving average over pointer samples.
type Smoother struct {
	data []mgl64.Vec3
	pos  int
	full bool
}

// NewSmoother creates a Smoother averaging the last depth samples.
func NewSmoother(depth int) *Smoother {
	if depth <= 0 {
		depth = DefaultSmoothingDepth
	}
	return &Smoother{data: make([]mgl64.Vec3, depth)}
}

// Depth returns the window size.
func (s *Smoother) Depth() int { return len(s.data) }

// Len returns the number of samples held.
func (s *Smoother) Len() int {
	if s.full {
		return len(s.data)
	}
	return s.pos
}

// Reset empties the buffer.
func (s *Smoother) Reset() {
	s.pos = 0
	s.full = false
}

// Seed fills the whole window with p, so the next Push already averages.
func (s *Smoother) Seed(p mgl64.Vec3) {
	for i := range s.data {
		s.data[i] = p
	}
	s.pos = 0
	s.full = true
}

// Push adds p, evicting the oldest sample once the window is full. It
// returns the mean of the window and whether the window is full.
func (s *Smoother) Push(p mgl64.Vec3) (mgl64.Vec3, bool) {
	s.data[s.pos] = p
	s.pos++
	if s.pos >= len(s.data) {
		s.pos = 0
		s.full = true
	}
	if !s.full {
		return mgl64.Vec3{}, false
	}
	return s.Mean(), true
}

// Mean returns the arithmetic mean of the held samples.
func (s *Smoother) Mean() mgl64.Vec3 {
	n := s.Len()
	if n == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for _, p := range s.data[:n] {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(n))
}

// Points returns the held samples, oldest first.
func (s *Smoother) Points() []mgl64.Vec3 {
	n := s.Len()
	out := make([]mgl64.Vec3, n)
	if s.full {
		copy(out, s.data[s.pos:])
		copy(out[len(s.data)-s.pos:], s.data[:s.pos])
	} else {
		copy(out, s.data[:s.pos])
	}
	return out
}
