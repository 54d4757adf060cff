package trainer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/gridswarm/internal/swarm"
)

// Sampler draws points uniformly from a box-shaped domain.
type Sampler struct {
	axes []distuv.Uniform
}

// NewSampler builds one uniform distribution per axis, all sharing src.
func NewSampler(limits []swarm.Limit, src rand.Source) (*Sampler, error) {
	if len(limits) == 0 {
		return nil, fmt.Errorf("sampler: at least one axis is required")
	}
	axes := make([]distuv.Uniform, len(limits))
	for i, l := range limits {
		if !(l.Low < l.High) {
			return nil, fmt.Errorf("sampler: limits[%d] low must be below high, got [%g, %g]", i, l.Low, l.High)
		}
		axes[i] = distuv.Uniform{Min: l.Low, Max: l.High, Src: src}
	}
	return &Sampler{axes: axes}, nil
}

// NumDims returns the number of axes sampled.
func (s *Sampler) NumDims() int { return len(s.axes) }

// Sample returns a fresh point.
func (s *Sampler) Sample() []float64 {
	x := make([]float64, len(s.axes))
	s.SampleInto(x)
	return x
}

// SampleInto overwrites x with a fresh point.
func (s *Sampler) SampleInto(x []float64) {
	for i := range s.axes {
		x[i] = s.axes[i].Rand()
	}
}

// Target is the unknown function a swarm is trained to approximate.
type Target func(x []float64) float64

// SinCos is sin(x0) + cos(x1), generalised to any dimension by alternating
// sin and cos over the axes.
func SinCos(x []float64) float64 {
	sum := 0.0
	for i, xi := range x {
		if i%2 == 0 {
			sum += math.Sin(xi)
		} else {
			sum += math.Cos(xi)
		}
	}
	return sum
}

// Targets maps the names accepted on the command line to target functions.
var Targets = map[string]Target{
	"sincos": SinCos,
	"paraboloid": func(x []float64) float64 {
		sum := 0.0
		for _, xi := range x {
			sum += xi * xi
		}
		return sum
	},
	"ripple": func(x []float64) float64 {
		r2 := 0.0
		for _, xi := range x {
			r2 += xi * xi
		}
		return math.Sin(math.Sqrt(r2))
	},
}
