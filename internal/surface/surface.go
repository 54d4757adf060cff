// Package surface samples a trained 2-D predictor on a regular mesh and
// renders it as artifacts: a gonum/plot heat map PNG, a convergence PNG and
// an interactive go-echarts 3-D surface.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/gridswarm/internal/swarm"
	"github.com/banshee-data/gridswarm/internal/trainer"
)

// ErrNotTwoDimensional is returned when a surface is requested for a domain
// with other than two axes.
var ErrNotTwoDimensional = errors.New("surface: domain must have exactly two axes")

// Surface holds predictions on a res×res mesh. Axis points start at Low and
// step by range/res, so High itself is never sampled.
//
// Surface implements plotter.GridXYZ with columns along x0 and rows along x1.
type Surface struct {
	xs, ys []float64
	z      []float64 // row-major: z[r*len(xs)+c]
	min    float64
	max    float64
}

// Sample evaluates p at every mesh point of limits. res must be at least 2.
func Sample(p trainer.Predictor, limits []swarm.Limit, res int) (*Surface, error) {
	if len(limits) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotTwoDimensional, len(limits))
	}
	if res < 2 {
		return nil, fmt.Errorf("surface: resolution must be at least 2, got %d", res)
	}
	for i, l := range limits {
		if !(l.High > l.Low) {
			return nil, fmt.Errorf("surface: axis %d has empty range [%g, %g)", i, l.Low, l.High)
		}
	}

	s := &Surface{
		xs:  axis(limits[0], res),
		ys:  axis(limits[1], res),
		z:   make([]float64, res*res),
		min: math.Inf(1),
		max: math.Inf(-1),
	}
	x := make([]float64, 2)
	for r, y := range s.ys {
		x[1] = y
		for c, xv := range s.xs {
			x[0] = xv
			v := p.Predict(x)
			s.z[r*res+c] = v
			s.min = math.Min(s.min, v)
			s.max = math.Max(s.max, v)
		}
	}
	return s, nil
}

func axis(l swarm.Limit, res int) []float64 {
	step := l.Range() / float64(res)
	out := make([]float64, res)
	for i := range out {
		out[i] = l.Low + float64(i)*step
	}
	return out
}

// Dims returns the mesh size as (columns, rows).
func (s *Surface) Dims() (c, r int) { return len(s.xs), len(s.ys) }

// Z returns the prediction at column c, row r.
func (s *Surface) Z(c, r int) float64 { return s.z[r*len(s.xs)+c] }

// X returns the x0 coordinate of column c.
func (s *Surface) X(c int) float64 { return s.xs[c] }

// Y returns the x1 coordinate of row r.
func (s *Surface) Y(r int) float64 { return s.ys[r] }

// Range returns the smallest and largest sampled prediction.
func (s *Surface) Range() (lo, hi float64) { return s.min, s.max }
