package swarm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Default hyperparameters.
const (
	DefaultLearningRate = 0.1
	DefaultMomentum     = 0.7071
)

// Swarm is a grid of independent affine models trained by momentum gradient
// descent on squared error. Each cell owns a coefficient vector and a
// velocity vector of length NumDims+1; both start at zero.
//
// A Swarm is not safe for concurrent use: Update performs an unsynchronised
// read-modify-write on the addressed cell.
type Swarm struct {
	grid *Grid

	cells    [][]float64 // len = NumCells, each len = NumDims+1
	velocity [][]float64 // same shape as cells

	learningRate float64 // alpha
	momentum     float64 // rho
}

// NewSwarm creates a zeroed approximator. Hyperparameters are taken as given;
// use Config.Validate to bound-check them.
func NewSwarm(dims []int, limits []Limit, learningRate, momentum float64) (*Swarm, error) {
	g, err := NewGrid(dims, limits)
	if err != nil {
		return nil, err
	}

	width := g.NumDims() + 1
	// Rows are carved from one backing array per store.
	cellData := make([]float64, g.NumCells()*width)
	velData := make([]float64, g.NumCells()*width)
	cells := make([][]float64, g.NumCells())
	velocity := make([][]float64, g.NumCells())
	for i := range cells {
		cells[i] = cellData[i*width : (i+1)*width : (i+1)*width]
		velocity[i] = velData[i*width : (i+1)*width : (i+1)*width]
	}

	return &Swarm{
		grid:         g,
		cells:        cells,
		velocity:     velocity,
		learningRate: learningRate,
		momentum:     momentum,
	}, nil
}

// Predict returns the current estimate of the target function at x.
// x must have NumDims coordinates.
func (s *Swarm) Predict(x []float64) float64 {
	idx, feat := s.grid.Locate(x)
	return floats.Dot(s.cells[idx], feat)
}

// Update absorbs one training example and returns the prediction error
// (prediction - target) measured before the step. Only the cell holding x
// is modified.
func (s *Swarm) Update(x []float64, target float64) float64 {
	idx, feat := s.grid.Locate(x)
	w := s.cells[idx]
	v := s.velocity[idx]

	errVal := floats.Dot(w, feat) - target

	// v = rho*v - alpha*err*feat; w += v
	floats.Scale(s.momentum, v)
	floats.AddScaled(v, -s.learningRate*errVal, feat)
	floats.Add(w, v)

	return errVal
}

// CellIndexOf returns the index of the cell that x maps to.
func (s *Swarm) CellIndexOf(x []float64) int {
	idx, _ := s.grid.Locate(x)
	return idx
}

// NumDims returns the number of input axes.
func (s *Swarm) NumDims() int { return s.grid.NumDims() }

// NumCells returns the number of cells in the grid.
func (s *Swarm) NumCells() int { return s.grid.NumCells() }

// Dims returns a copy of the grid shape.
func (s *Swarm) Dims() []int { return s.grid.Dims() }

// Limits returns a copy of the domain limits.
func (s *Swarm) Limits() []Limit { return s.grid.Limits() }

// LearningRate returns alpha.
func (s *Swarm) LearningRate() float64 { return s.learningRate }

// Momentum returns rho.
func (s *Swarm) Momentum() float64 { return s.momentum }

// Coefficients returns a copy of cell idx's affine coefficients; the last
// entry is the bias.
func (s *Swarm) Coefficients(idx int) []float64 {
	s.checkIndex(idx)
	return append([]float64(nil), s.cells[idx]...)
}

// Velocity returns a copy of cell idx's momentum accumulator.
func (s *Swarm) Velocity(idx int) []float64 {
	s.checkIndex(idx)
	return append([]float64(nil), s.velocity[idx]...)
}

// Reset zeroes every coefficient and velocity.
func (s *Swarm) Reset() {
	for i := range s.cells {
		clear(s.cells[i])
		clear(s.velocity[i])
	}
}

func (s *Swarm) checkIndex(idx int) {
	if idx < 0 || idx >= len(s.cells) {
		panic(fmt.Sprintf("swarm: cell index %d out of range [0, %d)", idx, len(s.cells)))
	}
}
