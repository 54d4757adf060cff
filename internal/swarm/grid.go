package swarm

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGridConfig is returned (wrapped) for any grid shape, limit or
// hyperparameter that cannot produce a usable approximator.
var ErrInvalidGridConfig = errors.New("invalid grid config")

// CoordScale shrinks normalised coordinates so that a point sitting exactly on
// an upper limit still lands in the last cell of its axis.
const CoordScale = 0.999

// Limit is the closed interval covered along one input axis.
type Limit struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Range returns High - Low.
func (l Limit) Range() float64 { return l.High - l.Low }

// Grid maps domain points onto cells of a regular grid.
// It is immutable after NewGrid and safe to share.
type Grid struct {
	dims    []int
	limits  []Limit
	ranges  []float64
	strides []int
	cells   int
}

// NewGrid validates the shape and derives ranges and row-major strides.
func NewGrid(dims []int, limits []Limit) (*Grid, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: at least one dimension is required", ErrInvalidGridConfig)
	}
	if len(dims) != len(limits) {
		return nil, fmt.Errorf("%w: %d dims but %d limits", ErrInvalidGridConfig, len(dims), len(limits))
	}

	total := 1
	for i, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("%w: dims[%d] must be positive, got %d", ErrInvalidGridConfig, i, d)
		}
		if total > math.MaxInt/d {
			return nil, fmt.Errorf("%w: cell count overflows at dims[%d]", ErrInvalidGridConfig, i)
		}
		total *= d
	}

	ranges := make([]float64, len(limits))
	for i, l := range limits {
		if math.IsNaN(l.Low) || math.IsNaN(l.High) || math.IsInf(l.Low, 0) || math.IsInf(l.High, 0) {
			return nil, fmt.Errorf("%w: limits[%d] must be finite, got [%g, %g]", ErrInvalidGridConfig, i, l.Low, l.High)
		}
		if l.Low >= l.High {
			return nil, fmt.Errorf("%w: limits[%d] low must be below high, got [%g, %g]", ErrInvalidGridConfig, i, l.Low, l.High)
		}
		ranges[i] = l.Range()
	}

	return &Grid{
		dims:    append([]int(nil), dims...),
		limits:  append([]Limit(nil), limits...),
		ranges:  ranges,
		strides: Strides(dims),
		cells:   total,
	}, nil
}

// Strides returns the row-major linearisation strides for a grid shape:
// stride[0] = 1 and stride[i] = stride[i-1] * dims[i-1].
func Strides(dims []int) []int {
	strides := make([]int, len(dims))
	if len(dims) == 0 {
		return strides
	}
	strides[0] = 1
	for i := 1; i < len(dims); i++ {
		strides[i] = strides[i-1] * dims[i-1]
	}
	return strides
}

// Linearize flattens integer cell coordinates into a single cell index.
func Linearize(strides, cellCoord []int) int {
	idx := 0
	for i, c := range cellCoord {
		idx += c * strides[i]
	}
	return idx
}

// NumDims returns the number of input axes.
func (g *Grid) NumDims() int { return len(g.dims) }

// NumCells returns product(dims).
func (g *Grid) NumCells() int { return g.cells }

// Dims returns a copy of the grid shape.
func (g *Grid) Dims() []int { return append([]int(nil), g.dims...) }

// Limits returns a copy of the per-axis limits.
func (g *Grid) Limits() []Limit { return append([]Limit(nil), g.limits...) }

// Normalize writes the fractional grid coordinates of x into coord.
// Both slices must have NumDims entries.
func (g *Grid) Normalize(x, coord []float64) {
	for i, xi := range x {
		coord[i] = CoordScale * ((xi - g.limits[i].Low) / g.ranges[i]) * float64(g.dims[i])
	}
}

// CellCoords floors coord into integer cell coordinates, clamped to the grid
// so points outside the limits reuse the nearest boundary cell.
func (g *Grid) CellCoords(coord []float64, cellCoord []int) {
	for i, c := range coord {
		f := math.Floor(c)
		switch {
		case f >= float64(g.dims[i]-1):
			cellCoord[i] = g.dims[i] - 1
		case f > 0:
			cellCoord[i] = int(f)
		default:
			// Negative and NaN coordinates both land here.
			cellCoord[i] = 0
		}
	}
}

// CellIndex returns the linear index of the cell holding coord.
func (g *Grid) CellIndex(coord []float64) int {
	cellCoord := make([]int, len(coord))
	g.CellCoords(coord, cellCoord)
	return Linearize(g.strides, cellCoord)
}

// LocalFeature writes the regressor for coord into feat (length NumDims+1):
// the offset of coord from its cell origin, then a constant bias of 1.
// Inside the domain each offset lies in [0, 1).
func (g *Grid) LocalFeature(coord []float64, feat []float64) {
	cellCoord := make([]int, len(coord))
	g.CellCoords(coord, cellCoord)
	g.localFeature(coord, cellCoord, feat)
}

func (g *Grid) localFeature(coord []float64, cellCoord []int, feat []float64) {
	for i, c := range coord {
		feat[i] = c - float64(cellCoord[i])
	}
	feat[len(coord)] = 1.0
}

// Locate maps a domain point to its cell index and local feature vector.
// It panics if len(x) != NumDims.
func (g *Grid) Locate(x []float64) (int, []float64) {
	n := len(g.dims)
	if len(x) != n {
		panic(fmt.Sprintf("swarm: point has %d coordinates, grid has %d dims", len(x), n))
	}
	coord := make([]float64, n)
	cellCoord := make([]int, n)
	feat := make([]float64, n+1)

	g.Normalize(x, coord)
	g.CellCoords(coord, cellCoord)
	g.localFeature(coord, cellCoord, feat)
	return Linearize(g.strides, cellCoord), feat
}
