package spread

import (
	"encoding/json"
	"fmt"
)

// Grid channel layout. Every channel is normalized to [0,1]; wind direction
// maps 0-1 onto 0-360 degrees.
const (
	ChanConcentration = 0
	ChanTemperature   = 1
	ChanHumidity      = 2
	ChanWindDirection = 3
	ChanWindSpeed     = 4

	GridFeatures = 5
)

// Grid is a square spatial field with GridFeatures channels per cell.
type Grid struct {
	dim   int
	cells []float64
}

// NewGrid allocates a zeroed dim x dim grid.
func NewGrid(dim int) *Grid {
	return &Grid{
		dim:   dim,
		cells: make([]float64, dim*dim*GridFeatures),
	}
}

// Dim returns the side length of the grid.
func (g *Grid) Dim() int { return g.dim }

func (g *Grid) index(x, y, f int) int {
	return (x*g.dim+y)*GridFeatures + f
}

// At reads one channel value at a cell.
func (g *Grid) At(x, y, f int) float64 { return g.cells[g.index(x, y, f)] }

// Set writes one channel value at a cell.
func (g *Grid) Set(x, y, f int, v float64) { g.cells[g.index(x, y, f)] = v }

// Add accumulates into one channel value at a cell.
func (g *Grid) Add(x, y, f int, dv float64) { g.cells[g.index(x, y, f)] += dv }

// SetMax raises a cell value, never lowering it.
func (g *Grid) SetMax(x, y, f int, v float64) {
	idx := g.index(x, y, f)
	if v > g.cells[idx] {
		g.cells[idx] = v
	}
}

// FillChannel sets every cell of one channel to the same value.
func (g *Grid) FillChannel(f int, v float64) {
	for x := 0; x < g.dim; x++ {
		for y := 0; y < g.dim; y++ {
			g.cells[g.index(x, y, f)] = v
		}
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	clone := &Grid{dim: g.dim, cells: make([]float64, len(g.cells))}
	copy(clone.cells, g.cells)
	return clone
}

// Clip clamps every cell of every channel to [0,1].
func (g *Grid) Clip() {
	for i, v := range g.cells {
		if v < 0 {
			g.cells[i] = 0
		} else if v > 1 {
			g.cells[i] = 1
		}
	}
}

// Equal reports whether two grids are bit-identical.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.dim != other.dim {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

type gridJSON struct {
	Dim   int       `json:"dim"`
	Cells []float64 `json:"cells"`
}

// MarshalJSON serializes the grid as its dimension plus a flat cell array
// in (x, y, channel) order.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridJSON{Dim: g.dim, Cells: g.cells})
}

// UnmarshalJSON restores a grid serialized by MarshalJSON.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw gridJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Cells) != raw.Dim*raw.Dim*GridFeatures {
		return fmt.Errorf("grid cell count %d does not match dim %d", len(raw.Cells), raw.Dim)
	}
	g.dim = raw.Dim
	g.cells = raw.Cells
	return nil
}

// Sequence is an ordered series of grid states; index 0 is the initial state.
type Sequence []*Grid
