package product

import (
	"testing"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/stretchr/testify/assert"
)

func TestTrimZeroBorders(t *testing.T) {
	r := &grid.Raster{
		Data: []float64{
			0, 0, 0, 0,
			0, 4, 1, 0,
			0, 0, 4, 0,
			0, 0, 0, 0,
		},
		Rows: 4, Cols: 4,
		Transform: [6]float64{0, 1000, 0, 4000, 0, -1000},
	}

	trimmed := TrimZeroBorders(r)
	assert.Equal(t, 2, trimmed.Rows)
	assert.Equal(t, 2, trimmed.Cols)
	assert.Equal(t, []float64{4, 1, 0, 4}, trimmed.Data)
	assert.Equal(t, 1000.0, trimmed.Transform[0])
	assert.Equal(t, 3000.0, trimmed.Transform[3])
}

func TestTrimZeroBordersIdempotent(t *testing.T) {
	r := &grid.Raster{
		Data: []float64{0, 0, 0, 4},
		Rows: 2, Cols: 2,
		Transform: [6]float64{0, 1000, 0, 2000, 0, -1000},
	}

	once := TrimZeroBorders(r)
	twice := TrimZeroBorders(once)
	assert.Equal(t, once, twice)
}

func TestTrimZeroBordersAllZero(t *testing.T) {
	r := &grid.Raster{
		Data: []float64{0, 0, 0, 0},
		Rows: 2, Cols: 2,
		Transform: [6]float64{0, 1000, 0, 2000, 0, -1000},
	}

	trimmed := TrimZeroBorders(r)
	assert.Equal(t, r, trimmed)
}
