package product

import (
	"math"
	"testing"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/stretchr/testify/assert"
)

func TestNDVI(t *testing.T) {
	red := []float64{0.1, 0.3, 0.5}
	nir := []float64{0.5, 0.3, 0.1}

	ndvi, err := NDVI(red, nir)
	assert.NoError(t, err)
	assert.InDelta(t, 0.6667, ndvi[0], 1e-4)
	assert.Equal(t, 0.0, ndvi[1])
	assert.InDelta(t, -0.6667, ndvi[2], 1e-4)
}

func TestNDVIRange(t *testing.T) {
	red := []float64{0.01, 0.2, 0.9, 0.44}
	nir := []float64{0.95, 0.2, 0.05, 0.31}

	ndvi, err := NDVI(red, nir)
	assert.NoError(t, err)
	for _, v := range ndvi {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNDVIZeroDenominator(t *testing.T) {
	ndvi, err := NDVI([]float64{0}, []float64{0})
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(ndvi[0]))
}

func TestNDVIPropagatesNaN(t *testing.T) {
	ndvi, err := NDVI([]float64{math.NaN()}, []float64{0.5})
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(ndvi[0]))
}

func TestNDVISizeMismatch(t *testing.T) {
	_, err := NDVI([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestNDVIFromComposite(t *testing.T) {
	c := &grid.Composite{
		Bands: [][]float64{{0.1, 0.2}, {0.5, 0.6}},
		Rows:  1, Cols: 2,
		Transform: [6]float64{0, 1000, 0, 1000, 0, -1000},
	}

	ndvi, err := NDVIFromComposite(c)
	assert.NoError(t, err)
	assert.Equal(t, 1, ndvi.Rows)
	assert.Equal(t, 2, ndvi.Cols)
	assert.Equal(t, c.Transform, ndvi.Transform)
	assert.InDelta(t, (0.5-0.1)/(0.5+0.1), ndvi.Data[0], 1e-12)
}

func TestNDVIFromCompositeTooFewBands(t *testing.T) {
	c := &grid.Composite{Bands: [][]float64{{0.1}}, Rows: 1, Cols: 1}
	_, err := NDVIFromComposite(c)
	assert.Error(t, err)
}

func TestApplyCloudMask(t *testing.T) {
	ndvi := &grid.Raster{
		Data: []float64{0.1, 0.2, 0.3, 0.4},
		Rows: 2, Cols: 2,
		Transform: [6]float64{0, 1000, 0, 2000, 0, -1000},
	}
	mask := &grid.Raster{
		Data: []float64{0, 4, 0, 0},
		Rows: 2, Cols: 2,
		Transform: ndvi.Transform,
	}

	err := ApplyCloudMask(ndvi, mask)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.1, CloudSentinel, 0.3, 0.4}, ndvi.Data)
}

func TestApplyCloudMaskCoarserMask(t *testing.T) {
	ndvi := &grid.Raster{
		Data: []float64{0.1, 0.2, 0.3, 0.4},
		Rows: 2, Cols: 2,
		Transform: [6]float64{0, 1000, 0, 2000, 0, -1000},
	}
	// one coarse cloud pixel covering the whole NDVI grid
	mask := &grid.Raster{
		Data: []float64{4},
		Rows: 1, Cols: 1,
		Transform: [6]float64{0, 2000, 0, 2000, 0, -2000},
	}

	err := ApplyCloudMask(ndvi, mask)
	assert.NoError(t, err)
	assert.Equal(t, []float64{CloudSentinel, CloudSentinel, CloudSentinel, CloudSentinel}, ndvi.Data)
}

func TestApplyCloudMaskOutsideMaskIgnored(t *testing.T) {
	ndvi := &grid.Raster{
		Data: []float64{0.1, 0.2},
		Rows: 1, Cols: 2,
		Transform: [6]float64{0, 1000, 0, 1000, 0, -1000},
	}
	mask := &grid.Raster{
		Data: []float64{4},
		Rows: 1, Cols: 1,
		Transform: [6]float64{100000, 1000, 0, 1000, 0, -1000},
	}

	err := ApplyCloudMask(ndvi, mask)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, ndvi.Data)
}
