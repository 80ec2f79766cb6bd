package product

import (
	"fmt"
	"math"

	"github.com/MaratBR/viirs-composer/internal/grid"
)

const (
	// CloudSentinel marks cloud-covered NDVI pixels.
	CloudSentinel = -2
	// DynamicsCloudSentinel marks cloud pixels in NDVI dynamics, distinct
	// from the per-epoch CloudSentinel.
	DynamicsCloudSentinel = -999

	// cloudClass is the value of the cloud class in classification rasters.
	cloudClass = 4
)

// NDVI computes (nir - red) / (red + nir) elementwise. A zero denominator
// yields NaN, never an error.
func NDVI(red, nir []float64) ([]float64, error) {
	if len(red) != len(nir) {
		return nil, fmt.Errorf("band sizes differ: %d != %d", len(red), len(nir))
	}
	out := make([]float64, len(red))
	for i := range red {
		denom := red[i] + nir[i]
		if denom == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (nir[i] - red[i]) / denom
	}
	return out, nil
}

// NDVIFromComposite computes NDVI from a composite whose first two bands
// are red and near-infrared (SVI01, SVI02 for I-band file sets).
func NDVIFromComposite(c *grid.Composite) (*grid.Raster, error) {
	if len(c.Bands) < 2 {
		return nil, fmt.Errorf("composite has %d bands, need red and near-infrared", len(c.Bands))
	}
	data, err := NDVI(c.Bands[0], c.Bands[1])
	if err != nil {
		return nil, err
	}
	return &grid.Raster{Data: data, Rows: c.Rows, Cols: c.Cols, Transform: c.Transform}, nil
}

// ApplyCloudMask overwrites ndvi with CloudSentinel wherever the
// classification raster marks cloud. The mask is resampled to the NDVI grid
// by nearest neighbor through the two transforms; both rasters must share a
// coordinate system.
func ApplyCloudMask(ndvi, mask *grid.Raster) error {
	if mask.Transform[1] == 0 || mask.Transform[5] == 0 {
		return fmt.Errorf("cloud mask has a degenerate transform")
	}
	for row := 0; row < ndvi.Rows; row++ {
		// pixel center in projected coordinates
		y := ndvi.Transform[3] + (float64(row)+0.5)*ndvi.Transform[5]
		mRow := int(math.Floor((y - mask.Transform[3]) / mask.Transform[5]))
		if mRow < 0 || mRow >= mask.Rows {
			continue
		}
		for col := 0; col < ndvi.Cols; col++ {
			x := ndvi.Transform[0] + (float64(col)+0.5)*ndvi.Transform[1]
			mCol := int(math.Floor((x - mask.Transform[0]) / mask.Transform[1]))
			if mCol < 0 || mCol >= mask.Cols {
				continue
			}
			if mask.Data[mRow*mask.Cols+mCol] == cloudClass {
				ndvi.Data[row*ndvi.Cols+col] = CloudSentinel
			}
		}
	}
	return nil
}
