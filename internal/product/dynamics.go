package product

import (
	"math"

	"github.com/MaratBR/viirs-composer/internal/grid"
)

// Relative NDVI change beyond this bound is not meaningful; the dynamics
// product saturates there.
const dynamicsClamp = 998

// CalcNDVIDynamics computes the relative change 100*(b2-b1)/b1 elementwise,
// clamped to [-998, 998]. Inputs are assumed finite and non-cloud; callers
// mask before calling.
func CalcNDVIDynamics(b1, b2 []float64) []float64 {
	out := make([]float64, len(b1))
	for i := range b1 {
		out[i] = dynamicsAt(b1[i], b2[i])
	}
	return out
}

func dynamicsAt(v1, v2 float64) float64 {
	v := 100 * (v2 - v1) / v1
	if v > dynamicsClamp {
		return dynamicsClamp
	}
	if v < -dynamicsClamp {
		return -dynamicsClamp
	}
	return v
}

// NDVIDynamics compares two epochs' NDVI rasters. Both are first cropped to
// their pixel-aligned intersection. Where either input is the cloud
// sentinel the result is DynamicsCloudSentinel; where either is NaN, NaN
// propagates; elsewhere the clamped relative change is computed.
func NDVIDynamics(b1, b2 *grid.Raster) (*grid.Raster, error) {
	c1, c2, err := grid.CropIntersection(b1, b2)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(c1.Data))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := range c1.Data {
		v1, v2 := c1.Data[i], c2.Data[i]
		if v1 == CloudSentinel || v2 == CloudSentinel {
			out[i] = DynamicsCloudSentinel
			continue
		}
		if math.IsNaN(v1) || math.IsNaN(v2) {
			continue
		}
		out[i] = dynamicsAt(v1, v2)
	}

	return &grid.Raster{Data: out, Rows: c1.Rows, Cols: c1.Cols, Transform: c1.Transform}, nil
}
