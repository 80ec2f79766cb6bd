package grid

import (
	"fmt"
	"math"
)

// Values at or below -200 degrees are the sensor's fill convention for
// "no geolocation"; they are not reachable coordinates.
const geolocFillThreshold = -200

// Projector converts geodetic coordinates (degrees) to planar coordinates
// (meters) for a fixed projection definition.
type Projector interface {
	Project(lon, lat []float64) (x, y []float64, err error)
}

// GeolocIndex maps every valid swath pixel to a cell of a regular output
// grid at a fixed ground resolution. It is built once per file set and
// shared read-only by every band rasterization of that file set.
type GeolocIndex struct {
	Mask     []bool // per-pixel validity, swath shape, row-major
	RowIndex []int
	ColIndex []int

	Rows, Cols int // output grid shape

	Scale float64 // ground meters per pixel
	MinX  float64 // projected X of the grid origin, meters
	MaxY  float64 // projected Y of the grid origin, meters
}

// GeoTransform reconstructs the affine transform of the output grid:
// origin (MinX, MaxY), pixel size Scale, north-up.
func (g *GeolocIndex) GeoTransform() [6]float64 {
	return [6]float64{g.MinX, g.Scale, 0, g.MaxY, 0, -g.Scale}
}

// BuildGeolocIndex turns per-pixel latitude/longitude arrays into a pixel
// index mapping onto a regular planar grid. lat and lon are row-major
// arrays of identical length, scale is in ground meters per pixel.
func BuildGeolocIndex(lat, lon []float64, scale float64, proj Projector) (*GeolocIndex, error) {
	if len(lat) != len(lon) {
		return nil, fmt.Errorf("latitude and longitude arrays differ in size: %d != %d", len(lat), len(lon))
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}

	mask := make([]bool, len(lat))
	valid := 0
	for i := range lat {
		if lon[i] > geolocFillThreshold && lat[i] > geolocFillThreshold {
			mask[i] = true
			valid++
		}
	}
	if valid == 0 {
		return nil, fmt.Errorf("%w: no valid pixels in geolocation arrays", ErrInvalidData)
	}

	lonMasked := make([]float64, 0, valid)
	latMasked := make([]float64, 0, valid)
	for i, ok := range mask {
		if ok {
			lonMasked = append(lonMasked, lon[i])
			latMasked = append(latMasked, lat[i])
		}
	}

	x, y, err := proj.Project(lonMasked, latMasked)
	if err != nil {
		return nil, fmt.Errorf("projection failed: %w", err)
	}
	if len(x) != valid || len(y) != valid {
		return nil, fmt.Errorf("projection returned %d/%d coordinates for %d pixels", len(x), len(y), valid)
	}
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return nil, fmt.Errorf("%w: projected coordinates contain non-finite values", ErrInvalidData)
		}
	}

	// Round to the nearest meter and keep the grid origin before scaling,
	// it is needed to rebuild a correct geotransform later.
	minX, maxY := math.Inf(1), math.Inf(-1)
	for i := range x {
		x[i] = math.Round(x[i])
		y[i] = math.Round(y[i])
		minX = math.Min(minX, x[i])
		maxY = math.Max(maxY, y[i])
	}

	colIndex := make([]int, valid)
	rowIndex := make([]int, valid)
	minCol, minRow := math.MaxInt, math.MaxInt
	for i := range x {
		colIndex[i] = int(math.Round(x[i] / scale))
		rowIndex[i] = int(math.Round(y[i] / scale))
		minCol = min(minCol, colIndex[i])
		minRow = min(minRow, rowIndex[i])
	}

	maxCol, maxRow := 0, 0
	for i := range colIndex {
		colIndex[i] -= minCol
		rowIndex[i] -= minRow
		maxCol = max(maxCol, colIndex[i])
		maxRow = max(maxRow, rowIndex[i])
	}

	return &GeolocIndex{
		Mask:     mask,
		RowIndex: rowIndex,
		ColIndex: colIndex,
		Rows:     maxRow + 1,
		Cols:     maxCol + 1,
		Scale:    scale,
		MinX:     minX,
		MaxY:     maxY,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
