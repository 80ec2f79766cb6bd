package grid

import (
	"fmt"
	"math"
)

const (
	// ObptFill marks onboard-trimmed pixels in VIIRS DN arrays.
	ObptFill = 65528
	// NAFill marks not-applicable pixels, set where the quality mask flags
	// a sample as bad.
	NAFill = 65535

	// DefaultSaturationThreshold is the DN value above which a cell is
	// treated as saturated/no-data.
	DefaultSaturationThreshold = 60000

	// Quality mask values above this flag a bad sample.
	qualityBadThreshold = 32

	// Gap-fill search radius in pixels. Scatter gridding leaves single-pixel
	// holes where the swath overlaps itself; this is bounded inpainting, not
	// general interpolation.
	fillSearchRadius = 10
)

// RadiometricFactors convert digital numbers to physical units.
type RadiometricFactors struct {
	Scale  float64
	Offset float64
}

// BandData is one band's raw content as read from a source file: digital
// numbers in the swath shape, an optional quality mask of the same shape
// and optional radiometric factors.
type BandData struct {
	Info    string // label used in diagnostics, e.g. "SVI01 (I-band 1)"
	DN      []float64
	Quality []float64
	Factors *RadiometricFactors
}

// RasterizeBand scatters one band's digital numbers into the regular grid
// described by idx. The returned grid has idx.Rows*idx.Cols cells, row 0 is
// the northernmost row, no-data is NaN and values are in physical units
// when radiometric factors were supplied.
func RasterizeBand(src *BandData, idx *GeolocIndex, satThreshold float64) ([]float64, error) {
	if idx.Rows < 2 || idx.Cols < 2 {
		return nil, fmt.Errorf("output image must be at least 2x2, got %dx%d", idx.Rows, idx.Cols)
	}
	if len(src.DN) != len(idx.Mask) {
		return nil, fmt.Errorf("band array size %d does not match geolocation array size %d", len(src.DN), len(idx.Mask))
	}
	if src.Quality != nil && len(src.Quality) != len(src.DN) {
		return nil, fmt.Errorf("quality mask size %d does not match band array size %d", len(src.Quality), len(src.DN))
	}

	dn := src.DN
	if src.Quality != nil {
		dn = make([]float64, len(src.DN))
		copy(dn, src.DN)
		for i, q := range src.Quality {
			if q > qualityBadThreshold {
				dn[i] = NAFill
			}
		}
	}

	masked := make([]float64, 0, len(idx.RowIndex))
	for i, ok := range idx.Mask {
		if ok {
			masked = append(masked, dn[i])
		}
	}
	if len(masked) != len(idx.RowIndex) {
		return nil, fmt.Errorf("masked band size %d does not match index size %d", len(masked), len(idx.RowIndex))
	}

	// Scatter. Where several swath samples land in the same cell the last
	// one in row-major swath order wins; downstream products rely on this
	// tie-break being deterministic.
	image := make([]float64, idx.Rows*idx.Cols)
	for i, v := range masked {
		image[idx.RowIndex[i]*idx.Cols+idx.ColIndex[i]] = v
	}

	// Indices were computed with a south-up sense, the target raster's
	// row 0 is the northernmost row.
	flipVertical(image, idx.Rows, idx.Cols)

	for i, v := range image {
		if v == ObptFill || math.IsNaN(v) {
			image[i] = 0
		}
	}
	fillNodata(image, idx.Rows, idx.Cols, fillSearchRadius)

	for i, v := range image {
		if v > satThreshold || v == 0 {
			image[i] = math.NaN()
		}
	}

	if src.Factors != nil {
		for i, v := range image {
			if !math.IsNaN(v) {
				image[i] = v*src.Factors.Scale + src.Factors.Offset
			}
		}
	}
	return image, nil
}

func flipVertical(image []float64, rows, cols int) {
	for r := 0; r < rows/2; r++ {
		top := image[r*cols : (r+1)*cols]
		bottom := image[(rows-1-r)*cols : (rows-r)*cols]
		for c := range top {
			top[c], bottom[c] = bottom[c], top[c]
		}
	}
}

// fillNodata replaces zero cells with the value of the nearest non-zero
// cell within radius pixels. Cells with no non-zero neighbor in range stay
// zero. Source values are taken from a snapshot so filled cells do not
// cascade into their neighbors.
func fillNodata(image []float64, rows, cols, radius int) {
	src := make([]float64, len(image))
	copy(src, image)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if src[r*cols+c] != 0 {
				continue
			}
			if v, ok := nearestValue(src, rows, cols, r, c, radius); ok {
				image[r*cols+c] = v
			}
		}
	}
}

func nearestValue(src []float64, rows, cols, r, c, radius int) (float64, bool) {
	best := math.Inf(1)
	var bestVal float64
	for ring := 1; ring <= radius; ring++ {
		if float64(ring*ring) > best {
			break
		}
		for dr := -ring; dr <= ring; dr++ {
			rr := r + dr
			if rr < 0 || rr >= rows {
				continue
			}
			for dc := -ring; dc <= ring; dc++ {
				// ring perimeter only
				if dr > -ring && dr < ring && dc > -ring && dc < ring {
					continue
				}
				cc := c + dc
				if cc < 0 || cc >= cols {
					continue
				}
				v := src[rr*cols+cc]
				if v == 0 {
					continue
				}
				d := float64(dr*dr + dc*dc)
				if d > float64(radius*radius) {
					continue
				}
				if d < best {
					best = d
					bestVal = v
				}
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return bestVal, true
}
