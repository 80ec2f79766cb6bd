package output

import (
	"fmt"
	"math"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/MaratBR/viirs-composer/internal/product"
	"github.com/fogleman/gg"
)

// SaveNDVIQuicklook renders an NDVI raster to a PNG preview. NDVI in
// [-1, 1] maps onto a brown-to-green ramp, cloud sentinel pixels are drawn
// white and no-data stays black.
func SaveNDVIQuicklook(r *grid.Raster, outputPath string) error {
	dc := gg.NewContext(r.Cols, r.Rows)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			v := r.Data[row*r.Cols+col]
			if math.IsNaN(v) {
				continue
			}
			if v == product.CloudSentinel {
				dc.SetRGB(1, 1, 1)
				dc.SetPixel(col, row)
				continue
			}
			red, green, blue := ndviColor(v)
			dc.SetRGB(red, green, blue)
			dc.SetPixel(col, row)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save quicklook: %v", err)
	}
	return nil
}

// SaveBandQuicklook renders one composite band to a grayscale PNG, scaling
// the finite value range to full contrast.
func SaveBandQuicklook(c *grid.Composite, band int, outputPath string) error {
	if band < 0 || band >= len(c.Bands) {
		return fmt.Errorf("composite has no band %d", band+1)
	}
	data := c.Bands[band]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) || hi == lo {
		return fmt.Errorf("band %d has no finite value range", band+1)
	}

	dc := gg.NewContext(c.Cols, c.Rows)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	for row := 0; row < c.Rows; row++ {
		for col := 0; col < c.Cols; col++ {
			v := data[row*c.Cols+col]
			if math.IsNaN(v) {
				continue
			}
			gray := (v - lo) / (hi - lo)
			dc.SetRGB(gray, gray, gray)
			dc.SetPixel(col, row)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save quicklook: %v", err)
	}
	return nil
}

func ndviColor(v float64) (float64, float64, float64) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	// -1 -> brown, 0 -> yellow, 1 -> green
	t := (v + 1) / 2
	if t < 0.5 {
		s := t * 2
		return 0.55 + 0.35*s, 0.35 + 0.5*s, 0.15
	}
	s := (t - 0.5) * 2
	return 0.9 - 0.8*s, 0.85 - 0.25*s, 0.15
}
