package grid

import (
	"fmt"
	"math"
)

// Raster is a single-band grid with its georeferencing transform.
type Raster struct {
	Data       []float64
	Rows, Cols int
	Transform  [6]float64
}

// CropIntersection crops two rasters to their geometric intersection by
// comparing their transforms. Both must share pixel size and orientation.
// Index anchors are rounded to the meter, not the scale, so two epochs'
// rasters are usually shifted against each other by a fraction of a pixel;
// the windows are registered to the nearest pixel and clamped so neither
// crop reads outside its source.
func CropIntersection(a, b *Raster) (*Raster, *Raster, error) {
	if a.Transform[1] != b.Transform[1] || a.Transform[5] != b.Transform[5] {
		return nil, nil, fmt.Errorf("rasters have different pixel sizes: %v vs %v",
			a.Transform[1], b.Transform[1])
	}
	sx, sy := a.Transform[1], a.Transform[5]

	left := math.Max(a.Transform[0], b.Transform[0])
	top := math.Min(a.Transform[3], b.Transform[3])
	right := math.Min(a.Transform[0]+float64(a.Cols)*sx, b.Transform[0]+float64(b.Cols)*sx)
	bottom := math.Max(a.Transform[3]+float64(a.Rows)*sy, b.Transform[3]+float64(b.Rows)*sy)

	cols := int(math.Round((right - left) / sx))
	rows := int(math.Round((bottom - top) / sy))

	aColOff, aRowOff := windowOffset(a, left, top)
	bColOff, bRowOff := windowOffset(b, left, top)
	cols = min(cols, a.Cols-aColOff, b.Cols-bColOff)
	rows = min(rows, a.Rows-aRowOff, b.Rows-bRowOff)
	if cols <= 0 || rows <= 0 {
		return nil, nil, fmt.Errorf("rasters do not intersect")
	}

	ca := cropTo(a, aColOff, aRowOff, left, top, rows, cols)
	cb := cropTo(b, bColOff, bRowOff, left, top, rows, cols)
	return ca, cb, nil
}

func windowOffset(r *Raster, left, top float64) (colOff, rowOff int) {
	colOff = int(math.Round((left - r.Transform[0]) / r.Transform[1]))
	rowOff = int(math.Round((top - r.Transform[3]) / r.Transform[5]))
	return colOff, rowOff
}

func cropTo(r *Raster, colOff, rowOff int, left, top float64, rows, cols int) *Raster {
	data := make([]float64, rows*cols)
	for row := 0; row < rows; row++ {
		copy(data[row*cols:(row+1)*cols],
			r.Data[(rowOff+row)*r.Cols+colOff:(rowOff+row)*r.Cols+colOff+cols])
	}
	t := r.Transform
	t[0] = left
	t[3] = top
	return &Raster{Data: data, Rows: rows, Cols: cols, Transform: t}
}
