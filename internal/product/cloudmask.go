package product

import (
	"github.com/MaratBR/viirs-composer/internal/grid"
)

// TrimZeroBorders crops the borders of a classification raster that are
// uniformly zero, shifting the transform origin to match. Like composite
// trimming it is idempotent.
func TrimZeroBorders(r *grid.Raster) *grid.Raster {
	minRow, maxRow := r.Rows, -1
	minCol, maxCol := r.Cols, -1
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			if r.Data[row*r.Cols+col] != 0 {
				if row < minRow {
					minRow = row
				}
				if row > maxRow {
					maxRow = row
				}
				if col < minCol {
					minCol = col
				}
				if col > maxCol {
					maxCol = col
				}
			}
		}
	}
	if maxRow < 0 {
		return r
	}

	rows := maxRow - minRow + 1
	cols := maxCol - minCol + 1
	data := make([]float64, rows*cols)
	for row := 0; row < rows; row++ {
		copy(data[row*cols:(row+1)*cols],
			r.Data[(minRow+row)*r.Cols+minCol:(minRow+row)*r.Cols+minCol+cols])
	}
	t := r.Transform
	t[0] += float64(minCol) * t[1]
	t[3] += float64(minRow) * t[5]
	return &grid.Raster{Data: data, Rows: rows, Cols: cols, Transform: t}
}
