package grid

import (
	"fmt"
	"math"
	"sync"

	"github.com/MaratBR/viirs-composer/internal/viirs"
	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
)

// BandReader loads one band file's raw content. Implementations wrap their
// failures in ErrSubDatasetNotFound or ErrCorruptedFile where applicable.
type BandReader interface {
	ReadBand(info viirs.GeofileInfo) (*BandData, error)
}

// Composite is an ordered stack of band grids sharing one shape, transform
// and coordinate system. A band that failed to rasterize is present as an
// all-NaN grid rather than omitted.
type Composite struct {
	Bands      [][]float64
	Rows, Cols int
	Transform  [6]float64
	CRS        string
}

type bandResult struct {
	grid []float64
	err  error
}

// AssembleComposite rasterizes every band of a file set onto the grid
// described by idx. Bands are processed on a worker pool; the index is
// shared read-only. A failed band is logged and substituted with NaN, the
// assembly fails only when every band fails.
func AssembleComposite(bands []viirs.GeofileInfo, idx *GeolocIndex, reader BandReader, crs string) (*Composite, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: no band files given", ErrInvalidData)
	}

	var (
		mu          sync.Mutex
		results     = make([]bandResult, len(bands))
		progressBar = progressbar.Default(int64(len(bands)), "Rasterizing bands")
	)

	wp := workerpool.New(4)
	for i, info := range bands {
		i, info := i, info
		wp.Submit(func() {
			res := rasterizeOne(info, idx, reader)
			mu.Lock()
			results[i] = res
			progressBar.Add(1)
			mu.Unlock()
		})
	}
	wp.StopWait()
	fmt.Println()

	succeeded := 0
	for i, res := range results {
		if res.err != nil {
			fmt.Printf("Failed to process %s: %s\n", bands[i].Name, res.err.Error())
			continue
		}
		succeeded++
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("%w: all channels corrupted", ErrProcessing)
	}

	size := idx.Rows * idx.Cols
	stack := make([][]float64, len(results))
	for i, res := range results {
		if res.err != nil {
			fmt.Printf("Band %d is corrupted, filling with NaN\n", i+1)
			stack[i] = nanGrid(size)
			continue
		}
		if len(res.grid) != size {
			return nil, fmt.Errorf("band %d has size %d, expected %d", i+1, len(res.grid), size)
		}
		stack[i] = res.grid
	}

	return &Composite{
		Bands:     stack,
		Rows:      idx.Rows,
		Cols:      idx.Cols,
		Transform: idx.GeoTransform(),
		CRS:       crs,
	}, nil
}

func rasterizeOne(info viirs.GeofileInfo, idx *GeolocIndex, reader BandReader) bandResult {
	data, err := reader.ReadBand(info)
	if err != nil {
		return bandResult{err: err}
	}
	if data.Factors == nil {
		fmt.Printf("No radiometric factors for %s, keeping raw values\n", info.BandVerbose())
	}
	grid, err := RasterizeBand(data, idx, DefaultSaturationThreshold)
	if err != nil {
		return bandResult{err: err}
	}
	return bandResult{grid: grid}
}

// Trim crops the borders that are uniformly NaN across all bands and
// shifts the transform origin to match. Trimming an already trimmed
// composite is a no-op.
func (c *Composite) Trim() {
	minRow, maxRow := c.Rows, -1
	minCol, maxCol := c.Cols, -1

	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			if !c.allNaNAt(r, col) {
				if r < minRow {
					minRow = r
				}
				if r > maxRow {
					maxRow = r
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
		// nothing but no-data, leave as is
		return
	}
	if minRow == 0 && minCol == 0 && maxRow == c.Rows-1 && maxCol == c.Cols-1 {
		return
	}

	rows := maxRow - minRow + 1
	cols := maxCol - minCol + 1
	for i, band := range c.Bands {
		cropped := make([]float64, rows*cols)
		for r := 0; r < rows; r++ {
			copy(cropped[r*cols:(r+1)*cols], band[(minRow+r)*c.Cols+minCol:(minRow+r)*c.Cols+minCol+cols])
		}
		c.Bands[i] = cropped
	}
	c.Transform[0] += float64(minCol) * c.Transform[1]
	c.Transform[3] += float64(minRow) * c.Transform[5]
	c.Rows = rows
	c.Cols = cols
}

func (c *Composite) allNaNAt(row, col int) bool {
	for _, band := range c.Bands {
		if !math.IsNaN(band[row*c.Cols+col]) {
			return false
		}
	}
	return true
}

func nanGrid(size int) []float64 {
	g := make([]float64, size)
	for i := range g {
		g[i] = math.NaN()
	}
	return g
}
