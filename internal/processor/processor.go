package processor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/MaratBR/viirs-composer/internal/persistence"
	"github.com/MaratBR/viirs-composer/internal/product"
	"github.com/MaratBR/viirs-composer/internal/raster"
	"github.com/MaratBR/viirs-composer/internal/viirs"
	"github.com/MaratBR/viirs-composer/output"
)

const lastCheckTimeKey = "last_check_time"

// Projector is the planar projection capability the processor hands to the
// geolocation indexer, plus the WKT attached to produced rasters.
type Projector interface {
	grid.Projector
	WKT() string
}

// RasterIO is the raster reading capability; raster.Reader is the GDAL
// implementation, tests inject fakes.
type RasterIO interface {
	grid.BandReader
	TryOpenFileset(fs viirs.FileSet) error
	ReadGeolocation(info viirs.GeofileInfo) (lat, lon []float64, err error)
}

// Processor drives unattended batch conversion: discover file sets, turn
// each into a trimmed composite plus derived products, and remember what
// was already done. One file set is fully processed before the next begins.
type Processor struct {
	SearchDirs []string
	OutDir     string
	Scale      float64
	MakeNDVI   bool

	store *persistence.Store
	io    RasterIO
	proj  Projector
}

func New(searchDirs []string, outDir, dataDir string, scale float64, proj Projector, io RasterIO) (*Processor, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}
	store, err := persistence.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &Processor{
		SearchDirs: searchDirs,
		OutDir:     outDir,
		Scale:      scale,
		MakeNDVI:   true,
		store:      store,
		io:         io,
		proj:       proj,
	}, nil
}

// AllFilesets discovers every file set in the search directories.
func (p *Processor) AllFilesets() ([]viirs.FileSet, error) {
	return viirs.FindFilesets(p.SearchDirs)
}

// FindFilesets discovers file sets in directories modified since the last
// processing run.
func (p *Processor) FindFilesets() ([]viirs.FileSet, error) {
	var lastCheck int64
	p.store.GetMeta(lastCheckTimeKey, &lastCheck)

	var recent []string
	for _, dir := range p.SearchDirs {
		stat, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to stat search directory %s: %w", dir, err)
		}
		if stat.ModTime().Unix() >= lastCheck {
			recent = append(recent, dir)
		}
	}
	if len(recent) == 0 {
		return nil, nil
	}
	return viirs.FindFilesets(recent)
}

// ProcessRecentFilesets processes every newly delivered file set in order.
// The batch aborts on the first file set that fails; already processed
// file sets are skipped.
func (p *Processor) ProcessRecentFilesets() error {
	filesets, err := p.FindFilesets()
	if err != nil {
		return err
	}
	if len(filesets) == 0 {
		fmt.Println("No file sets found")
		return nil
	}
	fmt.Printf("Found %d file sets, starting processing...\n", len(filesets))

	var report []output.ReportRow
	defer func() {
		if len(report) == 0 {
			return
		}
		reportPath := filepath.Join(p.OutDir, fmt.Sprintf("processing_report_%s.csv", time.Now().Format("2006-01-02_150405")))
		if err := output.SaveReport(report, reportPath); err != nil {
			fmt.Printf("Failed to save processing report: %s\n", err.Error())
		}
	}()

	for _, fs := range filesets {
		if p.store.HasFileset(fs.ID()) {
			fmt.Printf("File set %s was already processed, skipping\n", fs.GeolocFile.Name)
			continue
		}

		row, err := p.ProcessFileset(fs)
		report = append(report, row)
		if err != nil {
			return fmt.Errorf("failed to process file set %s: %w", fs.GeolocFile.Name, err)
		}
	}

	return p.store.SetMeta(lastCheckTimeKey, time.Now().Unix())
}

// ProcessFileset converts one file set into a trimmed multi-band composite
// and, for imagery-resolution sets, an NDVI product with quicklook and
// footprint. The result is recorded in the persistence store.
func (p *Processor) ProcessFileset(fs viirs.FileSet) (output.ReportRow, error) {
	started := time.Now()
	row := output.ReportRow{
		FilesetID:  fs.ID(),
		GeolocFile: fs.GeolocFile.Name,
		Bands:      len(fs.BandFiles),
		Scale:      p.Scale,
		Status:     "failed",
	}
	finish := func(err error) (output.ReportRow, error) {
		row.DurationMs = time.Since(started).Milliseconds()
		row.FinishedAt = time.Now()
		if err == nil {
			row.Status = "ok"
		} else if IsRecoverable(err) {
			// bad delivery, a redelivered file set may still succeed
			row.Status = "bad source data"
		}
		return row, err
	}

	if err := fs.Validate(); err != nil {
		return finish(fmt.Errorf("%w: %v", grid.ErrInvalidData, err))
	}
	if err := p.io.TryOpenFileset(fs); err != nil {
		return finish(err)
	}

	fmt.Printf("Processing file set %s scale=%v\n", fs.GeolocFile.Name, p.Scale)

	lat, lon, err := p.io.ReadGeolocation(fs.GeolocFile)
	if err != nil {
		return finish(err)
	}
	idx, err := grid.BuildGeolocIndex(lat, lon, p.Scale, p.proj)
	if err != nil {
		return finish(err)
	}

	composite, err := grid.AssembleComposite(fs.BandFiles, idx, p.io, p.proj.WKT())
	if err != nil {
		return finish(err)
	}
	composite.Trim()
	row.Rows = composite.Rows
	row.Cols = composite.Cols
	row.FailedBand = countNaNBands(composite)

	compositePath := filepath.Join(p.OutDir, "out_"+strings.TrimSuffix(fs.GeolocFile.Name, ".h5")+".tiff")
	if err := raster.WriteComposite(compositePath, composite); err != nil {
		return finish(err)
	}
	row.Output = compositePath

	if err := output.SaveFootprint(composite, fs.ID(), filepath.Join(p.OutDir, fs.ID()+"_footprint.geojson")); err != nil {
		fmt.Printf("Failed to save footprint: %s\n", err.Error())
	}

	if p.MakeNDVI && fs.GeolocFile.Band() == "I" {
		if err := p.makeNDVI(composite, fs); err != nil {
			return finish(err)
		}
	} else {
		quicklookPath := filepath.Join(p.OutDir, fs.ID()+"_b1.png")
		if err := output.SaveBandQuicklook(composite, 0, quicklookPath); err != nil {
			fmt.Printf("Failed to save band quicklook: %s\n", err.Error())
		}
	}

	err = p.store.AddFileset(persistence.FilesetRecord{
		ID:         fs.ID(),
		GeolocFile: fs.GeolocFile.Name,
		BandFiles:  bandNames(fs),
	})
	return finish(err)
}

func (p *Processor) makeNDVI(composite *grid.Composite, fs viirs.FileSet) error {
	ndvi, err := product.NDVIFromComposite(composite)
	if err != nil {
		return err
	}

	ndviPath := filepath.Join(p.OutDir, fs.ID()+"_ndvi.tiff")
	if err := raster.WriteRaster(ndviPath, ndvi, composite.CRS); err != nil {
		return err
	}

	quicklookPath := filepath.Join(p.OutDir, fs.ID()+"_ndvi.png")
	if err := output.SaveNDVIQuicklook(ndvi, quicklookPath); err != nil {
		fmt.Printf("Failed to save NDVI quicklook: %s\n", err.Error())
	}
	return nil
}

// ProcessNDVI computes NDVI from a written composite file. When a cloud
// classification raster is given, cloud pixels are overwritten with the
// cloud sentinel; a mask failure is logged and masking skipped.
func (p *Processor) ProcessNDVI(compositePath, cloudMaskPath, outputPath string) error {
	composite, err := raster.ReadComposite(compositePath)
	if err != nil {
		return err
	}
	ndvi, err := product.NDVIFromComposite(composite)
	if err != nil {
		return err
	}

	if cloudMaskPath != "" {
		mask, _, err := raster.ReadRaster(cloudMaskPath)
		if err == nil {
			err = product.ApplyCloudMask(ndvi, mask)
		}
		if err != nil {
			fmt.Printf("Failed to apply cloud mask to NDVI: %s\n", err.Error())
		}
	}

	return raster.WriteRaster(outputPath, ndvi, composite.CRS)
}

// ProcessNDVIDynamics compares two epochs' NDVI rasters and writes the
// relative-change product.
func (p *Processor) ProcessNDVIDynamics(b1Path, b2Path, outputPath string) error {
	b1, crs, err := raster.ReadRaster(b1Path)
	if err != nil {
		return err
	}
	b2, _, err := raster.ReadRaster(b2Path)
	if err != nil {
		return err
	}

	dynamics, err := product.NDVIDynamics(b1, b2)
	if err != nil {
		return err
	}
	return raster.WriteRaster(outputPath, dynamics, crs)
}

// ProcessCloudMask reprojects a cloud classification raster into the
// working projection and scale when needed, trims uniform-zero borders and
// writes it as uint8.
func (p *Processor) ProcessCloudMask(inputPath, outputPath string) error {
	mask, err := raster.Reproject(inputPath, p.proj.WKT(), p.Scale)
	if err != nil {
		return err
	}
	return raster.WriteByteRaster(outputPath, product.TrimZeroBorders(mask), p.proj.WKT())
}

// Reset forgets the last check timestamp and every processed file set, so
// the next run reprocesses everything.
func (p *Processor) Reset() error {
	if err := p.store.DeleteMeta(lastCheckTimeKey); err != nil {
		return err
	}
	return p.store.ResetFilesets()
}

// IsRecoverable reports whether an error is a per-band condition the
// composite assembler would substitute, as opposed to a fatal one.
func IsRecoverable(err error) bool {
	return errors.Is(err, grid.ErrSubDatasetNotFound) || errors.Is(err, grid.ErrCorruptedFile)
}

func countNaNBands(c *grid.Composite) int {
	count := 0
	for _, band := range c.Bands {
		allNaN := true
		for _, v := range band {
			if !math.IsNaN(v) {
				allNaN = false
				break
			}
		}
		if allNaN {
			count++
		}
	}
	return count
}

func bandNames(fs viirs.FileSet) []string {
	names := make([]string, len(fs.BandFiles))
	for i, b := range fs.BandFiles {
		names[i] = b.Name
	}
	return names
}
