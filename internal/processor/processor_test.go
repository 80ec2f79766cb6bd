package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/MaratBR/viirs-composer/internal/persistence"
	"github.com/MaratBR/viirs-composer/internal/viirs"
)

type fakeProjector struct{}

func (fakeProjector) Project(lon, lat []float64) ([]float64, []float64, error) {
	x := make([]float64, len(lon))
	y := make([]float64, len(lat))
	for i := range lon {
		x[i] = lon[i] * 100000
		y[i] = lat[i] * 100000
	}
	return x, y, nil
}

func (fakeProjector) WKT() string { return "LOCAL_CS[\"test\"]" }

type fakeIO struct {
	openErr error
}

func (f *fakeIO) TryOpenFileset(fs viirs.FileSet) error { return f.openErr }

func (f *fakeIO) ReadGeolocation(info viirs.GeofileInfo) ([]float64, []float64, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (f *fakeIO) ReadBand(info viirs.GeofileInfo) (*grid.BandData, error) {
	return nil, fmt.Errorf("not implemented")
}

func newTestProcessor(t *testing.T, searchDir string, io RasterIO) *Processor {
	t.Helper()
	p, err := New([]string{searchDir}, t.TempDir(), t.TempDir(), 2000, fakeProjector{}, io)
	assert.NoError(t, err)
	return p
}

func writeFileset(t *testing.T, dir string) viirs.FileSet {
	t.Helper()
	names := []string{
		"GIMGO_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5",
		"SVI01_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5",
		"SVI02_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5",
	}
	for _, name := range names {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	filesets, err := viirs.FindFilesets([]string{dir})
	assert.NoError(t, err)
	assert.Len(t, filesets, 1)
	return filesets[0]
}

func TestProcessFilesetRejectsInvalid(t *testing.T) {
	p := newTestProcessor(t, t.TempDir(), &fakeIO{})

	// band file in the geolocation slot
	fs := viirs.FileSet{
		GeolocFile: viirs.GeofileInfo{Name: "SVI01_x.h5", FileType: "SVI01"},
	}
	row, err := p.ProcessFileset(fs)
	assert.ErrorIs(t, err, grid.ErrInvalidData)
	assert.Equal(t, "failed", row.Status)
	assert.False(t, p.store.HasFileset(fs.ID()))
}

func TestProcessFilesetReportsBadSourceData(t *testing.T) {
	dir := t.TempDir()
	fs := writeFileset(t, dir)

	openErr := fmt.Errorf("%w: truncated file", grid.ErrCorruptedFile)
	p := newTestProcessor(t, dir, &fakeIO{openErr: openErr})

	row, err := p.ProcessFileset(fs)
	assert.ErrorIs(t, err, grid.ErrCorruptedFile)
	assert.Equal(t, "bad source data", row.Status)
	assert.False(t, p.store.HasFileset(fs.ID()))
}

func TestProcessRecentFilesetsSkipsProcessed(t *testing.T) {
	dir := t.TempDir()
	fs := writeFileset(t, dir)

	io := &fakeIO{openErr: fmt.Errorf("should not be opened")}
	p := newTestProcessor(t, dir, io)
	assert.NoError(t, p.store.AddFileset(persistence.FilesetRecord{ID: fs.ID()}))

	assert.NoError(t, p.ProcessRecentFilesets())

	var lastCheck int64
	assert.True(t, p.store.GetMeta("last_check_time", &lastCheck))
	assert.NotZero(t, lastCheck)
}

func TestProcessRecentFilesetsAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFileset(t, dir)

	openErr := fmt.Errorf("%w: truncated file", grid.ErrCorruptedFile)
	p := newTestProcessor(t, dir, &fakeIO{openErr: openErr})

	err := p.ProcessRecentFilesets()
	assert.ErrorIs(t, err, grid.ErrCorruptedFile)

	// an aborted batch must not advance the last check timestamp
	var lastCheck int64
	assert.False(t, p.store.GetMeta("last_check_time", &lastCheck))

	// the report covers the failed file set
	reports, err := filepath.Glob(filepath.Join(p.OutDir, "processing_report_*.csv"))
	assert.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestFindFilesetsHonorsLastCheckTime(t *testing.T) {
	dir := t.TempDir()
	writeFileset(t, dir)
	p := newTestProcessor(t, dir, &fakeIO{})

	filesets, err := p.FindFilesets()
	assert.NoError(t, err)
	assert.Len(t, filesets, 1)

	// pretend the last run happened far in the future
	assert.NoError(t, p.store.SetMeta("last_check_time", int64(1<<40)))
	filesets, err = p.FindFilesets()
	assert.NoError(t, err)
	assert.Empty(t, filesets)
}

func TestReset(t *testing.T) {
	p := newTestProcessor(t, t.TempDir(), &fakeIO{})
	assert.NoError(t, p.store.AddFileset(persistence.FilesetRecord{ID: "a"}))
	assert.NoError(t, p.store.SetMeta("last_check_time", int64(42)))

	assert.NoError(t, p.Reset())
	assert.False(t, p.store.HasFileset("a"))

	var lastCheck int64
	assert.False(t, p.store.GetMeta("last_check_time", &lastCheck))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(fmt.Errorf("band: %w", grid.ErrSubDatasetNotFound)))
	assert.True(t, IsRecoverable(grid.ErrCorruptedFile))
	assert.False(t, IsRecoverable(grid.ErrProcessing))
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
}
