package viirs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
}

func TestFindFilesets(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "GIMGO_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	touch(t, dir, "SVI02_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	touch(t, dir, "SVI01_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	// a second acquisition without band files, must not form a set
	touch(t, dir, "GIMGO_npp_d20210131_t0950000_e0955000_b47906_c1_cspp_dev.h5")
	touch(t, dir, "random.txt")

	filesets, err := FindFilesets([]string{dir})
	assert.NoError(t, err)
	assert.Len(t, filesets, 1)

	fs := filesets[0]
	assert.Equal(t, "GIMGO", fs.GeolocFile.FileType)
	assert.Len(t, fs.BandFiles, 2)
	// bands sorted by band number
	assert.Equal(t, "SVI01", fs.BandFiles[0].FileType)
	assert.Equal(t, "SVI02", fs.BandFiles[1].FileType)
}

func TestFindFilesetsAcrossDirs(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	touch(t, dir1, "GIMGO_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	touch(t, dir1, "SVI01_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	touch(t, dir2, "GIMGO_npp_d20210201_t0101000_e0105000_b47910_c1_cspp_dev.h5")
	touch(t, dir2, "SVI01_npp_d20210201_t0101000_e0105000_b47910_c1_cspp_dev.h5")

	filesets, err := FindFilesets([]string{dir1, dir2})
	assert.NoError(t, err)
	assert.Len(t, filesets, 2)
	// sorted by acquisition date
	assert.Equal(t, "20210131", filesets[0].GeolocFile.Date.Format("20060102"))
	assert.Equal(t, "20210201", filesets[1].GeolocFile.Date.Format("20060102"))
}

func TestFindFilesetsPrefersTerrainCorrectedGeoloc(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "GIMGO_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	touch(t, dir, "GITCO_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")
	touch(t, dir, "SVI01_npp_d20210131_t0722316_e0728120_b47905_c1_cspp_dev.h5")

	filesets, err := FindFilesets([]string{dir})
	assert.NoError(t, err)
	assert.Len(t, filesets, 1)
	assert.Equal(t, "GITCO", filesets[0].GeolocFile.FileType)
}

func TestFindFilesetsMissingDir(t *testing.T) {
	_, err := FindFilesets([]string{"/does/not/exist"})
	assert.Error(t, err)
}
