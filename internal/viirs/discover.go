package viirs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FindFilesets scans the given directories for VIIRS SDR files and groups
// them into file sets keyed by acquisition (satellite + date + start time +
// spectral group). Directories are scanned concurrently; files that do not
// parse as VIIRS SDR names are skipped silently.
func FindFilesets(dirs []string) ([]FileSet, error) {
	var (
		mu    sync.Mutex
		infos []*GeofileInfo
	)

	var g errgroup.Group
	for _, dir := range dirs {
		dir := dir
		g.Go(func() error {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("failed to read directory %s: %w", dir, err)
			}
			var local []*GeofileInfo
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".h5") {
					continue
				}
				info, err := ParseFilename(filepath.Join(dir, entry.Name()))
				if err != nil {
					continue
				}
				local = append(local, info)
			}
			mu.Lock()
			infos = append(infos, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return groupFilesets(infos), nil
}

func acquisitionKey(info *GeofileInfo) string {
	return fmt.Sprintf("%s_%s_%s_%s", info.Band(), info.Satellite,
		info.Date.Format("20060102"), info.StartTime)
}

func groupFilesets(infos []*GeofileInfo) []FileSet {
	geolocs := make(map[string]GeofileInfo)
	bands := make(map[string][]GeofileInfo)

	for _, info := range infos {
		key := acquisitionKey(info)
		switch {
		case info.IsGeoloc():
			// Terrain-corrected geolocation wins over ellipsoid geolocation
			// when both are delivered.
			if existing, ok := geolocs[key]; ok && existing.terrainCorrected() && !info.terrainCorrected() {
				continue
			}
			geolocs[key] = *info
		case info.IsBand():
			bands[key] = append(bands[key], *info)
		}
	}

	filesets := make([]FileSet, 0, len(geolocs))
	for key, geoloc := range geolocs {
		bandFiles := bands[key]
		if len(bandFiles) == 0 {
			continue
		}
		sort.Slice(bandFiles, func(i, j int) bool {
			return bandFiles[i].BandNumber() < bandFiles[j].BandNumber()
		})
		filesets = append(filesets, FileSet{GeolocFile: geoloc, BandFiles: bandFiles})
	}

	sort.Slice(filesets, func(i, j int) bool {
		a, b := filesets[i], filesets[j]
		if !a.GeolocFile.Date.Equal(b.GeolocFile.Date) {
			return a.GeolocFile.Date.Before(b.GeolocFile.Date)
		}
		return a.GeolocFile.StartTime < b.GeolocFile.StartTime
	})
	return filesets
}

func (g GeofileInfo) terrainCorrected() bool {
	return g.FileType == "GITCO" || g.FileType == "GMTCO"
}
