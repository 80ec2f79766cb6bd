package viirs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// VIIRS SDR file type prefixes. Geolocation files carry per-pixel
// latitude/longitude arrays, SV* files carry one spectral band each.
var geolocTypes = []string{"GIMGO", "GITCO", "GMODO", "GMTCO"}

type GeofileInfo struct {
	Path      string
	Name      string
	FileType  string // GIMGO, SVI01, SVM16, ...
	Satellite string
	Date      time.Time
	StartTime string
	EndTime   string
	Orbit     string
}

// ParseFilename parses a VIIRS SDR filename of the form
// GIMGO_npp_d20210131_t0722316_e0728120_b47905_c20210131073951_cspp_dev.h5.
func ParseFilename(path string) (*GeofileInfo, error) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".h5") {
		return nil, fmt.Errorf("%s is not an h5 file", name)
	}
	parts := strings.Split(strings.TrimSuffix(name, ".h5"), "_")
	if len(parts) < 6 {
		return nil, fmt.Errorf("unexpected VIIRS filename format: %s", name)
	}

	fileType := parts[0]
	if !isKnownType(fileType) {
		return nil, fmt.Errorf("unknown VIIRS file type %s in %s", fileType, name)
	}

	if !strings.HasPrefix(parts[2], "d") || !strings.HasPrefix(parts[3], "t") ||
		!strings.HasPrefix(parts[4], "e") || !strings.HasPrefix(parts[5], "b") {
		return nil, fmt.Errorf("unexpected VIIRS filename format: %s", name)
	}

	date, err := time.Parse("20060102", strings.TrimPrefix(parts[2], "d"))
	if err != nil {
		return nil, fmt.Errorf("invalid date in %s: %v", name, err)
	}

	return &GeofileInfo{
		Path:      path,
		Name:      name,
		FileType:  fileType,
		Satellite: parts[1],
		Date:      date,
		StartTime: strings.TrimPrefix(parts[3], "t"),
		EndTime:   strings.TrimPrefix(parts[4], "e"),
		Orbit:     strings.TrimPrefix(parts[5], "b"),
	}, nil
}

func isKnownType(t string) bool {
	for _, g := range geolocTypes {
		if t == g {
			return true
		}
	}
	if len(t) == 5 && strings.HasPrefix(t, "SV") {
		_, err := strconv.Atoi(t[3:])
		return err == nil && (t[2] == 'I' || t[2] == 'M')
	}
	return false
}

func (g GeofileInfo) IsGeoloc() bool {
	for _, t := range geolocTypes {
		if g.FileType == t {
			return true
		}
	}
	return false
}

func (g GeofileInfo) IsBand() bool {
	return strings.HasPrefix(g.FileType, "SV")
}

// Band returns the spectral group: "I" for imagery-resolution files,
// "M" for moderate-resolution files.
func (g GeofileInfo) Band() string {
	switch {
	case g.IsBand():
		return g.FileType[2:3]
	case g.FileType == "GIMGO" || g.FileType == "GITCO":
		return "I"
	case g.FileType == "GMODO" || g.FileType == "GMTCO":
		return "M"
	}
	return ""
}

func (g GeofileInfo) BandNumber() int {
	if !g.IsBand() {
		return 0
	}
	n, _ := strconv.Atoi(g.FileType[3:])
	return n
}

func (g GeofileInfo) BandVerbose() string {
	if !g.IsBand() {
		return g.FileType
	}
	return fmt.Sprintf("%s (%s-band %d)", g.FileType, g.Band(), g.BandNumber())
}

// DatasetName returns the HDF5 sub-dataset holding the band's digital
// numbers. Thermal bands store brightness temperature instead of reflectance.
func (g GeofileInfo) DatasetName() string {
	n := g.BandNumber()
	if g.Band() == "I" && n >= 4 || g.Band() == "M" && n >= 12 {
		return "BrightnessTemperature"
	}
	return "Reflectance"
}

// FileSet is one acquisition: a geolocation file plus the band files that
// share its timestamp and spectral group.
type FileSet struct {
	GeolocFile GeofileInfo
	BandFiles  []GeofileInfo
}

// ID identifies a file set across runs regardless of where it was found.
func (fs FileSet) ID() string {
	return fmt.Sprintf("%s_%s_d%s_t%s_b%s",
		fs.GeolocFile.Band(),
		fs.GeolocFile.Satellite,
		fs.GeolocFile.Date.Format("20060102"),
		fs.GeolocFile.StartTime,
		fs.GeolocFile.Orbit)
}

func (fs FileSet) Validate() error {
	if !fs.GeolocFile.IsGeoloc() {
		return fmt.Errorf("%s is not a geolocation file", fs.GeolocFile.Name)
	}
	if len(fs.BandFiles) == 0 {
		return fmt.Errorf("file set %s has no band files", fs.ID())
	}
	group := fs.GeolocFile.Band()
	for _, b := range fs.BandFiles {
		if b.Band() != group {
			return fmt.Errorf("band file %s does not belong to group %s", b.Name, group)
		}
	}
	return nil
}
