package raster

import (
	"fmt"
	"math"
	"strings"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/MaratBR/viirs-composer/internal/viirs"
	"github.com/airbusgeo/godal"
)

// Reader loads swath arrays out of VIIRS HDF5 files through GDAL. It
// implements grid.BandReader.
type Reader struct{}

// TryOpenFileset opens and closes every file of the set, reporting the
// first unreadable one. Cheap corruption check before the heavy work.
func (Reader) TryOpenFileset(fs viirs.FileSet) error {
	paths := make([]string, 0, len(fs.BandFiles)+1)
	for _, b := range fs.BandFiles {
		paths = append(paths, b.Path)
	}
	paths = append(paths, fs.GeolocFile.Path)

	for _, path := range paths {
		ds, err := godal.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", grid.ErrCorruptedFile, path, err)
		}
		ds.Close()
	}
	return nil
}

// ReadGeolocation reads the Latitude and Longitude sub-datasets of a
// geolocation file as row-major arrays.
func (Reader) ReadGeolocation(info viirs.GeofileInfo) (lat, lon []float64, err error) {
	subdatasets, err := listSubdatasets(info.Path)
	if err != nil {
		return nil, nil, err
	}

	latName, ok := findSubdataset(subdatasets, "/Latitude")
	if !ok {
		return nil, nil, fmt.Errorf("%w: Latitude in %s", grid.ErrSubDatasetNotFound, info.Name)
	}
	lonName, ok := findSubdataset(subdatasets, "/Longitude")
	if !ok {
		return nil, nil, fmt.Errorf("%w: Longitude in %s", grid.ErrSubDatasetNotFound, info.Name)
	}

	lat, _, _, err = readArray(latName)
	if err != nil {
		return nil, nil, err
	}
	lon, _, _, err = readArray(lonName)
	if err != nil {
		return nil, nil, err
	}
	if len(lat) != len(lon) {
		return nil, nil, fmt.Errorf("%w: latitude and longitude shapes differ in %s", grid.ErrInvalidData, info.Name)
	}
	return lat, lon, nil
}

// ReadBand reads a band file's digital numbers plus, when present, its
// quality mask and radiometric factors.
func (Reader) ReadBand(info viirs.GeofileInfo) (*grid.BandData, error) {
	subdatasets, err := listSubdatasets(info.Path)
	if err != nil {
		return nil, err
	}

	dsName, ok := findSubdataset(subdatasets, "/"+info.DatasetName())
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", grid.ErrSubDatasetNotFound, info.DatasetName(), info.Name)
	}
	dn, _, _, err := readArray(dsName)
	if err != nil {
		return nil, err
	}

	data := &grid.BandData{Info: info.BandVerbose(), DN: dn}

	if qName, ok := findSubdataset(subdatasets, "BANDSDR"); ok {
		if quality, _, _, err := readArray(qName); err == nil {
			data.Quality = quality
		}
	}

	if fName, ok := findSubdataset(subdatasets, info.DatasetName()+"Factors"); ok {
		if factors, _, _, err := readArray(fName); err == nil && len(factors) >= 2 {
			data.Factors = &grid.RadiometricFactors{Scale: factors[0], Offset: factors[1]}
		}
	}
	return data, nil
}

func listSubdatasets(path string) ([]string, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", grid.ErrCorruptedFile, path, err)
	}
	defer ds.Close()

	meta := ds.Metadatas(godal.Domain("SUBDATASETS"))
	var names []string
	for key, value := range meta {
		if strings.HasSuffix(key, "_NAME") {
			names = append(names, value)
		}
	}
	return names, nil
}

func findSubdataset(names []string, suffix string) (string, bool) {
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			return name, true
		}
	}
	return "", false
}

func readArray(datasetName string) ([]float64, int, int, error) {
	ds, err := godal.Open(datasetName)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %s: %v", grid.ErrCorruptedFile, datasetName, err)
	}
	defer ds.Close()

	band := ds.Bands()[0]
	width := band.Structure().SizeX
	height := band.Structure().SizeY
	data := make([]float64, width*height)
	if err := band.Read(0, 0, data, width, height); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: failed to read %s: %v", grid.ErrCorruptedFile, datasetName, err)
	}
	return data, width, height, nil
}

// WriteComposite writes a multi-band float32 GTiff with NaN nodata.
func WriteComposite(path string, c *grid.Composite) error {
	ds, err := createGTiff(path, len(c.Bands), godal.Float32, c.Cols, c.Rows, c.Transform, c.CRS)
	if err != nil {
		return err
	}
	defer ds.Close()

	for i, band := range c.Bands {
		b := ds.Bands()[i]
		if err := b.SetNoData(math.NaN()); err != nil {
			return fmt.Errorf("failed to set nodata: %v", err)
		}
		if err := b.Write(0, 0, toFloat32(band), c.Cols, c.Rows); err != nil {
			return fmt.Errorf("failed to write band %d: %v", i+1, err)
		}
	}
	return nil
}

// WriteRaster writes a single-band float32 GTiff with NaN nodata.
func WriteRaster(path string, r *grid.Raster, crs string) error {
	ds, err := createGTiff(path, 1, godal.Float32, r.Cols, r.Rows, r.Transform, crs)
	if err != nil {
		return err
	}
	defer ds.Close()

	b := ds.Bands()[0]
	if err := b.SetNoData(math.NaN()); err != nil {
		return fmt.Errorf("failed to set nodata: %v", err)
	}
	if err := b.Write(0, 0, toFloat32(r.Data), r.Cols, r.Rows); err != nil {
		return fmt.Errorf("failed to write raster: %v", err)
	}
	return nil
}

// WriteByteRaster writes a single-band uint8 GTiff (cloud mask products).
func WriteByteRaster(path string, r *grid.Raster, crs string) error {
	ds, err := createGTiff(path, 1, godal.Byte, r.Cols, r.Rows, r.Transform, crs)
	if err != nil {
		return err
	}
	defer ds.Close()

	buf := make([]byte, len(r.Data))
	for i, v := range r.Data {
		buf[i] = byte(v)
	}
	if err := ds.Bands()[0].Write(0, 0, buf, r.Cols, r.Rows); err != nil {
		return fmt.Errorf("failed to write raster: %v", err)
	}
	return nil
}

func createGTiff(path string, bands int, dtype godal.DataType, cols, rows int, transform [6]float64, crs string) (*godal.Dataset, error) {
	ds, err := godal.Create(godal.GTiff, path, bands, dtype, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %v", path, err)
	}
	if err := ds.SetGeoTransform(transform); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to set geotransform: %v", err)
	}
	if crs != "" {
		sr, err := godal.NewSpatialRefFromWKT(crs)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("invalid CRS: %v", err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			ds.Close()
			return nil, fmt.Errorf("failed to set CRS: %v", err)
		}
	}
	return ds, nil
}

// ReadRaster reads band 1 of a raster file along with its transform and CRS.
func ReadRaster(path string) (*grid.Raster, string, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", grid.ErrCorruptedFile, path, err)
	}
	defer ds.Close()

	return readBandRaster(ds, 0)
}

// ReadComposite reads every band of a composite file.
func ReadComposite(path string) (*grid.Composite, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", grid.ErrCorruptedFile, path, err)
	}
	defer ds.Close()

	transform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %v", path, err)
	}
	crs := ""
	if sr := ds.SpatialRef(); sr != nil {
		crs, _ = sr.WKT()
	}

	cols := ds.Structure().SizeX
	rows := ds.Structure().SizeY
	bands := make([][]float64, len(ds.Bands()))
	for i, b := range ds.Bands() {
		data := make([]float64, cols*rows)
		if err := b.Read(0, 0, data, cols, rows); err != nil {
			return nil, fmt.Errorf("%w: failed to read band %d of %s: %v", grid.ErrCorruptedFile, i+1, path, err)
		}
		bands[i] = data
	}

	return &grid.Composite{Bands: bands, Rows: rows, Cols: cols, Transform: transform, CRS: crs}, nil
}

// Reproject warps a raster file into the target coordinate system and,
// when scale is positive, resolution. When the source already matches the
// target CRS it is returned as read.
func Reproject(path, targetWKT string, scale float64) (*grid.Raster, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", grid.ErrCorruptedFile, path, err)
	}
	defer ds.Close()

	target, err := godal.NewSpatialRefFromWKT(targetWKT)
	if err != nil {
		return nil, fmt.Errorf("invalid target CRS: %v", err)
	}
	defer target.Close()

	if src := ds.SpatialRef(); src != nil && src.IsSame(target) {
		r, _, err := readBandRaster(ds, 0)
		return r, err
	}

	switches := []string{"-t_srs", targetWKT, "-of", "MEM"}
	if scale > 0 {
		switches = append(switches, "-tr", fmt.Sprintf("%f", scale), fmt.Sprintf("%f", scale))
	}
	warped, err := ds.Warp("", switches)
	if err != nil {
		return nil, fmt.Errorf("failed to reproject %s: %v", path, err)
	}
	defer warped.Close()

	r, _, err := readBandRaster(warped, 0)
	return r, err
}

func readBandRaster(ds *godal.Dataset, band int) (*grid.Raster, string, error) {
	transform, err := ds.GeoTransform()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read geotransform: %v", err)
	}
	crs := ""
	if sr := ds.SpatialRef(); sr != nil {
		crs, _ = sr.WKT()
	}

	b := ds.Bands()[band]
	cols := b.Structure().SizeX
	rows := b.Structure().SizeY
	data := make([]float64, cols*rows)
	if err := b.Read(0, 0, data, cols, rows); err != nil {
		return nil, "", fmt.Errorf("%w: failed to read band: %v", grid.ErrCorruptedFile, err)
	}
	return &grid.Raster{Data: data, Rows: rows, Cols: cols, Transform: transform}, crs, nil
}

func toFloat32(data []float64) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}
