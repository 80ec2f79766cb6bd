package geodesy

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

// ProjLCC is the default planar projection: a Lambert Conformal Conic
// centered on the processing region. Matches the projection the composites
// and derived products are delivered in.
const ProjLCC = `PROJCS["Lambert Conformal Conic",` +
	`GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],` +
	`PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],` +
	`PROJECTION["Lambert_Conformal_Conic_2SP"],` +
	`PARAMETER["standard_parallel_1",67.41206675],` +
	`PARAMETER["standard_parallel_2",43.58046825],` +
	`PARAMETER["latitude_of_origin",55.4970707],` +
	`PARAMETER["central_meridian",82.4447],` +
	`PARAMETER["false_easting",0],PARAMETER["false_northing",0],` +
	`UNIT["metre",1]]`

const wgs84 = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],` +
	`PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

// PlanarProjector projects geodetic coordinates to planar meters through a
// GDAL coordinate transformation. It implements grid.Projector.
type PlanarProjector struct {
	wkt string
}

// NewPlanarProjector builds a projector for the given projection WKT. An
// empty wkt selects ProjLCC.
func NewPlanarProjector(wkt string) *PlanarProjector {
	if wkt == "" {
		wkt = ProjLCC
	}
	return &PlanarProjector{wkt: wkt}
}

func (p *PlanarProjector) WKT() string {
	return p.wkt
}

// Project converts (lon, lat) degree arrays to (x, y) meters.
func (p *PlanarProjector) Project(lon, lat []float64) ([]float64, []float64, error) {
	src, err := godal.NewSpatialRefFromWKT(wgs84)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create source spatial ref: %v", err)
	}
	defer src.Close()

	dst, err := godal.NewSpatialRefFromWKT(p.wkt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create target spatial ref: %v", err)
	}
	defer dst.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create coordinate transform: %v", err)
	}
	defer tr.Close()

	x := make([]float64, len(lon))
	y := make([]float64, len(lat))
	copy(x, lon)
	copy(y, lat)
	if err := tr.TransformEx(x, y, nil, nil); err != nil {
		return nil, nil, fmt.Errorf("coordinate transform failed: %v", err)
	}
	return x, y, nil
}
