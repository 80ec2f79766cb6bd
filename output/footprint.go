package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MaratBR/viirs-composer/internal/grid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SaveFootprint writes the rectangular footprint of a composite as a
// GeoJSON feature in projected coordinates, with the grid shape and scale
// attached as properties.
func SaveFootprint(c *grid.Composite, filesetID, outputPath string) error {
	left := c.Transform[0]
	top := c.Transform[3]
	right := left + float64(c.Cols)*c.Transform[1]
	bottom := top + float64(c.Rows)*c.Transform[5]

	ring := orb.Ring{
		{left, top}, {right, top}, {right, bottom}, {left, bottom}, {left, top},
	}
	feature := geojson.NewFeature(orb.Polygon{ring})
	feature.Properties = geojson.Properties{
		"fileset": filesetID,
		"rows":    c.Rows,
		"cols":    c.Cols,
		"scale":   c.Transform[1],
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create footprint file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(geojson.NewFeatureCollection().Append(feature)); err != nil {
		return fmt.Errorf("failed to encode footprint: %w", err)
	}
	return nil
}
