package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

// GeoJSONSource reads a FeatureCollection file. A legacy "crs" member is
// honoured; without one the file is taken to be WGS84.
type GeoJSONSource struct {
	Path string
}

func (s *GeoJSONSource) String() string {
	return "geojson:" + s.Path
}

// Load reads every feature geometry and its properties
func (s *GeoJSONSource) Load(ctx context.Context) (*RawLayer, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("invalid geojson: %w", err)
	}

	epsg, err := spatial.ParseEPSG(crsName(fc.ExtraMembers))
	if err != nil {
		return nil, err
	}

	raw := &RawLayer{
		Geometries: make([]orb.Geometry, 0, len(fc.Features)),
		Properties: make([]map[string]interface{}, 0, len(fc.Features)),
		EPSG:       epsg,
	}
	for _, f := range fc.Features {
		raw.Geometries = append(raw.Geometries, f.Geometry)
		raw.Properties = append(raw.Properties, f.Properties)
	}
	return raw, nil
}

// crsName digs {"crs": {"type": "name", "properties": {"name": ...}}} out of
// the collection's foreign members
func crsName(members geojson.Properties) string {
	crs, ok := members["crs"].(map[string]interface{})
	if !ok {
		return ""
	}
	props, ok := crs["properties"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}
