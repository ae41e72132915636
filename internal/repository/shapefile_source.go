package repository

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

// ShapefileSource reads polygon shapes and their dBASE attributes. The
// projection is read from the sidecar .prj; a missing .prj means WGS84, as
// shipped by Natural Earth.
type ShapefileSource struct {
	Path string
}

func (s *ShapefileSource) String() string {
	return "shp:" + s.Path
}

// Load reads every polygon record
func (s *ShapefileSource) Load(ctx context.Context) (*RawLayer, error) {
	epsg, err := prjToEPSG(strings.TrimSuffix(s.Path, ".shp") + ".prj")
	if err != nil {
		return nil, err
	}

	reader, err := shp.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	fields := reader.Fields()
	raw := &RawLayer{EPSG: epsg}

	for reader.Next() {
		n, shape := reader.Shape()

		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		props := make(map[string]interface{}, len(fields))
		for k, f := range fields {
			props[f.String()] = strings.TrimSpace(reader.ReadAttribute(n, k))
		}

		raw.Geometries = append(raw.Geometries, shapeToMultiPolygon(polygon))
		raw.Properties = append(raw.Properties, props)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapes: %w", err)
	}

	return raw, nil
}

// shapeToMultiPolygon groups shapefile parts into polygons. Outer rings are
// clockwise; a counter-clockwise part is a hole of the outer ring that
// contains it.
func shapeToMultiPolygon(p *shp.Polygon) orb.MultiPolygon {
	var mp orb.MultiPolygon

	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 3 {
			continue
		}

		if ring.Orientation() != orb.CCW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}

		owner := len(mp) - 1
		for j := len(mp) - 1; j >= 0; j-- {
			if spatial.RingContains(mp[j][0], ring[0]) {
				owner = j
				break
			}
		}
		mp[owner] = append(mp[owner], ring)
	}

	return mp
}

// prjToEPSG recognises the two projections reference data ships in
func prjToEPSG(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return spatial.EPSGWGS84, nil
	}
	if err != nil {
		return 0, err
	}

	wkt := strings.ToUpper(string(data))
	switch {
	case strings.HasPrefix(wkt, "GEOGCS") && strings.Contains(wkt, "WGS"):
		return spatial.EPSGWGS84, nil
	case strings.HasPrefix(wkt, "PROJCS") && (strings.Contains(wkt, "PSEUDO-MERCATOR") ||
		strings.Contains(wkt, "PSEUDO_MERCATOR") || strings.Contains(wkt, "WEB_MERCATOR")):
		return spatial.EPSGWebMercator, nil
	}
	return 0, fmt.Errorf("%w: %s", spatial.ErrUnsupportedCRS, path)
}
