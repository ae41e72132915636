package spatial

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Names of the reference layers loaded at startup
const (
	LayerOcean = "ocean" // Where fishing can occur
	LayerMPA   = "mpa"   // Marine protected zones
	LayerLand  = "land"  // Drawn under results, never queried by the pipeline
)

// ErrEmptyLayer is returned when a layer source yields no polygons
var ErrEmptyLayer = errors.New("layer contains no polygons")

// Feature is one polygon of a layer with its precomputed bounds
type Feature struct {
	Polygon    orb.Polygon
	Bound      orb.Bound
	Properties map[string]interface{}
}

// PolygonLayer is an immutable named set of WGS84 polygons.
// It is built once at startup and only read afterwards.
type PolygonLayer struct {
	name     string
	features []Feature
	bound    orb.Bound
}

// NewPolygonLayer builds a layer from already reprojected geometries.
// MultiPolygons are split into their member polygons; any other geometry
// type is rejected.
func NewPolygonLayer(name string, geometries []orb.Geometry, properties []map[string]interface{}) (*PolygonLayer, error) {
	layer := &PolygonLayer{name: name}

	for i, g := range geometries {
		var props map[string]interface{}
		if i < len(properties) {
			props = properties[i]
		}

		switch geom := g.(type) {
		case orb.Polygon:
			layer.add(geom, props)
		case orb.MultiPolygon:
			for _, p := range geom {
				layer.add(p, props)
			}
		case nil:
			continue
		default:
			return nil, fmt.Errorf("layer %s: feature %d: unsupported geometry %s", name, i, g.GeoJSONType())
		}
	}

	if len(layer.features) == 0 {
		return nil, fmt.Errorf("layer %s: %w", name, ErrEmptyLayer)
	}

	return layer, nil
}

func (l *PolygonLayer) add(p orb.Polygon, props map[string]interface{}) {
	if len(p) == 0 || len(p[0]) < 3 {
		return
	}

	b := p.Bound()
	if len(l.features) == 0 {
		l.bound = b
	} else {
		l.bound = l.bound.Union(b)
	}

	l.features = append(l.features, Feature{Polygon: p, Bound: b, Properties: props})
}

// Name returns the layer name
func (l *PolygonLayer) Name() string {
	return l.name
}

// Len returns the number of polygons in the layer
func (l *PolygonLayer) Len() int {
	return len(l.features)
}

// Bound returns the bounding box of the whole layer
func (l *PolygonLayer) Bound() orb.Bound {
	return l.bound
}

// Contains reports whether point lies strictly inside at least one polygon
func (l *PolygonLayer) Contains(point orb.Point) bool {
	if !l.bound.Contains(point) {
		return false
	}

	for i := range l.features {
		f := &l.features[i]
		if !f.Bound.Contains(point) {
			continue
		}
		if PolygonContains(f.Polygon, point) {
			return true
		}
	}
	return false
}

// FeatureCollection renders the layer as GeoJSON for map drawing
func (l *PolygonLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.features {
		feature := geojson.NewFeature(f.Polygon)
		for k, v := range f.Properties {
			feature.Properties[k] = v
		}
		fc.Append(feature)
	}
	return fc
}
