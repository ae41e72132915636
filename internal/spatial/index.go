package spatial

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// ErrUnknownLayer is returned when a query names a layer that was never loaded
var ErrUnknownLayer = errors.New("unknown layer")

// LayerInfo summarizes a loaded layer
type LayerInfo struct {
	Name     string     `json:"name"`
	Polygons int        `json:"polygons"`
	Bound    [4]float64 `json:"bbox"` // minLon, minLat, maxLon, maxLat
}

// GeometryIndex answers point-in-polygon queries against named layers.
// Layers are independent: a query against one never consults another.
type GeometryIndex struct {
	layers map[string]*PolygonLayer
}

// NewGeometryIndex builds an index over the given layers. Layer names must
// be unique.
func NewGeometryIndex(layers ...*PolygonLayer) (*GeometryIndex, error) {
	idx := &GeometryIndex{layers: make(map[string]*PolygonLayer, len(layers))}
	for _, l := range layers {
		if l == nil {
			continue
		}
		if _, dup := idx.layers[l.Name()]; dup {
			return nil, fmt.Errorf("duplicate layer %q", l.Name())
		}
		idx.layers[l.Name()] = l
	}
	return idx, nil
}

// Layer returns the named layer
func (idx *GeometryIndex) Layer(name string) (*PolygonLayer, error) {
	l, ok := idx.layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}
	return l, nil
}

// Contains reports whether point lies strictly within a polygon of layer
func (idx *GeometryIndex) Contains(point orb.Point, layer string) (bool, error) {
	l, err := idx.Layer(layer)
	if err != nil {
		return false, err
	}
	return l.Contains(point), nil
}

// ContainingMask returns the indices of the points that lie strictly within
// at least one polygon of layer
func (idx *GeometryIndex) ContainingMask(points []orb.Point, layer string) (map[int]struct{}, error) {
	l, err := idx.Layer(layer)
	if err != nil {
		return nil, err
	}

	mask := make(map[int]struct{})
	for i, p := range points {
		if l.Contains(p) {
			mask[i] = struct{}{}
		}
	}
	return mask, nil
}

// Layers describes every loaded layer, sorted by name
func (idx *GeometryIndex) Layers() []LayerInfo {
	infos := make([]LayerInfo, 0, len(idx.layers))
	for _, l := range idx.layers {
		b := l.Bound()
		infos = append(infos, LayerInfo{
			Name:     l.Name(),
			Polygons: l.Len(),
			Bound:    [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
