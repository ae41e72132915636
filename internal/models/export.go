package models

import (
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// MarshalJSON writes the record flat, with its position as WKT under
// "geometry"
func (r FinalRecord) MarshalJSON() ([]byte, error) {
	type plain FinalRecord
	return json.Marshal(struct {
		plain
		Geometry string `json:"geometry"`
	}{plain(r), r.WKT()})
}

// RecordsFeatureCollection renders final records as GeoJSON points for map
// drawing. Each feature carries the record attributes plus its color.
func RecordsFeatureCollection(records []FinalRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(r.Geometry())
		f.Properties["vessel_id"] = r.VesselID
		f.Properties["speed"] = r.Speed
		f.Properties["distance_from_shore"] = r.DistanceFromShore
		f.Properties["distance_from_port"] = r.DistanceFromPort
		f.Properties["prediction"] = int(r.Prediction)
		f.Properties["status"] = r.Status
		f.Properties["illegal"] = string(r.Illegal)
		f.Properties["color"] = r.Illegal.Color()
		fc.Append(f)
	}
	return fc
}
