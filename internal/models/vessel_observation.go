package models

import "github.com/paulmach/orb"

// UnknownVesselID is the sentinel used when a report carries no vessel identity
const UnknownVesselID = "unknown"

// VesselObservation represents a single point-in-time vessel position report
type VesselObservation struct {
	VesselID          string  `json:"vessel_id" csv:"vessel_id" validate:"required,vesselid"`
	Speed             float64 `json:"speed" csv:"speed" validate:"gte=0"`                             // Knots
	DistanceFromShore float64 `json:"distance_from_shore" csv:"distance_from_shore" validate:"gte=0"` // Meters
	DistanceFromPort  float64 `json:"distance_from_port" csv:"distance_from_port" validate:"gte=0"`   // Meters
	Lat               float64 `json:"lat" csv:"lat" validate:"gte=-90,lte=90"`
	Lon               float64 `json:"lon" csv:"lon" validate:"gte=-180,lte=180"`
}

// ObservationBatch is an ordered sequence of observations sharing one schema.
// Order carries no meaning but is preserved by every pipeline stage.
type ObservationBatch []VesselObservation

// Point returns the observation position as a WGS84 lon/lat point
func (o VesselObservation) Point() orb.Point {
	return orb.Point{o.Lon, o.Lat}
}

// Points returns the position of every observation in batch order
func (b ObservationBatch) Points() []orb.Point {
	points := make([]orb.Point, len(b))
	for i, obs := range b {
		points[i] = obs.Point()
	}
	return points
}
