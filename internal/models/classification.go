package models

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Prediction is the binary output of the fishing classifier
type Prediction int

const (
	PredictionNotFishing Prediction = 0
	PredictionFishing    Prediction = 1
)

var predictionStatus = map[Prediction]string{
	PredictionNotFishing: "Not Fishing",
	PredictionFishing:    "Fishing",
}

// Status returns the human-readable label of the prediction
func (p Prediction) Status() string {
	if s, ok := predictionStatus[p]; ok {
		return s
	}
	return fmt.Sprintf("Prediction(%d)", int(p))
}

// IllegalStatus is the three-way illegal activity label
type IllegalStatus string

const (
	IllegalYes   IllegalStatus = "yes"   // Fishing inside an MPA
	IllegalMaybe IllegalStatus = "maybe" // Inside an MPA but not fishing
	IllegalNo    IllegalStatus = "no"    // Outside every MPA
)

// IllegalStatuses lists every label in display order
var IllegalStatuses = []IllegalStatus{IllegalYes, IllegalMaybe, IllegalNo}

// Color returns the map marker color used by the dashboard
func (s IllegalStatus) Color() string {
	switch s {
	case IllegalYes:
		return "red"
	case IllegalMaybe:
		return "orange"
	case IllegalNo:
		return "green"
	}
	return "gray"
}

// ClassifiedObservation augments an observation with the classifier output
type ClassifiedObservation struct {
	VesselObservation
	Prediction Prediction `json:"prediction" csv:"prediction"`
	Status     string     `json:"status" csv:"status"` // "Fishing" / "Not Fishing"
}

// FinalRecord is a classified observation with its illegal activity label
type FinalRecord struct {
	ClassifiedObservation
	Illegal IllegalStatus `json:"illegal" csv:"illegal"`
}

// Geometry returns the record position as a WGS84 point
func (r FinalRecord) Geometry() orb.Point {
	return r.Point()
}

// WKT returns the record position as well-known text, e.g. "POINT(-160 0)"
func (r FinalRecord) WKT() string {
	return wkt.MarshalString(r.Geometry())
}

// ParsePointWKT parses a POINT well-known text back into lon/lat
func ParsePointWKT(s string) (lon, lat float64, err error) {
	p, err := wkt.UnmarshalPoint(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point WKT %q: %w", s, err)
	}
	return p.Lon(), p.Lat(), nil
}

// IllegalSummary counts records per illegal status
type IllegalSummary map[IllegalStatus]int

// Summarize counts the illegal labels of a batch of final records
func Summarize(records []FinalRecord) IllegalSummary {
	summary := IllegalSummary{}
	for _, status := range IllegalStatuses {
		summary[status] = 0
	}
	for _, r := range records {
		summary[r.Illegal]++
	}
	return summary
}
