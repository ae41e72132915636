package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

// ObservationColumns is the CSV header of an observation file
var ObservationColumns = []string{"vessel_id", "speed", "distance_from_shore", "distance_from_port", "lat", "lon"}

// RecordColumns is the CSV header of a result file
var RecordColumns = append(append([]string{}, ObservationColumns...), "prediction", "status", "illegal", "geometry")

// ReadObservationsCSV reads observations from r. Columns are matched by
// header name and may appear in any order. A missing vessel_id column or
// empty cell yields the unknown vessel id.
func ReadObservationsCSV(r io.Reader) (models.ObservationBatch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[col] = i
	}
	for _, col := range ObservationColumns[1:] {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	batch := models.ObservationBatch{}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		obs, err := parseObservationRow(row, colMap)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, obs)
	}

	return batch, nil
}

func parseObservationRow(row []string, colMap map[string]int) (models.VesselObservation, error) {
	obs := models.VesselObservation{VesselID: models.UnknownVesselID}
	if idx, ok := colMap["vessel_id"]; ok && row[idx] != "" {
		obs.VesselID = row[idx]
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"speed", &obs.Speed},
		{"distance_from_shore", &obs.DistanceFromShore},
		{"distance_from_port", &obs.DistanceFromPort},
		{"lat", &obs.Lat},
		{"lon", &obs.Lon},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(row[colMap[f.name]], 64)
		if err != nil {
			return obs, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = v
	}

	return obs, nil
}

// WriteRecordsCSV writes final records with their position as WKT
func WriteRecordsCSV(w io.Writer, records []models.FinalRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RecordColumns); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range records {
		row := []string{
			r.VesselID,
			format(r.Speed),
			format(r.DistanceFromShore),
			format(r.DistanceFromPort),
			format(r.Lat),
			format(r.Lon),
			strconv.Itoa(int(r.Prediction)),
			r.Status,
			string(r.Illegal),
			r.WKT(),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
