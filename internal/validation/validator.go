// Package validation rejects malformed vessel reports before they reach the
// classification pipeline. It wraps go-playground/validator with the
// vessel-specific rules (identifier shape, geographic coordinates) and turns
// validator failures into errors that name the offending field.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang/geo/s2"

	"github.com/jengzang/mpawatch-backend-go/internal/models"
)

// MaxVesselIDLength bounds the opaque vessel identifier
const MaxVesselIDLength = 128

// FieldError describes a single rejected field
type FieldError struct {
	Field   string      `json:"field"`
	Tag     string      `json:"tag"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// RecordError is returned when one observation fails validation.
// Index is the position of the record in its batch.
type RecordError struct {
	Index  int          `json:"index"`
	Fields []FieldError `json:"fields"`
}

func (e *RecordError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("record %d: %s", e.Index, strings.Join(msgs, "; "))
}

// ErrBatchTooLarge is returned when a batch exceeds the configured cap
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// Validator checks observations and fetch requests. It is safe for
// concurrent use once constructed.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator with the vessel rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors match the wire format
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on programmer error (empty tag or nil func)
	_ = v.RegisterValidation("vesselid", validateVesselID)
	v.RegisterStructValidation(observationStructLevel, models.VesselObservation{})
	v.RegisterStructValidation(fetchRequestStructLevel, models.FetchRequest{})

	return &Validator{validate: v}
}

// Observation validates a single observation. index is only used for error
// reporting.
func (v *Validator) Observation(index int, obs models.VesselObservation) error {
	err := v.validate.Struct(obs)
	if err == nil {
		return nil
	}
	return &RecordError{Index: index, Fields: toFieldErrors(err)}
}

// Batch validates every record of a batch and enforces the size cap.
// The first failing record is reported.
func (v *Validator) Batch(batch models.ObservationBatch, maxSize int) error {
	if maxSize > 0 && len(batch) > maxSize {
		return fmt.Errorf("%w: %d records (max %d)", ErrBatchTooLarge, len(batch), maxSize)
	}
	for i, obs := range batch {
		if err := v.Observation(i, obs); err != nil {
			return err
		}
	}
	return nil
}

// FetchRequest validates the upstream fetch parameters
func (v *Validator) FetchRequest(req models.FetchRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	return &RecordError{Index: 0, Fields: toFieldErrors(err)}
}

func toFieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: translate(fe),
		}
	}
	return fields
}

var messageTemplates = map[string]string{
	"required":  "%s is required",
	"vesselid":  "%s must be 1-128 printable characters without whitespace",
	"latlng":    "%s is not a valid WGS84 coordinate",
	"finite":    "%s must be a finite number",
	"datetime":  "%s must be a date formatted as YYYY-MM-DD",
	"daterange": "%s must not be before start_date",
}

var paramTemplates = map[string]string{
	"gte": "%s must be greater than or equal to %s",
	"lte": "%s must be less than or equal to %s",
	"min": "%s must be at least %s",
	"max": "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	if tmpl, ok := paramTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func validateVesselID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" || len(id) > MaxVesselIDLength {
		return false
	}
	for _, r := range id {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// observationStructLevel rejects non-finite numbers (NaN slips past gte/lte
// in some paths) and cross-checks the coordinate pair with s2.
func observationStructLevel(sl validator.StructLevel) {
	obs := sl.Current().Interface().(models.VesselObservation)

	numeric := []struct {
		value float64
		json  string
		name  string
	}{
		{obs.Speed, "speed", "Speed"},
		{obs.DistanceFromShore, "distance_from_shore", "DistanceFromShore"},
		{obs.DistanceFromPort, "distance_from_port", "DistanceFromPort"},
		{obs.Lat, "lat", "Lat"},
		{obs.Lon, "lon", "Lon"},
	}
	for _, n := range numeric {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			sl.ReportError(n.value, n.json, n.name, "finite", "")
		}
	}

	if !s2.LatLngFromDegrees(obs.Lat, obs.Lon).IsValid() {
		sl.ReportError(obs.Lat, "lat", "Lat", "latlng", "")
	}
}

func fetchRequestStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.FetchRequest)

	start, err1 := time.Parse(time.DateOnly, req.StartDate)
	end, err2 := time.Parse(time.DateOnly, req.EndDate)
	if err1 != nil || err2 != nil {
		return
	}
	if end.Before(start) {
		sl.ReportError(req.EndDate, "end_date", "EndDate", "daterange", "")
	}
}
