package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

// ErrUnknownSource is returned when no loader matches a layer location
var ErrUnknownSource = errors.New("no layer source for location")

// RawLayer is what a source yields before reprojection
type RawLayer struct {
	Geometries []orb.Geometry
	Properties []map[string]interface{}
	EPSG       int
}

// LayerSource reads the polygons of one reference layer
type LayerSource interface {
	Load(ctx context.Context) (*RawLayer, error)
	String() string
}

// LayerRepository turns layer sources into immutable polygon layers
type LayerRepository struct {
	postgis *sqlx.DB
	logger  zerolog.Logger
}

// NewLayerRepository creates a layer repository. postgis may be nil when no
// layer lives in a database.
func NewLayerRepository(postgis *sqlx.DB, logger zerolog.Logger) *LayerRepository {
	return &LayerRepository{
		postgis: postgis,
		logger:  logger,
	}
}

// Source picks a loader for a layer location. Files are matched by
// extension; "postgis:<schema.table>[#column]" (or "postgis://...") reads
// from the database.
func (r *LayerRepository) Source(location string) (LayerSource, error) {
	if table, ok := strings.CutPrefix(location, "postgis:"); ok {
		table = strings.TrimPrefix(table, "//")
		if r.postgis == nil {
			return nil, fmt.Errorf("%w: %s (no postgis connection configured)", ErrUnknownSource, location)
		}
		column := "geom"
		if t, c, found := strings.Cut(table, "#"); found {
			table, column = t, c
		}
		return NewPostGISSource(r.postgis, table, column)
	}

	path, table, _ := strings.Cut(location, "#")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return &GeoJSONSource{Path: path}, nil
	case ".gpkg":
		return &GeoPackageSource{Path: path, Table: table}, nil
	case ".shp":
		return &ShapefileSource{Path: path}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, location)
}

// LoadLayer reads a layer from location, reprojects it to WGS84 and builds
// the immutable layer
func (r *LayerRepository) LoadLayer(ctx context.Context, name, location string) (*spatial.PolygonLayer, error) {
	start := time.Now()

	src, err := r.Source(location)
	if err != nil {
		return nil, err
	}

	raw, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load layer %s from %s: %w", name, src, err)
	}

	geoms, err := spatial.Reproject(raw.Geometries, raw.EPSG)
	if err != nil {
		return nil, fmt.Errorf("failed to reproject layer %s: %w", name, err)
	}

	layer, err := spatial.NewPolygonLayer(name, geoms, raw.Properties)
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("layer", name).
		Str("source", src.String()).
		Int("epsg", raw.EPSG).
		Int("polygons", layer.Len()).
		Dur("took", time.Since(start)).
		Msg("reference layer loaded")

	return layer, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdentifier quotes a possibly schema-qualified SQL identifier after
// checking it only contains safe characters
func quoteIdentifier(name string) (string, error) {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if !identifierPattern.MatchString(p) {
			return "", fmt.Errorf("invalid identifier %q", name)
		}
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, "."), nil
}
