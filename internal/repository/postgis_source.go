package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

// PostGISSource reads a layer from a PostGIS table. PostGIS does the
// reprojection, so the geometries arrive in WGS84.
type PostGISSource struct {
	db     *sqlx.DB
	table  string
	column string
	query  string
}

// NewPostGISSource prepares the layer query for table.column
func NewPostGISSource(db *sqlx.DB, table, column string) (*PostGISSource, error) {
	qTable, err := quoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	qColumn, err := quoteIdentifier(column)
	if err != nil {
		return nil, err
	}

	return &PostGISSource{
		db:     db,
		table:  table,
		column: column,
		query: fmt.Sprintf(`
			SELECT ST_AsBinary(ST_Transform(%[1]s, 4326)) AS geom
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
			  AND GeometryType(%[1]s) IN ('POLYGON', 'MULTIPOLYGON')`, qColumn, qTable),
	}, nil
}

func (s *PostGISSource) String() string {
	return "postgis:" + s.table + "#" + s.column
}

// Load reads every polygon of the table
func (s *PostGISSource) Load(ctx context.Context) (*RawLayer, error) {
	var rows []struct {
		Geom []byte `db:"geom"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.query); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}

	raw := &RawLayer{
		Geometries: make([]orb.Geometry, 0, len(rows)),
		EPSG:       spatial.EPSGWGS84,
	}
	for _, row := range rows {
		g, err := wkb.Unmarshal(row.Geom)
		if err != nil {
			return nil, fmt.Errorf("table %s: invalid wkb: %w", s.table, err)
		}
		raw.Geometries = append(raw.Geometries, g)
	}
	return raw, nil
}
