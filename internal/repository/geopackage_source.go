package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/jengzang/mpawatch-backend-go/internal/database"
)

// GeoPackageSource reads one feature table of a GeoPackage. With an empty
// Table the first registered geometry table is used.
type GeoPackageSource struct {
	Path  string
	Table string
}

func (s *GeoPackageSource) String() string {
	if s.Table == "" {
		return "gpkg:" + s.Path
	}
	return "gpkg:" + s.Path + "#" + s.Table
}

// Load reads every geometry of the table
func (s *GeoPackageSource) Load(ctx context.Context) (*RawLayer, error) {
	db, err := database.OpenGeoPackage(ctx, s.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	table, column, srsID, err := s.geometryColumn(ctx, db)
	if err != nil {
		return nil, err
	}

	epsg, err := srsToEPSG(ctx, db, srsID)
	if err != nil {
		return nil, err
	}

	qTable, err := quoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	qColumn, err := quoteIdentifier(column)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", qColumn, qTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	raw := &RawLayer{EPSG: epsg}
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan geometry: %w", err)
		}
		if blob == nil {
			continue
		}

		g, err := decodeGeoPackageGeometry(blob)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		if g != nil {
			raw.Geometries = append(raw.Geometries, g)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return raw, nil
}

func (s *GeoPackageSource) geometryColumn(ctx context.Context, db *sql.DB) (table, column string, srsID int, err error) {
	query := "SELECT table_name, column_name, srs_id FROM gpkg_geometry_columns"
	args := []interface{}{}
	if s.Table != "" {
		query += " WHERE table_name = ?"
		args = append(args, s.Table)
	}
	query += " ORDER BY table_name LIMIT 1"

	err = db.QueryRowContext(ctx, query, args...).Scan(&table, &column, &srsID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", 0, fmt.Errorf("no geometry table %q in %s", s.Table, s.Path)
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to read gpkg_geometry_columns: %w", err)
	}
	return table, column, srsID, nil
}

// srsToEPSG resolves a GeoPackage srs_id through gpkg_spatial_ref_sys
func srsToEPSG(ctx context.Context, db *sql.DB, srsID int) (int, error) {
	var org string
	var code int
	err := db.QueryRowContext(ctx,
		"SELECT organization, organization_coordsys_id FROM gpkg_spatial_ref_sys WHERE srs_id = ?", srsID).
		Scan(&org, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return srsID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read gpkg_spatial_ref_sys: %w", err)
	}
	if !strings.EqualFold(org, "EPSG") {
		return 0, fmt.Errorf("srs_id %d is defined by %s, not EPSG", srsID, org)
	}
	return code, nil
}

// envelopeSizes maps the header envelope indicator to its byte length
var envelopeSizes = map[byte]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}

// decodeGeoPackageGeometry strips the GeoPackage binary header and decodes
// the WKB body. Empty geometries decode to nil.
func decodeGeoPackageGeometry(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, errors.New("not a geopackage geometry blob")
	}

	flags := blob[3]
	if flags&0x10 != 0 {
		return nil, nil
	}

	size, ok := envelopeSizes[(flags>>1)&0x07]
	if !ok {
		return nil, fmt.Errorf("invalid envelope indicator in flags %#x", flags)
	}

	offset := 8 + size
	if len(blob) < offset {
		return nil, errors.New("truncated geopackage geometry header")
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, fmt.Errorf("invalid wkb: %w", err)
	}
	return g, nil
}
