package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenGeoPackage opens a GeoPackage (an SQLite file) read-only.
// Reference layers are never written, so the handle is only used at load
// time and closed by the caller.
func OpenGeoPackage(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open geopackage %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open geopackage %s: %w", path, err)
	}

	// Reject plain SQLite files early
	var n int
	err = db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'gpkg_geometry_columns'").Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect geopackage %s: %w", path, err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("%s is not a geopackage: gpkg_geometry_columns missing", path)
	}

	return db, nil
}
