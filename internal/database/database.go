package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// Open opens a connection pool to the SQLite database at dbPath.
//
// Every pooled connection enables foreign keys and a busy timeout, and write
// transactions start with BEGIN IMMEDIATE so concurrent read-modify-write
// sequences on the same rows serialize instead of failing on lock upgrade.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// dsn builds the modernc.org/sqlite connection string for a file path.
func dsn(dbPath string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Set("_txlock", "immediate")

	path := dbPath
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?" + params.Encode()
}

// HealthCheck performs a simple health check on the database
func HealthCheck(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
