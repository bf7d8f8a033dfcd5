// Package database holds the SQLite-backed role snapshot store: the role
// set of a departing member, keyed by user id, restored and cleared when
// the member rejoins.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schemaQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// SaveRoleSnapshot stores the member's role ids, replacing any previous
// snapshot for the same user.
func (d *Database) SaveRoleSnapshot(ctx context.Context, userID string, roleIDs []string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	data, err := json.Marshal(roleIDs)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	if _, err := d.db.ExecContext(ctx, upsertRoleSnapshotQuery, userID, string(data)); err != nil {
		return fmt.Errorf("failed to save role snapshot: %w", err)
	}
	return nil
}

// GetRoleSnapshot returns the stored role ids, or nil when no snapshot
// exists for the user.
func (d *Database) GetRoleSnapshot(ctx context.Context, userID string) ([]string, error) {
	var data string
	err := d.db.QueryRowContext(ctx, selectRoleSnapshotQuery, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role snapshot: %w", err)
	}

	var roleIDs []string
	if err := json.Unmarshal([]byte(data), &roleIDs); err != nil {
		return nil, fmt.Errorf("failed to decode role snapshot: %w", err)
	}
	return roleIDs, nil
}

func (d *Database) DeleteRoleSnapshot(ctx context.Context, userID string) error {
	if _, err := d.db.ExecContext(ctx, deleteRoleSnapshotQuery, userID); err != nil {
		return fmt.Errorf("failed to delete role snapshot: %w", err)
	}
	return nil
}
