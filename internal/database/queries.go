package database

// Role snapshot queries
const (
	schemaQuery = `
		CREATE TABLE IF NOT EXISTS previous_roles (
			user_id   TEXT PRIMARY KEY,
			roles     TEXT NOT NULL,
			stored_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`

	upsertRoleSnapshotQuery = `
		INSERT OR REPLACE INTO previous_roles (user_id, roles, stored_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`

	selectRoleSnapshotQuery = `
		SELECT roles
		FROM previous_roles
		WHERE user_id = ?
	`

	deleteRoleSnapshotQuery = `
		DELETE FROM previous_roles
		WHERE user_id = ?
	`
)
