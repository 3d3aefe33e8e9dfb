// ABOUTME: Database schema definitions
// ABOUTME: One table per logical collection, identical columns
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	profile_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	stage TEXT NOT NULL,
	date_sent DATETIME,
	date_connected DATETIME,
	last_updated DATETIME,
	follow_up_date DATETIME
);

CREATE INDEX IF NOT EXISTS idx_connections_stage ON connections(stage);
CREATE INDEX IF NOT EXISTS idx_connections_follow_up ON connections(follow_up_date);

CREATE TABLE IF NOT EXISTS pending_connections (
	profile_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	stage TEXT NOT NULL,
	date_sent DATETIME,
	date_connected DATETIME,
	last_updated DATETIME,
	follow_up_date DATETIME
);

CREATE INDEX IF NOT EXISTS idx_pending_connections_date_sent ON pending_connections(date_sent);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
