// ABOUTME: SQLite-backed record store
// ABOUTME: Rewrites both collection tables inside one transaction per save
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/outreach/models"
)

// SQLiteStore keeps the tracked set in `connections` and the pending set in
// `pending_connections`.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and migrates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	database, err := OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStore{db: database}, nil
}

// NewSQLiteStore wraps an already initialised database handle.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// setTables is ordered pending first so that, on load, a tracked row wins
// over a pending row with the same id.
var setTables = []struct {
	set   models.Set
	table string
}{
	{models.SetPending, "pending_connections"},
	{models.SetTracked, "connections"},
}

func (s *SQLiteStore) Load(ctx context.Context) (models.Snapshot, error) {
	snap := models.NewSnapshot()
	for _, st := range setTables {
		records, err := s.loadTable(ctx, st.table)
		if err != nil {
			return models.Snapshot{}, err
		}
		for _, rec := range records {
			snap.Put(st.set, rec)
		}
	}
	return snap, nil
}

func (s *SQLiteStore) loadTable(ctx context.Context, table string) ([]models.ContactRecord, error) {
	query := fmt.Sprintf(`
		SELECT profile_id, name, title, avatar_url, stage,
		       date_sent, date_connected, last_updated, follow_up_date
		FROM %s
		ORDER BY profile_id`, table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.ContactRecord
	for rows.Next() {
		var rec models.ContactRecord
		var stage string
		var sent, connected, updated, followUp sql.NullTime

		if err := rows.Scan(&rec.ProfileID, &rec.Name, &rec.Title, &rec.AvatarURL, &stage,
			&sent, &connected, &updated, &followUp); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		rec.Stage = models.Stage(stage)
		rec.DateSent = fromNullTime(sent)
		rec.DateConnected = fromNullTime(connected)
		rec.LastUpdated = fromNullTime(updated)
		rec.FollowUpDate = fromNullTime(followUp)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save replaces both tables atomically.
func (s *SQLiteStore) Save(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, st := range setTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+st.table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", st.table, err)
		}

		records := snap.Tracked
		if st.set == models.SetPending {
			records = snap.Pending
		}
		if err := insertRecords(ctx, tx, st.table, records); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, table string, records map[string]models.ContactRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (profile_id, name, title, avatar_url, stage,
		                date_sent, date_connected, last_updated, follow_up_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for id, rec := range records {
		if _, err := stmt.ExecContext(ctx, id, rec.Name, rec.Title, rec.AvatarURL, string(rec.Stage),
			toNullTime(rec.DateSent), toNullTime(rec.DateConnected),
			toNullTime(rec.LastUpdated), toNullTime(rec.FollowUpDate)); err != nil {
			return fmt.Errorf("failed to insert %s into %s: %w", id, table, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
