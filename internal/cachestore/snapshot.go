package cachestore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Snapshot is one row of the source_cache table.
type Snapshot struct {
	SourceKey string
	Payload   string
	UpdatedAt time.Time
}

// SnapshotStore reads and writes serialized source snapshots.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a snapshot store on top of db.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Get returns the snapshot for sourceKey, or nil when none exists.
func (s *SnapshotStore) Get(sourceKey string) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT source_key, payload, updated_at FROM source_cache WHERE source_key = ?`,
		sourceKey,
	)

	var snap Snapshot
	if err := row.Scan(&snap.SourceKey, &snap.Payload, &snap.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %q: %w", sourceKey, err)
	}
	return &snap, nil
}

// Put upserts the snapshot for sourceKey, refreshing updated_at.
func (s *SnapshotStore) Put(sourceKey, payload string) error {
	err := s.db.Exec(
		`INSERT INTO source_cache (source_key, payload, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(source_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		sourceKey, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", sourceKey, err)
	}
	return nil
}
