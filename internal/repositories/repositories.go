package repositories

import (
	"database/sql"
	"fmt"
)

// bumpRevision increments the storage revision counter inside tx.
//
// The counter is what watchers in other processes compare; it is never exposed in CLI output.
func bumpRevision(tx *sql.Tx) error {
	if _, err := tx.Exec("UPDATE kv_revision SET value = value + 1 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to increment revision: %w", err)
	}
	return nil
}

// currentRevision returns the storage revision counter.
func currentRevision(db *sql.DB) (int64, error) {
	var rev int64
	if err := db.QueryRow("SELECT value FROM kv_revision WHERE id = 1").Scan(&rev); err != nil {
		return 0, fmt.Errorf("failed to get revision: %w", err)
	}
	return rev, nil
}
