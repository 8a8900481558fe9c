package repositories

import (
	"github.com/desertthunder/flix/internal/models"
)

const snapshotKey = "last_search"

// SnapshotRepository stores the last search snapshot.
type SnapshotRepository struct {
	kv *KVStore
}

// NewSnapshotRepository creates a new [SnapshotRepository] over kv
func NewSnapshotRepository(kv *KVStore) *SnapshotRepository {
	return &SnapshotRepository{kv: kv}
}

// Save replaces the snapshot.
func (r *SnapshotRepository) Save(snapshot models.SearchSnapshot) error {
	return r.kv.SetJSON(snapshotKey, snapshot)
}

// Load returns the snapshot, reporting false when no search has been stored.
func (r *SnapshotRepository) Load() (*models.SearchSnapshot, bool, error) {
	var snapshot models.SearchSnapshot
	ok, err := r.kv.GetJSON(snapshotKey, &snapshot)
	if err != nil || !ok {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// Pool returns the movies of the last search, or nil.
func (r *SnapshotRepository) Pool() ([]models.Movie, error) {
	snapshot, ok, err := r.Load()
	if err != nil || !ok {
		return nil, err
	}
	return snapshot.Movies, nil
}
