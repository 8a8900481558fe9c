package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	profileKey   = "user_data"
	birthYearKey = "birth_year"
)

// SessionRepository manages the single local [models.Profile].
//
// The birth year recorded by the watch-later age gate is stored separately and survives logout.
type SessionRepository struct {
	kv *KVStore
}

// NewSessionRepository creates a new [SessionRepository] over kv
func NewSessionRepository(kv *KVStore) *SessionRepository {
	return &SessionRepository{kv: kv}
}

// Init creates the default profile if none exists. It reports whether one was created.
// Run it once at startup, before any view reads the profile.
func (r *SessionRepository) Init() (models.Profile, bool, error) {
	profile, err := r.Get()
	if err == nil {
		return *profile, false, nil
	}
	if !errors.Is(err, shared.ErrProfileNotFound) {
		return models.Profile{}, false, err
	}

	def := models.DefaultProfile()
	if err := r.kv.SetJSON(profileKey, def); err != nil {
		return models.Profile{}, false, fmt.Errorf("failed to create default profile: %w", err)
	}
	return def, true, nil
}

// Get returns the stored profile or [shared.ErrProfileNotFound].
func (r *SessionRepository) Get() (*models.Profile, error) {
	var profile models.Profile
	ok, err := r.kv.GetJSON(profileKey, &profile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return &profile, nil
}

// Login validates and stores a profile, replacing the current one.
func (r *SessionRepository) Login(name, email string) (models.Profile, error) {
	profile := models.Profile{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := profile.Validate(); err != nil {
		return models.Profile{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := r.kv.SetJSON(profileKey, profile); err != nil {
		return models.Profile{}, fmt.Errorf("failed to store profile: %w", err)
	}
	return profile, nil
}

// Logout deletes the stored profile.
func (r *SessionRepository) Logout() error {
	return r.kv.Delete(profileKey)
}

// BirthYear returns the recorded birth year, or 0 if none is on record.
func (r *SessionRepository) BirthYear() (int, error) {
	raw, ok, err := r.kv.Get(birthYearKey)
	if err != nil || !ok {
		return 0, err
	}
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, nil
	}
	return year, nil
}

// SetBirthYear records year.
func (r *SessionRepository) SetBirthYear(year int) error {
	return r.kv.Set(birthYearKey, strconv.Itoa(year))
}
