package inmemdb

import (
	"context"
	"sort"

	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/user"
)

type preferenceRepository struct {
	db *DB
}

var (
	_ preference.Repository    = (*preferenceRepository)(nil)
	_ pairing.RosterRepository = (*preferenceRepository)(nil)
)

func NewPreferenceRepository(db *DB) *preferenceRepository {
	return &preferenceRepository{db: db}
}

func (repo *preferenceRepository) UpsertPreference(_ context.Context, pref preference.Preference) (preference.Preference, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[pref.UserID]; !ok {
		return preference.Preference{}, false, user.ErrNotFound
	}
	if existing, ok := repo.db.preferences[pref.UserID]; ok {
		pref.ID = existing.ID
		*existing = pref
		return pref, false, nil
	}
	pref.ID = repo.db.nextID("learning_preferences")
	repo.db.preferences[pref.UserID] = &pref
	return pref, true, nil
}

func (repo *preferenceRepository) GetPreferenceByUserID(_ context.Context, userID int) (preference.Preference, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pref, ok := repo.db.preferences[userID]; ok {
		return *pref, nil
	}
	return preference.Preference{}, preference.ErrNotFound
}

func (repo *preferenceRepository) DeletePreferenceByUserID(_ context.Context, userID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.preferences[userID]; !ok {
		return preference.ErrNotFound
	}
	delete(repo.db.preferences, userID)
	return nil
}

// QueryRoster returns the students ordered by ID, with their preference profile if any.
func (repo *preferenceRepository) QueryRoster(context.Context) ([]pairing.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	roster := make([]pairing.Student, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if !usr.IsStudent() {
			continue
		}
		s := pairing.Student{ID: usr.ID, Name: usr.Name, Email: usr.Email}
		if pref, ok := repo.db.preferences[usr.ID]; ok {
			s.Profile = pref.Profile()
		}
		roster = append(roster, s)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster, nil
}
