package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := repo.query()
	if filter != nil && !filter.IsEmpty() {
		filtered := make([]user.User, 0, len(users))
		for _, usr := range users {
			if matchesFilter(usr, filter) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}
	if len(orderings) > 0 {
		sortUsers(users, orderings)
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if usr.Role != "" {
		origUsr.Role = usr.Role
	}
	origUsr.Name = usr.Name
	origUsr.Email = usr.Email
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

// DeleteUsersByID cascades to everything the users own.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	deleted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		delete(repo.db.users, id)
		delete(repo.db.preferences, id)
		deleted[id] = struct{}{}
	}
	isDeleted := func(id int) bool { _, ok := deleted[id]; return ok }

	pairs := repo.db.pairs[:0]
	for _, p := range repo.db.pairs {
		if !isDeleted(p.Student1ID) && !isDeleted(p.Student2ID) {
			pairs = append(pairs, p)
		}
	}
	repo.db.pairs = pairs

	results := repo.db.results[:0]
	for _, r := range repo.db.results {
		if !isDeleted(r.StudentID) {
			results = append(results, r)
		}
	}
	repo.db.results = results

	answers := repo.db.answers[:0]
	for _, a := range repo.db.answers {
		if !isDeleted(a.StudentID) {
			answers = append(answers, a)
		}
	}
	repo.db.answers = answers

	feedbacks := repo.db.feedbacks[:0]
	for _, fb := range repo.db.feedbacks {
		if !isDeleted(fb.StudentID) {
			feedbacks = append(feedbacks, fb)
		}
	}
	repo.db.feedbacks = feedbacks
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func matchesFilter(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(usr.Name), search) || strings.Contains(usr.Email, search)) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var hasRole bool
		for _, role := range filter.Roles {
			if usr.Role == role {
				hasRole = true
				break
			}
		}
		if !hasRole {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func sortUsers(users []user.User, orderings []core.DBOrdering) {
	less := func(a, b user.User, field string) (bool, bool) { // (less, equal)
		switch field {
		case "name":
			return a.Name < b.Name, a.Name == b.Name
		case "email":
			return a.Email < b.Email, a.Email == b.Email
		case "role":
			return a.Role < b.Role, a.Role == b.Role
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		default:
			return a.ID < b.ID, a.ID == b.ID
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range orderings {
			lt, eq := less(users[i], users[j], ord.Field)
			if eq {
				continue
			}
			if ord.Ascending {
				return lt
			}
			return !lt
		}
		return false
	})
}
