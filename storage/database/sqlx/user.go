// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core"
	"github.com/moringapair/backend/core/user"
	"github.com/moringapair/backend/storage/database"
)

const userColumns = "id, name, email, role, password_hash, created_at, updated_at"

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	ids := make([]int64, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		ids = append(ids, int64(usr.ID))
	}

	var found bool
	err := repo.db.GetContext(ctx, &found,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND NOT (id = ANY($2)))`,
		email, pq.Int64Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if found {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = now
	}

	q := `INSERT INTO users (name, email, role, password_hash, created_at, updated_at)
		VALUES (:name, :email, :role, :password_hash, :created_at, :updated_at) RETURNING id`
	rows, err := repo.db.NamedQueryContext(ctx, q, usr)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.Scan(&usr.ID); err != nil {
			return user.User{}, errors.Wrap(err, "scanning user id")
		}
	}
	return usr, rows.Err()
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	var w where
	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR email ILIKE ?)", search, search)
		}
		if len(filter.Roles) > 0 {
			w.add("role = ANY(?)", pq.StringArray(filter.Roles))
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo)
		}
	}

	q := "SELECT " + userColumns + " FROM users" + w.String() +
		orderBy(core.AllowedOrderings(orderings, user.OrderingFields), "id ASC")

	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE "+where+" = $1", arg)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	return usr, errors.Wrap(err, "getting user")
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "id", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email", email)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET
			name = $2,
			email = $3,
			role = COALESCE(NULLIF($4, ''), role),
			password_hash = COALESCE($5, password_hash),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns

	var pwdHash interface{} // NULL keeps the current hash
	if usr.PasswordHash != nil {
		pwdHash = usr.PasswordHash
	}

	var updated user.User
	err := repo.db.GetContext(ctx, &updated, q, usr.ID, usr.Name, usr.Email, usr.Role, pwdHash, usr.UpdatedAt)
	switch {
	case err == sql.ErrNoRows:
		return user.User{}, user.ErrNotFound
	case database.IsUniqueViolation(err):
		return user.User{}, user.ErrEmailExists
	}
	return updated, errors.Wrap(err, "updating user")
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	_, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	return errors.Wrap(err, "deleting users")
}
