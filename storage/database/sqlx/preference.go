package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/user"
	"github.com/moringapair/backend/storage/database"
)

const preferenceColumns = "id, user_id, learning_style, collaboration_style, preferred_pace, preferred_topic"

type preferenceRepository struct {
	db *sqlx.DB
}

var (
	_ preference.Repository    = (*preferenceRepository)(nil)
	_ pairing.RosterRepository = (*preferenceRepository)(nil)
)

func NewPreferenceRepository(db *sqlx.DB) *preferenceRepository {
	return &preferenceRepository{db: db}
}

func (repo *preferenceRepository) UpsertPreference(ctx context.Context, pref preference.Preference) (preference.Preference, bool, error) {
	// xmax is 0 for freshly inserted rows
	q := `INSERT INTO learning_preferences (user_id, learning_style, collaboration_style, preferred_pace, preferred_topic)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			learning_style = EXCLUDED.learning_style,
			collaboration_style = EXCLUDED.collaboration_style,
			preferred_pace = EXCLUDED.preferred_pace,
			preferred_topic = EXCLUDED.preferred_topic
		RETURNING ` + preferenceColumns + `, (xmax = 0) AS created`

	var row struct {
		preference.Preference
		Created bool `db:"created"`
	}
	err := repo.db.GetContext(ctx, &row, q,
		pref.UserID, pref.LearningStyle, pref.CollaborationStyle, pref.PreferredPace, pref.PreferredTopic,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return preference.Preference{}, false, user.ErrNotFound
		}
		return preference.Preference{}, false, errors.Wrap(err, "upserting learning preferences")
	}
	return row.Preference, row.Created, nil
}

func (repo *preferenceRepository) GetPreferenceByUserID(ctx context.Context, userID int) (preference.Preference, error) {
	var pref preference.Preference
	err := repo.db.GetContext(ctx, &pref, "SELECT "+preferenceColumns+" FROM learning_preferences WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return preference.Preference{}, preference.ErrNotFound
	}
	return pref, errors.Wrap(err, "getting learning preferences")
}

func (repo *preferenceRepository) DeletePreferenceByUserID(ctx context.Context, userID int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM learning_preferences WHERE user_id = $1", userID)
	if err != nil {
		return errors.Wrap(err, "deleting learning preferences")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return preference.ErrNotFound
	}
	return nil
}

func (repo *preferenceRepository) QueryRoster(ctx context.Context) ([]pairing.Student, error) {
	q := `SELECT u.id, u.name, u.email, p.id AS pref_id,
			p.learning_style, p.collaboration_style, p.preferred_pace, p.preferred_topic
		FROM users u
		LEFT JOIN learning_preferences p ON p.user_id = u.id
		WHERE u.role = $1
		ORDER BY u.id`

	var rows []struct {
		ID                 int         `db:"id"`
		Name               string      `db:"name"`
		Email              string      `db:"email"`
		PrefID             null.Int    `db:"pref_id"`
		LearningStyle      null.String `db:"learning_style"`
		CollaborationStyle null.String `db:"collaboration_style"`
		PreferredPace      null.String `db:"preferred_pace"`
		PreferredTopic     null.String `db:"preferred_topic"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, user.RoleStudent); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}

	roster := make([]pairing.Student, 0, len(rows))
	for _, r := range rows {
		s := pairing.Student{ID: r.ID, Name: r.Name, Email: r.Email}
		if r.PrefID.Valid {
			s.Profile = preference.Preference{
				LearningStyle:      r.LearningStyle,
				CollaborationStyle: r.CollaborationStyle,
				PreferredPace:      r.PreferredPace,
				PreferredTopic:     r.PreferredTopic,
			}.Profile()
		}
		roster = append(roster, s)
	}
	return roster, nil
}
