package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/moringapair/backend/core/pairing"
	"github.com/moringapair/backend/storage/database"
)

type pairingRepository struct {
	db *sqlx.DB
}

var _ pairing.Repository = (*pairingRepository)(nil)

func NewPairingRepository(db *sqlx.DB) pairing.Repository {
	return &pairingRepository{db: db}
}

func (repo *pairingRepository) QueryRecords(ctx context.Context, filter pairing.RecordFilter) ([]pairing.Record, error) {
	var w where
	if filter.Week != 0 {
		w.add("p.week_number = ?", filter.Week)
	}
	if filter.Status != "" {
		w.add("p.status = ?", filter.Status)
	}

	q := `SELECT p.id, p.student1_id, p.student2_id, p.week_number, p.status, p.created_at,
			u1.name AS student1_name, u2.name AS student2_name
		FROM pairs p
		JOIN users u1 ON u1.id = p.student1_id
		JOIN users u2 ON u2.id = p.student2_id` + w.String() + " ORDER BY p.week_number, p.id"

	records := make([]pairing.Record, 0)
	if err := repo.db.SelectContext(ctx, &records, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying pairs")
	}
	return records, nil
}

func (repo *pairingRepository) MaxWeek(ctx context.Context) (int, error) {
	var week int
	err := repo.db.GetContext(ctx, &week, "SELECT COALESCE(MAX(week_number), 0) FROM pairs")
	return week, errors.Wrap(err, "getting last week")
}

func (repo *pairingRepository) SaveAssignment(ctx context.Context, records []pairing.Record, archiveActive bool) ([]pairing.Record, error) {
	saved := make([]pairing.Record, 0, len(records))
	now := time.Now().UTC()

	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if archiveActive {
			if _, err := tx.ExecContext(ctx,
				"UPDATE pairs SET status = $1 WHERE status = $2", pairing.StatusArchived, pairing.StatusActive,
			); err != nil {
				return errors.Wrap(err, "archiving pairs")
			}
		}

		stmt, err := tx.PreparexContext(ctx, `INSERT INTO pairs (student1_id, student2_id, week_number, status, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`)
		if err != nil {
			return errors.Wrap(err, "preparing pair insert")
		}
		defer func() { _ = stmt.Close() }()

		for _, rec := range records {
			if rec.Status == "" {
				rec.Status = pairing.StatusActive
			}
			rec.CreatedAt = now
			if err = stmt.GetContext(ctx, &rec.ID, rec.Student1ID, rec.Student2ID, rec.Week, rec.Status, rec.CreatedAt); err != nil {
				return errors.Wrapf(err, "inserting pair %s", rec.Pair())
			}
			saved = append(saved, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
