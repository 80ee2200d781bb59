package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/moringapair/backend/core/pairing"
)

type pairingRepository struct {
	db *DB
}

var _ pairing.Repository = (*pairingRepository)(nil)

func NewPairingRepository(db *DB) pairing.Repository {
	return &pairingRepository{db: db}
}

// QueryRecords returns the records ordered by week then ID, with the current names of the students.
func (repo *pairingRepository) QueryRecords(_ context.Context, filter pairing.RecordFilter) ([]pairing.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]pairing.Record, 0, len(repo.db.pairs))
	for _, rec := range repo.db.pairs {
		if filter.Week != 0 && rec.Week != filter.Week {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		rec.Student1Name = repo.db.userName(rec.Student1ID)
		rec.Student2Name = repo.db.userName(rec.Student2ID)
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Week != records[j].Week {
			return records[i].Week < records[j].Week
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (repo *pairingRepository) MaxWeek(context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var week int
	for _, rec := range repo.db.pairs {
		if rec.Week > week {
			week = rec.Week
		}
	}
	return week, nil
}

// SaveAssignment runs under the write lock: all records are stored, or none.
func (repo *pairingRepository) SaveAssignment(_ context.Context, records []pairing.Record, archiveActive bool) ([]pairing.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range records {
		if _, ok := repo.db.users[rec.Student1ID]; !ok {
			return nil, errUnknownStudent(rec.Student1ID)
		}
		if _, ok := repo.db.users[rec.Student2ID]; !ok {
			return nil, errUnknownStudent(rec.Student2ID)
		}
	}

	if archiveActive {
		for i := range repo.db.pairs {
			if repo.db.pairs[i].Status == pairing.StatusActive {
				repo.db.pairs[i].Status = pairing.StatusArchived
			}
		}
	}

	now := time.Now().UTC()
	saved := make([]pairing.Record, 0, len(records))
	for _, rec := range records {
		rec.ID = repo.db.nextID("pairs")
		rec.CreatedAt = now
		if rec.Status == "" {
			rec.Status = pairing.StatusActive
		}
		repo.db.pairs = append(repo.db.pairs, rec)
		saved = append(saved, rec)
	}
	return saved, nil
}
