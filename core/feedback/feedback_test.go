package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moringapair/backend/core/pairing"
)

type repoMock struct {
	feedbacks []Feedback
}

func (r *repoMock) CreateFeedback(_ context.Context, fb Feedback) (Feedback, error) {
	fb.ID = len(r.feedbacks) + 1
	r.feedbacks = append(r.feedbacks, fb)
	return fb, nil
}

func (r *repoMock) QueryFeedbacks(_ context.Context, filter QueryFilter) ([]Feedback, error) {
	fbs := make([]Feedback, 0)
	for _, fb := range r.feedbacks {
		if (filter.StudentID == 0 || fb.StudentID == filter.StudentID) && (filter.Week == 0 || fb.Week == filter.Week) {
			fbs = append(fbs, fb)
		}
	}
	return fbs, nil
}

type pairsMock []pairing.Record

func (p pairsMock) QueryRecords(_ context.Context, filter pairing.RecordFilter) ([]pairing.Record, error) {
	recs := make([]pairing.Record, 0)
	for _, r := range p {
		if filter.Week == 0 || r.Week == filter.Week {
			recs = append(recs, r)
		}
	}
	return recs, nil
}

func (p pairsMock) MaxWeek(context.Context) (int, error) { return 0, nil }

func (p pairsMock) SaveAssignment(context.Context, []pairing.Record, bool) ([]pairing.Record, error) {
	return nil, nil
}

func TestService_Query(t *testing.T) {
	pairs := pairsMock{
		{Student1ID: 1, Student2ID: 2, Student1Name: "Amina", Student2Name: "Brian", Week: 1},
		{Student1ID: 3, Student2ID: 1, Student1Name: "Chris", Student2Name: "Amina", Week: 2},
	}
	svc := NewService(&repoMock{}, pairs)
	ctx := context.Background()

	for _, fb := range []struct {
		student int
		nf      NewFeedback
	}{
		{1, NewFeedback{Week: 1, Text: "great week"}},
		{2, NewFeedback{Week: 2, Text: "worked alone"}},
		{1, NewFeedback{Week: 2, Text: "learned a lot"}},
	} {
		_, err := svc.Submit(ctx, fb.student, fb.nf)
		require.NoError(t, err)
	}

	tests := []struct {
		name         string
		filter       QueryFilter
		wantPartners []interface{}
	}{
		{name: "all", wantPartners: []interface{}{"Brian", nil, "Chris"}},
		{name: "own", filter: QueryFilter{StudentID: 1}, wantPartners: []interface{}{"Brian", "Chris"}},
		{name: "week", filter: QueryFilter{Week: 2}, wantPartners: []interface{}{nil, "Chris"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fbs, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			require.Len(t, fbs, len(tt.wantPartners))
			for i, want := range tt.wantPartners {
				if want == nil {
					assert.False(t, fbs[i].PartnerName.Valid)
				} else {
					assert.Equal(t, want, fbs[i].PartnerName.String)
				}
			}
		})
	}
}

func TestService_Submit(t *testing.T) {
	pairs := pairsMock{{Student1ID: 1, Student2ID: 2, Student1Name: "Amina", Student2Name: "Brian", Week: 1}}
	svc := NewService(&repoMock{}, pairs)

	fb, err := svc.Submit(context.Background(), 2, NewFeedback{Week: 1, Text: "ok"})
	require.NoError(t, err)
	assert.Equal(t, 1, fb.ID)
	assert.Equal(t, "Amina", fb.PartnerName.String)
	assert.False(t, fb.CreatedAt.IsZero())
}
