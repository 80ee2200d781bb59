// Package preference manages the learning preference profiles students are paired on.
package preference

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core/pairing"
)

var ErrNotFound = errors.New("learning preferences not found")

type (
	// Preference is the stored profile of a user. unset attributes are null.
	Preference struct {
		ID                 int         `json:"id" db:"id"`
		UserID             int         `json:"user_id" db:"user_id"`
		LearningStyle      null.String `json:"learning_style" db:"learning_style"`
		CollaborationStyle null.String `json:"collaboration_style" db:"collaboration_style"`
		PreferredPace      null.String `json:"preferred_pace" db:"preferred_pace"`
		PreferredTopic     null.String `json:"preferred_topic" db:"preferred_topic"`
	}

	// SavePreference replaces the whole profile: omitted attributes are unset.
	SavePreference struct {
		LearningStyle      string `json:"learning_style" validate:"omitempty,oneof=visual auditory hands_on"`
		CollaborationStyle string `json:"collaboration_style" validate:"omitempty,oneof=group_work pair_programming individual_work"`
		PreferredPace      string `json:"preferred_pace" validate:"omitempty,oneof=fast medium slow"`
		PreferredTopic     string `json:"preferred_topic" validate:"omitempty,oneof=frontend backend fullstack devops datascience"`
	}

	Repository interface {
		// UpsertPreference creates or replaces the preference of pref.UserID.
		UpsertPreference(ctx context.Context, pref Preference) (p Preference, created bool, err error)
		GetPreferenceByUserID(ctx context.Context, userID int) (Preference, error)
		DeletePreferenceByUserID(ctx context.Context, userID int) error
	}

	ServiceInterface interface {
		Save(ctx context.Context, userID int, data SavePreference) (p Preference, created bool, err error)
		Get(ctx context.Context, userID int) (Preference, error)
		Delete(ctx context.Context, userID int) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func (sp *SavePreference) Validate(validate *validator.Validate) error {
	return validate.Struct(sp)
}

// Profile converts the preference to the profile used by the pairing engine.
func (p Preference) Profile() *pairing.Profile {
	return &pairing.Profile{
		LearningStyle:      p.LearningStyle.String,
		CollaborationStyle: p.CollaborationStyle.String,
		Pace:               p.PreferredPace.String,
		Topic:              p.PreferredTopic.String,
	}
}

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) Save(ctx context.Context, userID int, data SavePreference) (Preference, bool, error) {
	pref := Preference{
		UserID:             userID,
		LearningStyle:      nullString(data.LearningStyle),
		CollaborationStyle: nullString(data.CollaborationStyle),
		PreferredPace:      nullString(data.PreferredPace),
		PreferredTopic:     nullString(data.PreferredTopic),
	}
	return svc.repo.UpsertPreference(ctx, pref)
}

func (svc *service) Get(ctx context.Context, userID int) (Preference, error) {
	return svc.repo.GetPreferenceByUserID(ctx, userID)
}

func (svc *service) Delete(ctx context.Context, userID int) error {
	return svc.repo.DeletePreferenceByUserID(ctx, userID)
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
