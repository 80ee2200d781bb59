package tests

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/moringapair/backend/core/preference"
	"github.com/moringapair/backend/core/user"
)

func Test_preferenceApi_save(t *testing.T) {
	resetDB(t)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	token := getToken(t, amina)

	tests := []httpTest{
		{name: "auth required", body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "invalid value", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(`{"learning_style": "telepathic"}`),
			wantData: marshalObj(t, map[string]string{"learning_style": "learning_style must be one of [visual auditory hands_on]"}),
		},
		{
			name: "create", token: token, wantCode: http.StatusCreated,
			body: []byte(`{"learning_style": "visual", "preferred_pace": "fast"}`),
			wantData: marshalObj(t, preference.Preference{
				ID: 1, UserID: amina.ID,
				LearningStyle: null.StringFrom("visual"),
				PreferredPace: null.StringFrom("fast"),
			}),
		},
		{
			name: "replace", token: token, wantCode: http.StatusOK,
			body: []byte(`{"collaboration_style": "pair_programming", "preferred_topic": "backend"}`),
			wantData: marshalObj(t, preference.Preference{
				ID: 1, UserID: amina.ID,
				CollaborationStyle: null.StringFrom("pair_programming"),
				PreferredTopic:     null.StringFrom("backend"),
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/learning-preferences"
			do(t, tt)
		})
	}
}

func Test_preferenceApi_detail(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)

	pref, _, err := prefRepo.UpsertPreference(context.Background(), preference.Preference{
		UserID:        amina.ID,
		LearningStyle: null.StringFrom("hands_on"),
	})
	require.NoError(t, err)

	path := func(usr user.User) string { return "/v1/learning-preferences/" + strconv.Itoa(usr.ID) }
	prefNotFound := marshalObj(t, httpErr{Error: preference.ErrNotFound.Error()})

	tests := []httpTest{
		{name: "self", path: path(amina), token: getToken(t, amina), wantData: marshalObj(t, pref)},
		{name: "mentor", path: path(amina), token: getToken(t, mentor), wantData: marshalObj(t, pref)},
		{name: "other student", path: path(amina), token: getToken(t, brian), wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "no preferences", path: path(brian), token: getToken(t, brian), wantCode: http.StatusNotFound, wantData: prefNotFound},
		{name: "delete (other student)", method: http.MethodDelete, path: path(amina), token: getToken(t, brian), wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: path(amina), token: getToken(t, amina), wantCode: http.StatusNoContent},
		{name: "deleted", path: path(amina), token: getToken(t, amina), wantCode: http.StatusNotFound, wantData: prefNotFound},
		{name: "delete (missing)", method: http.MethodDelete, path: path(amina), token: getToken(t, mentor), wantCode: http.StatusNotFound, wantData: prefNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, tt)
		})
	}

	_, err = prefRepo.GetPreferenceByUserID(context.Background(), amina.ID)
	assert.Equal(t, preference.ErrNotFound, err)
}
