package tests

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/moringapair/backend/apps/api/echo"
	"github.com/moringapair/backend/core/user"
)

type loginResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func Test_userApi_register(t *testing.T) {
	resetDB(t)
	existing := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)

	tests := []httpTest{
		{
			name: "missing fields", wantCode: http.StatusBadRequest,
			body: []byte(`{}`),
			wantData: marshalObj(t, map[string]string{
				"name":     "this field is required",
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "short password", wantCode: http.StatusBadRequest,
			body:     []byte(`{"name": "Amina Wanjiru", "email": "amina@test.test", "password": "abc123"}`),
			wantData: marshalObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "email taken", wantCode: http.StatusBadRequest,
			body:     []byte(`{"name": "Amina Wanjiru", "email": "BRIAN@test.test", "password": "` + testPassword + `"}`),
			wantData: marshalObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "mentor role is ignored", wantCode: http.StatusCreated,
			body: []byte(`{"name": "Amina Wanjiru", "email": "amina@test.test", "password": "` + testPassword + `", "role": "tm"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/register"
			rec := do(t, tt)
			if rec.Code != http.StatusCreated {
				return
			}

			var resp loginResponse
			unmarshal(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, "amina@test.test", resp.User.Email)
			assert.Equal(t, user.RoleStudent, resp.User.Role)
			assert.NotEqual(t, existing.ID, resp.User.ID)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	resetDB(t)
	usr := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	errFailed := marshalObj(t, httpErr{Error: "invalid email or password"})

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", wantCode: http.StatusUnauthorized, wantData: errFailed,
			body: []byte(`{"email": "nobody@test.test", "password": "` + testPassword + `"}`),
		},
		{
			name: "wrong password", wantCode: http.StatusUnauthorized, wantData: errFailed,
			body: []byte(`{"email": "amina@test.test", "password": "wrong-password"}`),
		},
		{
			name: "success", wantCode: http.StatusOK,
			body: []byte(`{"email": " AMINA@test.test ", "password": "` + testPassword + `"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/login"
			rec := do(t, tt)
			if rec.Code != http.StatusOK {
				return
			}

			var resp loginResponse
			unmarshal(t, rec, &resp)
			assert.Equal(t, usr.ID, resp.User.ID)

			claims := new(Claims)
			_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(usr.ID), claims.Subject)
			assert.Equal(t, user.RoleStudent, claims.Role)
			assert.False(t, claims.IsMentor)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	resetDB(t)
	usr := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)

	expired := GetUserClaims(conf, usr, time.Now().Add(-2*conf.Server.JWTRefreshExpirationDelta).Unix())
	expiredToken, err := GenerateToken(conf, expired)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "refresh expired", token: expiredToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "refresh has expired"})},
		{name: "success", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/token-refresh"
			rec := do(t, tt)
			if rec.Code == http.StatusOK {
				var resp loginResponse
				unmarshal(t, rec, &resp)
				assert.NotEmpty(t, resp.Token)
				assert.Equal(t, usr.ID, resp.User.ID)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	resetDB(t)

	path := func(search, ordering string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}

	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	chris := createUser(t, "Chris Kamau", "chris@test.test", user.RoleStudent)

	mentorToken := getToken(t, mentor)
	empty := marshalList(t)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "mentor required", path: "/v1/users", token: getToken(t, amina), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{name: "get all", path: "/v1/users", token: mentorToken, wantData: marshalList(t, amina, brian, mentor, chris)},
		// filtering
		{name: "search (unknown)", path: path("lol", ""), token: mentorToken, wantData: empty},
		{name: "search=BRI", path: path("BRI", ""), token: mentorToken, wantData: marshalList(t, brian)},
		{name: "role (unknown)", path: path("", "", "lol"), token: mentorToken, wantData: empty},
		{name: "role=tm", path: path("", "", user.RoleMentor), token: mentorToken, wantData: marshalList(t, mentor)},
		{name: "role=student", path: path("", "", user.RoleStudent), token: mentorToken, wantData: marshalList(t, amina, brian, chris)},
		// ordering
		{name: "order by name", path: path("", "name"), token: mentorToken, wantData: marshalList(t, amina, brian, chris, mentor)},
		{name: "order by -name", path: path("", "-name"), token: mentorToken, wantData: marshalList(t, mentor, chris, brian, amina)},
		{name: "order by role,-id", path: path("", "role,-id"), token: mentorToken, wantData: marshalList(t, chris, brian, amina, mentor)},
		{name: "order by unknown field", path: path("", "password_hash"), token: mentorToken, wantData: marshalList(t, amina, brian, mentor, chris)},
		// filtering & ordering
		{name: "role=student & -name", path: path("", "-name", user.RoleStudent), token: mentorToken, wantData: marshalList(t, chris, brian, amina)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, tt)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	student := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)

	body := []byte(`{"name": "Ken Mentor", "email": "ken@test.test", "password": "` + testPassword + `", "role": "tm"}`)

	tests := []httpTest{
		{name: "mentor required", body: body, token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{
			name: "invalid role", token: getToken(t, mentor), wantCode: http.StatusBadRequest,
			body:     []byte(`{"name": "Ken Mentor", "email": "ken@test.test", "password": "` + testPassword + `", "role": "admin"}`),
			wantData: marshalObj(t, map[string]string{"role": "role must be one of [student tm]"}),
		},
		{name: "success", body: body, token: getToken(t, mentor), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users"
			rec := do(t, tt)
			if rec.Code == http.StatusCreated {
				var usr user.User
				unmarshal(t, rec, &usr)
				assert.Equal(t, user.RoleMentor, usr.Role)
				assert.Equal(t, "ken@test.test", usr.Email)
			}
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)

	path := func(usr user.User) string { return "/v1/users/" + strconv.Itoa(usr.ID) }
	aminaToken := getToken(t, amina)

	tests := []httpTest{
		{name: "auth required", path: path(amina), wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "self", path: path(amina), token: aminaToken, wantData: marshalObj(t, amina)},
		{name: "other student", path: path(brian), token: aminaToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "mentor", path: path(brian), token: getToken(t, mentor), wantData: marshalObj(t, brian)},
		{name: "unknown", path: "/v1/users/999", token: getToken(t, mentor), wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "invalid id", path: "/v1/users/lol", token: getToken(t, mentor), wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, tt)
		})
	}
}

func Test_userApi_update(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)

	path := func(usr user.User) string { return "/v1/users/" + strconv.Itoa(usr.ID) }
	aminaToken := getToken(t, amina)

	tests := []httpTest{
		{
			name: "other student", path: path(brian), token: aminaToken, body: []byte(`{"name": "Hacked"}`),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
		},
		{
			name: "student cannot change role", path: path(amina), token: aminaToken, body: []byte(`{"role": "tm"}`),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "email taken", path: path(amina), token: aminaToken, body: []byte(`{"email": "brian@test.test"}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "password confirm required", path: path(amina), token: aminaToken, body: []byte(`{"password": "N3w-Passw0rd"}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"password_confirm": "this field is required"}),
		},
		{name: "self", path: path(amina), token: aminaToken, body: []byte(`{"name": " Amina W. "}`)},
		{name: "mentor promotes", path: path(brian), token: getToken(t, mentor), body: []byte(`{"role": "tm"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPut
			do(t, tt)
		})
	}

	usr, err := usrRepo.GetUserByID(context.Background(), amina.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amina W.", usr.Name)
	assert.Equal(t, amina.Email, usr.Email)

	usr, err = usrRepo.GetUserByID(context.Background(), brian.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleMentor, usr.Role)
}

func Test_userApi_destroy(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)

	path := func(usr user.User) string { return "/v1/users/" + strconv.Itoa(usr.ID) }
	aminaToken := getToken(t, amina)

	tests := []httpTest{
		{name: "other student", path: path(brian), token: aminaToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{name: "mentor", path: path(brian), token: getToken(t, mentor), wantCode: http.StatusNoContent},
		{name: "self", path: path(amina), token: aminaToken, wantCode: http.StatusNoContent},
		{name: "deleted user token", path: path(amina), token: aminaToken, wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodDelete
			do(t, tt)
		})
	}

	users, err := usrRepo.QueryUsers(context.Background(), &user.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []user.User{mentor}, users)
}

func Test_userApi_queryStudents(t *testing.T) {
	resetDB(t)
	mentor := createUser(t, "Grace Mentor", "grace@test.test", user.RoleMentor)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)
	brian := createUser(t, "Brian Otieno", "brian@test.test", user.RoleStudent)

	students := marshalList(t,
		StudentResponse{ID: amina.ID, Name: amina.Name, Email: amina.Email},
		StudentResponse{ID: brian.ID, Name: brian.Name, Email: brian.Email},
	)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "student", token: getToken(t, amina), wantData: students},
		{name: "mentor", token: getToken(t, mentor), wantData: students},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = "/v1/students"
			do(t, tt)
		})
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	resetDB(t)
	amina := createUser(t, "Amina Wanjiru", "amina@test.test", user.RoleStudent)

	do(t, httpTest{path: "/v1/users/roles", token: getToken(t, amina), wantData: marshalObj(t, user.Roles)})
}

func Test_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to MoringaPair API!", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
