package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventhub/internal/auth"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/database/dbtest"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var jwtConfig = config.JWTConfig{
	Secret:           "auth-test-secret",
	JWTExpiresIn:     15 * time.Minute,
	RefreshExpiresIn: time.Hour,
}

func newService(t *testing.T) (auth.Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &users.User{})
	return auth.NewService(auth.NewRepository(db), jwtConfig), db
}

func register(t *testing.T, svc auth.Service, email string) *auth.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &auth.RegisterRequest{
		FirstName: "Meera",
		LastName:  "Iyer",
		Email:     email,
		Password:  "s3cret-pass",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)

	resp := register(t, svc, "  Meera@Example.com ")
	assert.Equal(t, "meera@example.com", resp.User.Email)
	assert.Equal(t, string(users.RoleUser), resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)

	var stored users.User
	require.NoError(t, db.First(&stored, "email = ?", "meera@example.com").Error)
	assert.NotEqual(t, "s3cret-pass", stored.Password)

	_, err := svc.Register(ctx, &auth.RegisterRequest{FirstName: "Dup", LastName: "X", Email: "meera@example.com", Password: "another1"})
	assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)

	login, err := svc.Login(ctx, &auth.LoginRequest{Email: "MEERA@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &auth.LoginRequest{Email: "meera@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &auth.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	resp := register(t, svc, "tokens@example.com")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeAccess, claims.Type)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.RefreshToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken, "access tokens cannot refresh")

	// promotion shows up on the next refresh
	require.NoError(t, db.Model(&users.User{}).Where("email = ?", "tokens@example.com").Update("role", users.RoleAdmin).Error)
	pair, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	refreshed, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(users.RoleAdmin), refreshed.Role)

	other := auth.NewService(auth.NewRepository(db), config.JWTConfig{Secret: "different", JWTExpiresIn: time.Minute, RefreshExpiresIn: time.Minute})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired := auth.NewService(auth.NewRepository(db), config.JWTConfig{Secret: jwtConfig.Secret, JWTExpiresIn: -time.Minute, RefreshExpiresIn: -time.Minute})
	stale, err := expired.Login(ctx, &auth.LoginRequest{Email: "tokens@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	resp := register(t, svc, "pw@example.com")

	err := svc.ChangePassword(ctx, resp.User.ID, &auth.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, resp.User.ID, &auth.ChangePasswordRequest{CurrentPassword: "s3cret-pass", NewPassword: "newpass1"}))
	_, err = svc.Login(ctx, &auth.LoginRequest{Email: "pw@example.com", Password: "newpass1"})
	assert.NoError(t, err)
}

func TestAuthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, db := newService(t)

	r := gin.New()
	auth.NewRouter(auth.NewController(svc, logger.Nop()), jwtConfig.Secret).SetupRoutes(r.Group("/api/v1"))

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	invalid := post("/api/v1/auth/register", `{"first_name":"A","last_name":"B","email":"not-an-email","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	created := post("/api/v1/auth/register", `{"first_name":"Kiran","last_name":"Das","email":"kiran@example.com","password":"password1","role":"ADMIN"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	var envelope struct {
		Data auth.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &envelope))
	assert.Equal(t, string(users.RoleUser), envelope.Data.User.Role, "role in the body is ignored")

	assert.Equal(t, http.StatusConflict, post("/api/v1/auth/register", `{"first_name":"Kiran","last_name":"Das","email":"kiran@example.com","password":"password1"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post("/api/v1/auth/login", `{"email":"kiran@example.com","password":"wrongpass"}`).Code)

	me := get("/api/v1/auth/me", envelope.Data.AccessToken)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "kiran@example.com")
	assert.NotContains(t, me.Body.String(), "password")

	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/auth/me", envelope.Data.RefreshToken).Code, "refresh token is not an access token")
	assert.Equal(t, http.StatusForbidden, get("/api/v1/admin/users", envelope.Data.AccessToken).Code)

	require.NoError(t, db.Model(&users.User{}).Where("email = ?", "kiran@example.com").Update("role", users.RoleAdmin).Error)
	refreshed := post("/api/v1/auth/refresh", `{"refresh_token":"`+envelope.Data.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, refreshed.Code)
	var pair struct {
		Data auth.TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(refreshed.Body.Bytes(), &pair))

	list := get("/api/v1/admin/users", pair.Data.AccessToken)
	require.Equal(t, http.StatusOK, list.Code)
	assert.NotContains(t, list.Body.String(), "$2a$")
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	resp := register(t, svc, "profile@example.com")
	register(t, svc, "taken@example.com")

	assert.Empty(t, resp.User.Interests)

	name := "Meenakshi"
	updated, err := svc.UpdateProfile(ctx, resp.User.ID, &auth.UpdateProfileRequest{
		FirstName: &name,
		Interests: []string{"concert", "Sport", "concert"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Meenakshi", updated.FirstName)
	assert.Equal(t, "Iyer", updated.LastName)
	assert.Equal(t, []string{"concert", "sport"}, updated.Interests)

	me, err := svc.GetMe(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"concert", "sport"}, me.Interests)

	taken := "TAKEN@example.com"
	_, err = svc.UpdateProfile(ctx, resp.User.ID, &auth.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)

	password := "fresh-pass"
	cleared, err := svc.UpdateProfile(ctx, resp.User.ID, &auth.UpdateProfileRequest{Password: &password, Interests: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Interests)

	_, err = svc.Login(ctx, &auth.LoginRequest{Email: "profile@example.com", Password: "fresh-pass"})
	assert.NoError(t, err)
}

func TestProfileRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newService(t)
	resp := register(t, svc, "routes@example.com")

	r := gin.New()
	auth.NewRouter(auth.NewController(svc, logger.Nop()), jwtConfig.Secret).SetupRoutes(r.Group("/api/v1"))

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/users/profile", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, put(`{"interests":["knitting"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(`{"password":"123"}`).Code)
	require.Equal(t, http.StatusOK, put(`{"interests":["workshop","festival"]}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data auth.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"workshop", "festival"}, envelope.Data.Interests)

	anon := httptest.NewRecorder()
	r.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
}
