package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-catalog-api/internal/config"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
)

const authTestSecret = "auth-handler-test-secret"

func authRoutes() (*echo.Echo, *fakeUserStore) {
	store := newFakeUserStore()
	cfg := config.Config{
		JWTSecret:    authTestSecret,
		TokenTTLDays: 7,
		BcryptCost:   bcrypt.MinCost,
	}
	h := NewAuthHandler(cfg, store)
	e := echo.New()
	e.POST("/api/usuarios/registro", h.Register)
	e.POST("/api/usuarios/login", h.Login)
	e.GET("/api/usuarios", h.List)
	e.GET("/api/usuarios/:id", h.Get)
	return e, store
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	e, _ := authRoutes()

	rec := doJSON(e, http.MethodPost, "/api/usuarios/registro",
		`{"username":"Ana@Example.com","password":"pw1","name":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var first map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, repository.RoleAdmin, first["role"])
	assert.Equal(t, "ana@example.com", first["username"], "usernames are normalized to lower case")

	rec = doJSON(e, http.MethodPost, "/api/usuarios/registro",
		`{"username":"bob","password":"pw2","name":"Bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var second map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, repository.RoleRegistered, second["role"],
		"only the first registrant gets the admin role")
}

func TestRegisterValidation(t *testing.T) {
	e, store := authRoutes()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing username", `{"password":"pw"}`, http.StatusBadRequest},
		{"missing password", `{"username":"ana"}`, http.StatusBadRequest},
		{"malformed json", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doJSON(e, http.MethodPost, "/api/usuarios/registro", tt.body).Code)
		})
	}
	assert.Empty(t, store.users)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e, _ := authRoutes()

	require.Equal(t, http.StatusCreated,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ana","password":"pw"}`).Code)
	assert.Equal(t, http.StatusConflict,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ana","password":"other"}`).Code)
	assert.Equal(t, http.StatusConflict,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ANA","password":"other"}`).Code,
		"username uniqueness is case-insensitive")
}

func TestRegisterThenLogin(t *testing.T) {
	e, _ := authRoutes()
	require.Equal(t, http.StatusCreated,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ana","password":"pw1","name":"Ana"}`).Code)

	rec := doJSON(e, http.MethodPost, "/api/usuarios/login", `{"username":"ana","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  *struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ana", resp.User.Username)
	assert.Equal(t, repository.RoleAdmin, resp.User.Role)

	// The token carries a single role claim and a 7-day expiry.
	tok, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(authTestSecret), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, repository.RoleAdmin, claims["role"])
	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(7*24*time.Hour/time.Second), exp-iat)
}

func TestLoginCaseInsensitiveUsername(t *testing.T) {
	e, _ := authRoutes()
	require.Equal(t, http.StatusCreated,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ana","password":"pw1"}`).Code)

	rec := doJSON(e, http.MethodPost, "/api/usuarios/login", `{"username":"ANA","password":"pw1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginFailuresReturnEmptyTokenSentinel(t *testing.T) {
	e, _ := authRoutes()
	require.Equal(t, http.StatusCreated,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ana","password":"pw1"}`).Code)

	for name, body := range map[string]string{
		"wrong password": `{"username":"ana","password":"nope"}`,
		"unknown user":   `{"username":"ghost","password":"pw1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/usuarios/login", body)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "", resp["token"], "failed logins answer with the empty-token sentinel")
		})
	}
}

func TestUserListAndGet(t *testing.T) {
	e, _ := authRoutes()
	require.Equal(t, http.StatusCreated,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"zoe","password":"pw"}`).Code)
	require.Equal(t, http.StatusCreated,
		doJSON(e, http.MethodPost, "/api/usuarios/registro", `{"username":"ana","password":"pw"}`).Code)

	rec := doJSON(e, http.MethodGet, "/api/usuarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "ana", list[0]["username"], "users are ordered by username")
	for _, u := range list {
		_, leaked := u["password"]
		assert.False(t, leaked)
	}

	rec = doJSON(e, http.MethodGet, "/api/usuarios/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "zoe", got["username"])
	assert.Equal(t, repository.RoleAdmin, got["role"])

	assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodGet, "/api/usuarios/42", "").Code)
}
