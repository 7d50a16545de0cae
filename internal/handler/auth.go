package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/config"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// AuthHandler serves the /api/usuarios endpoints: registration, login and
// admin-only user lookup.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, users UserStore) *AuthHandler {
	if users == nil {
		panic("nil store passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userDto struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// loginResp carries the signed token and the user it belongs to. The token
// is the empty sentinel when authentication fails; the handler pairs that
// with a 401 status.
type loginResp struct {
	Token string   `json:"token"`
	User  *userDto `json:"user"`
}

// Register handles POST /api/usuarios/registro (anonymous). The first
// registered user bootstraps the role tables and becomes the admin; later
// registrants get the "registrado" role.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	unique, err := h.Users.IsUniqueUsername(ctx, req.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify username"})
	}
	if !unique {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	}

	u, role, err := h.Users.Register(ctx, req.Username, req.Password, strings.TrimSpace(req.Name), h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}

	return c.JSON(http.StatusCreated, userDto{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName,
		Role:     role,
	})
}

// Login handles POST /api/usuarios/login (anonymous). An unknown user and a
// wrong password both produce the empty-token sentinel and a 401, so the two
// cases are indistinguishable on the wire.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	resp, err := h.authenticate(c, req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if resp.Token == "" {
		return c.JSON(http.StatusUnauthorized, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// authenticate verifies credentials and issues a token. It returns the
// empty-token sentinel, not an error, when the user is unknown or the
// password does not match.
func (h *AuthHandler) authenticate(c echo.Context, username, password string) (loginResp, error) {
	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return loginResp{Token: ""}, nil
		}
		return loginResp{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return loginResp{Token: ""}, nil
	}

	roles, err := h.Users.RolesOf(ctx, u.ID)
	if err != nil {
		return loginResp{}, err
	}
	role := ""
	if len(roles) > 0 {
		role = roles[0]
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, role, h.Cfg.TokenTTLDays)
	if err != nil {
		return loginResp{}, err
	}
	return loginResp{
		Token: access.Token,
		User:  &userDto{ID: u.ID, Username: u.Username, Name: u.DisplayName, Role: role},
	}, nil
}

// List handles GET /api/usuarios (admin only). Users are ordered by
// username; password hashes never leave the handler.
func (h *AuthHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load users"})
	}
	out := make([]userDto, 0, len(users))
	for _, u := range users {
		out = append(out, userDto{ID: u.ID, Username: u.Username, Name: u.DisplayName})
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/usuarios/:id (admin only).
func (h *AuthHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load user"})
	}
	roles, err := h.Users.RolesOf(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load roles"})
	}
	role := ""
	if len(roles) > 0 {
		role = roles[0]
	}
	return c.JSON(http.StatusOK, userDto{ID: u.ID, Username: u.Username, Name: u.DisplayName, Role: role})
}
