package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/engine"
	"trigger-settings/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store     *store.Store
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *store.Store, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: s, jwtSecret: jwtSecret}
}

type sessionUser struct {
	id          string
	roles       []string
	workspaceID string
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return engine.UnauthorizedError("Email and password are required")
	}

	ctx := c.Context()

	user, err := h.findUserByEmail(ctx, body.Email)
	if err != nil {
		return engine.UnauthorizedError("Invalid email or password")
	}

	if !store.AsBool(user["active"]) {
		return engine.UnauthorizedError("Account is disabled")
	}

	if !CheckPassword(body.Password, store.AsString(user["password_hash"])) {
		return engine.UnauthorizedError("Invalid email or password")
	}

	roles, _ := h.store.Dialect.ScanArray(user["roles"])
	pair, err := h.generateTokenPair(ctx, sessionUser{
		id:          store.AsString(user["id"]),
		roles:       roles,
		workspaceID: store.AsString(user["workspace_id"]),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": pair})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("Refresh token is required")
	}

	ctx := c.Context()
	d := h.store.Dialect

	row, err := store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf(`SELECT rt.id, rt.user_id, rt.expires_at, u.roles, u.active, u.workspace_id
		 FROM _refresh_tokens rt
		 JOIN _users u ON u.id = rt.user_id
		 WHERE rt.token = %s`, d.Placeholder(1)), body.RefreshToken)
	if err != nil {
		return engine.UnauthorizedError("Invalid refresh token")
	}

	expiresAt := store.AsTime(row["expires_at"])
	if expiresAt == nil || time.Now().After(*expiresAt) {
		_, _ = store.Exec(ctx, h.store.DB,
			fmt.Sprintf("DELETE FROM _refresh_tokens WHERE token = %s", d.Placeholder(1)), body.RefreshToken)
		return engine.UnauthorizedError("Refresh token expired")
	}

	if !store.AsBool(row["active"]) {
		return engine.UnauthorizedError("Account is disabled")
	}

	// Rotation: a refresh token is single-use.
	_, _ = store.Exec(ctx, h.store.DB,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE id = %s", d.Placeholder(1)), store.AsString(row["id"]))

	roles, _ := d.ScanArray(row["roles"])
	pair, err := h.generateTokenPair(ctx, sessionUser{
		id:          store.AsString(row["user_id"]),
		roles:       roles,
		workspaceID: store.AsString(row["workspace_id"]),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": pair})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("Refresh token is required")
	}

	_, _ = store.Exec(c.Context(), h.store.DB,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE token = %s", h.store.Dialect.Placeholder(1)), body.RefreshToken)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// RegisterAuthRoutes registers auth routes on the given Fiber app.
func RegisterAuthRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/auth")
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
}

// --- helpers ---

func (h *AuthHandler) findUserByEmail(ctx context.Context, email string) (map[string]any, error) {
	return store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf("SELECT id, email, password_hash, roles, active, workspace_id FROM _users WHERE email = %s",
			h.store.Dialect.Placeholder(1)), email)
}

func (h *AuthHandler) generateTokenPair(ctx context.Context, u sessionUser) (*TokenPair, error) {
	accessToken, err := GenerateAccessToken(u.id, u.roles, u.workspaceID, h.jwtSecret)
	if err != nil {
		return nil, engine.NewAppError("INTERNAL_ERROR", 500, "Failed to generate access token")
	}

	refreshToken := GenerateRefreshToken()
	expiresAt := time.Now().Add(RefreshTokenTTL).UTC()

	pb := h.store.Dialect.NewParamBuilder()
	_, err = store.Exec(ctx, h.store.DB,
		fmt.Sprintf(`INSERT INTO _refresh_tokens (id, user_id, token, expires_at) VALUES (%s, %s, %s, %s)`,
			pb.Add(store.GenerateUUID()), pb.Add(u.id), pb.Add(refreshToken), pb.Add(expiresAt.Format(time.RFC3339))),
		pb.Params()...)
	if err != nil {
		log.WithError(err).WithField("user_id", u.id).Error("store refresh token")
		return nil, engine.NewAppError("INTERNAL_ERROR", 500, "Failed to store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
