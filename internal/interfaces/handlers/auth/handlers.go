package auth

import (
	"errors"

	authsvc "liyantis-backend/internal/application/auth"
	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/middleware"
	"liyantis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service    *authsvc.Service
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Register POST /api/v1/auth/register: create the agent and start a session.
func (h *Handlers) Register(c *fiber.Ctx) error {
	if h.Service == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var in authsvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.Register(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidName),
			errors.Is(err, authsvc.ErrInvalidEmailFormat),
			errors.Is(err, authsvc.ErrInvalidPasswordFormat):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrEmailTaken):
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		default:
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("register failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	token, err := h.startSession(c, user)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Registration successful", fiber.Map{
		"token": token,
		"user":  authsvc.Shape(user),
	}, nil)
}

// Login POST /api/v1/auth/login: authenticate, create session, track it under user_sessions:<id>.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	token, err := h.startSession(c, user)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{
		"token": token,
		"user":  authsvc.Shape(user),
	}, nil)
}

// startSession drops any session the request arrived with, issues a fresh id,
// stores the user and sets the cookie. The id doubles as the bearer token for
// non-browser clients.
func (h *Handlers) startSession(c *fiber.Ctx, user *domain.User) (string, error) {
	h.dropCurrentSession(c)
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:    user.UserID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})

	if err := h.Rdb.SAdd(c.UserContext(), middleware.UserSessionsPrefix+user.UserID.String(), sessionID).Err(); err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("session tracking failed")
		return "", err
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return sessionID, nil
}

// dropCurrentSession removes the request's existing session from Redis and from
// its owner's user_sessions set so a replaced token cannot be replayed.
func (h *Handlers) dropCurrentSession(c *fiber.Ctx) {
	old := middleware.GetSessionID(c)
	if old == "" {
		return
	}
	ctx := c.UserContext()
	if prev, err := authsvc.VerifyUser(middleware.GetUser(c)); err == nil {
		if err := h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+prev.UserID, old).Err(); err != nil {
			log.Warn().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("old session untracking failed")
		}
	}
	if err := h.Rdb.Del(ctx, middleware.SessionRedisPrefix+old).Err(); err != nil {
		log.Warn().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("old session removal failed")
	}
	middleware.DestroySession(c)
}

// Me GET /api/v1/auth/me: return current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		log.Info().Str("path", "/auth/me").
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Bool("session_user_nil", sessionUser == nil).
			Msg("auth/me: not authenticated")
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{
		"token": middleware.GetSessionID(c),
		"user":  user,
	}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()

	if sessionID != "" {
		if user, err := authsvc.VerifyUser(middleware.GetUser(c)); err == nil {
			_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+user.UserID, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: end every session of the current agent, on every device.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	n, err := authsvc.DestroyUserSessions(c.UserContext(), h.Rdb, user.UserID)
	if err != nil {
		return err
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out of all sessions", nil, fiber.Map{"sessions": n})
}
