package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodscope/internal/domain"
	apperrors "github.com/pscheid92/moodscope/internal/platform/errors"
)

const oauthTimeout = 10 * time.Second

func (s *Server) registerAuthRoutes(csrfMiddleware, rateLimiter echo.MiddlewareFunc) {
	s.echo.GET("/auth/login", s.handleLogin, rateLimiter)
	s.echo.GET("/auth/callback", s.handleOAuthCallback, rateLimiter)
	s.echo.POST("/auth/logout", s.handleLogout, rateLimiter, s.requireAuth, csrfMiddleware)
}

// sessionUser resolves the session's user. A session that points at a user
// that no longer exists is expired on the response. Lookup failures are
// returned so that a database outage does not log everyone out.
func (s *Server) sessionUser(c echo.Context) (*domain.User, error) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return nil, nil
	}

	userIDStr, ok := session.Values[sessionKeyToken].(string)
	if !ok {
		return nil, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, nil
	}

	user, err := s.app.GetUser(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		slog.WarnContext(c.Request().Context(), "Session references unknown user, invalidating", "user_id", userID)
		session.Options.MaxAge = -1
		_ = session.Save(c.Request(), c.Response().Writer)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to load session user", err).WithField("user_id", userID.String())
	}
	return user, nil
}

// requireAuth guards pages; anonymous visitors are sent to the login flow.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := s.sessionUser(c)
		if err != nil {
			return err
		}
		if user == nil {
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		c.Set("userID", user.ID)
		c.Set("user", user)
		return next(c)
	}
}

// requireAPIAuth guards JSON endpoints and answers 401 instead of redirecting.
func (s *Server) requireAPIAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := s.sessionUser(c)
		if err != nil {
			return err
		}
		if user == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		c.Set("userID", user.ID)
		c.Set("user", user)
		return next(c)
	}
}

// isAuthenticated is for public pages, which render anonymously when the
// user lookup fails.
func (s *Server) isAuthenticated(c echo.Context) bool {
	user, err := s.sessionUser(c)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to resolve session user", "error", err)
		return false
	}
	return user != nil
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) handleLogin(c echo.Context) error {
	if s.isAuthenticated(c) {
		if err := c.Redirect(http.StatusFound, "/dashboard"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	state, err := generateOAuthState()
	if err != nil {
		return apperrors.InternalError("failed to generate OAuth state", err)
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "Discarding unreadable session before login", "error", err)
	}

	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save OAuth state session", err)
	}

	if err := c.Redirect(http.StatusFound, s.oauthClient.AuthCodeURL(state)); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleOAuthCallback(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		return apperrors.ValidationError("authorization was not granted").WithField("provider_error", providerErr)
	}

	code := c.QueryParam("code")
	if code == "" {
		return apperrors.ValidationError("missing code parameter")
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperrors.ValidationError("invalid session")
	}

	expectedState, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" {
		return apperrors.ValidationError("missing OAuth state")
	}
	if c.QueryParam("state") != expectedState {
		return apperrors.ValidationError("invalid OAuth state")
	}
	delete(session.Values, sessionKeyOAuthState)

	ctx, cancel := context.WithTimeout(c.Request().Context(), oauthTimeout)
	defer cancel()

	profile, err := s.oauthClient.Authenticate(ctx, code)
	if err != nil {
		return apperrors.ExternalError("failed to authenticate with identity provider", err)
	}

	user, err := s.app.UpsertUser(ctx, *profile)
	if err != nil {
		return apperrors.InternalError("failed to save user", err).WithField("subject", profile.Subject)
	}

	if err := s.startSession(c, session, user.ID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "subject", user.Subject)

	if err := c.Redirect(http.StatusFound, "/dashboard"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

// startSession expires the pre-login session and issues a fresh one, so a
// session ID fixated before login never becomes authenticated.
func (s *Server) startSession(c echo.Context, old *sessions.Session, userID uuid.UUID) error {
	old.Options.MaxAge = -1
	if err := old.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to invalidate old session", err)
	}

	session := s.newSession()
	session.Values[sessionKeyToken] = userID.String()
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}
	return nil
}

// newSession builds an empty session. CookieStore.New would decode the
// request's cookie and carry its values over.
func (s *Server) newSession() *sessions.Session {
	session := sessions.NewSession(s.sessionStore, sessionName)
	opts := *s.sessionStore.Options
	session.Options = &opts
	session.IsNew = true
	return session
}

func (s *Server) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := c.Get("userID").(uuid.UUID)

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		session = s.newSession()
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save logout session", err)
	}

	slog.InfoContext(ctx, "User logged out", "user_id", userID)

	if err := c.Redirect(http.StatusFound, "/"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
