package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodscope/internal/app"
	"github.com/pscheid92/moodscope/internal/domain"
	apperrors "github.com/pscheid92/moodscope/internal/platform/errors"
)

func (s *Server) registerPageRoutes(csrfMiddleware echo.MiddlewareFunc) {
	s.echo.GET("/", s.handleLanding, csrfMiddleware)
	s.echo.GET("/about", s.handleAbout, csrfMiddleware)
	s.echo.GET("/dashboard", s.handleDashboard, s.requireAuth, csrfMiddleware)
}

type landingView struct {
	Authenticated bool
	CSRFToken     string
	TotalUsers    int64
	TotalAnalyses int64
	Emotions      []domain.Emotion
}

type aboutView struct {
	Authenticated bool
	CSRFToken     string
	Emotions      []domain.Emotion
}

type analysisView struct {
	Text           string
	PrimaryEmotion domain.Emotion
	Confidence     float64
	Secondary      []domain.EmotionScore
	CreatedAt      time.Time
}

type dashboardView struct {
	User          *domain.User
	Stats         *domain.UserStats
	Analyses      []analysisView
	CSRFToken     string
	MaxTextLength int
}

func (s *Server) handleLanding(c echo.Context) error {
	if s.isAuthenticated(c) {
		if err := c.Redirect(http.StatusFound, "/dashboard"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	view := landingView{CSRFToken: csrfToken(c), Emotions: domain.Emotions}

	// The landing page renders without counters rather than failing.
	stats, err := s.app.AppStats(c.Request().Context())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to load public stats", "error", err)
	} else {
		view.TotalUsers = stats.TotalUsers
		view.TotalAnalyses = stats.TotalAnalyses
	}

	return s.renderTemplate(c, "landing.html", view)
}

func (s *Server) handleAbout(c echo.Context) error {
	view := aboutView{
		Authenticated: s.isAuthenticated(c),
		CSRFToken:     csrfToken(c),
		Emotions:      domain.Emotions,
	}
	return s.renderTemplate(c, "about.html", view)
}

func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := c.Get("user").(*domain.User)
	if !ok {
		return apperrors.InternalError("invalid user in context", nil)
	}

	analyses, err := s.app.ListAnalyses(ctx, user.ID, app.DefaultHistoryLimit)
	if err != nil {
		return apperrors.InternalError("failed to load analyses", err).WithField("user_id", user.ID.String())
	}

	stats, err := s.app.UserStats(ctx, user.ID)
	if err != nil {
		return apperrors.InternalError("failed to load user stats", err).WithField("user_id", user.ID.String())
	}

	views := make([]analysisView, 0, len(analyses))
	for _, a := range analyses {
		result := domain.EmotionResult{PrimaryEmotion: a.PrimaryEmotion, Confidence: a.Confidence, Emotions: a.Emotions}
		views = append(views, analysisView{
			Text:           a.Text,
			PrimaryEmotion: a.PrimaryEmotion,
			Confidence:     a.Confidence,
			Secondary:      result.Secondary(),
			CreatedAt:      a.CreatedAt,
		})
	}

	view := dashboardView{
		User:          user,
		Stats:         stats,
		Analyses:      views,
		CSRFToken:     csrfToken(c),
		MaxTextLength: s.config.MaxTextLength,
	}
	return s.renderTemplate(c, "dashboard.html", view)
}
