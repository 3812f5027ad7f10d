package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodscope/internal/adapter/metrics"
	"github.com/pscheid92/moodscope/internal/domain"
	"github.com/pscheid92/moodscope/internal/platform/config"
	"github.com/pscheid92/moodscope/web"
)

type appService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpsertUser(ctx context.Context, profile domain.UserProfile) (*domain.User, error)
	Analyze(ctx context.Context, userID uuid.UUID, text string) (*domain.Analysis, error)
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error)
	UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	AppStats(ctx context.Context) (*domain.AppStats, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	templates *template.Template

	oauthClient    oauthClient
	sessionStore   *sessions.CookieStore
	healthChecks   []HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	startTime      time.Time
}

func NewServer(cfg *config.Config, app appService, httpMetrics *metrics.HTTPMetrics, metricsHandler http.Handler, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		oauthClient:    newOAuthClient(cfg),
		sessionStore:   setupSessionStore(cfg),
		templates:      templates,
		healthChecks:   healthChecks,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName          = "moodscope-session"
	sessionKeyToken      = "token"
	sessionKeyOAuthState = "oauth_state"
)

var templateFuncs = template.FuncMap{
	"percent": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v*100)
	},
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
