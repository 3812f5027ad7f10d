package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodscope/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named dependency probe, e.g. a Postgres or Redis ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessReport struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

type readinessReport struct {
	Status      string `json:"status"`
	FailedCheck string `json:"failed_check,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.probeHandler(startupProbeTimeout))
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.probeHandler(readinessProbeTimeout))
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleStartup(c echo.Context) error {
	return s.probeHandler(startupProbeTimeout)(c)
}

func (s *Server) handleReadiness(c echo.Context) error {
	return s.probeHandler(readinessProbeTimeout)(c)
}

func (s *Server) handleLiveness(c echo.Context) error {
	report := livenessReport{Status: "ok", Uptime: time.Since(s.startTime).Seconds()}
	if err := c.JSON(http.StatusOK, report); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// probeHandler runs the health checks under timeout and answers 503 naming
// the first one that fails.
func (s *Server) probeHandler(timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		status, report := http.StatusOK, s.checkDependencies(ctx)
		if report.FailedCheck != "" {
			status = http.StatusServiceUnavailable
		}
		if err := c.JSON(status, report); err != nil {
			return fmt.Errorf("failed to write health response: %w", err)
		}
		return nil
	}
}

func (s *Server) checkDependencies(ctx context.Context) readinessReport {
	for _, hc := range s.healthChecks {
		start := time.Now()
		if err := hc.Check(ctx); err != nil {
			slog.WarnContext(ctx, "Health check failed", "check", hc.Name, "duration", time.Since(start), "error", err)
			return readinessReport{Status: "unhealthy", FailedCheck: hc.Name, Error: err.Error()}
		}
	}
	return readinessReport{Status: "ready"}
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
