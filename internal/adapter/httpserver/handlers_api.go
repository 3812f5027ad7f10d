package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodscope/internal/domain"
	apperrors "github.com/pscheid92/moodscope/internal/platform/errors"
)

// maxAnalyzeBodyBytes leaves room for JSON escaping of a maximum-length text.
const maxAnalyzeBodyBytes = 64 << 10

func (s *Server) registerAPIRoutes(csrfMiddleware, rateLimiter echo.MiddlewareFunc) {
	s.echo.GET("/api/auth/user", s.handleCurrentUser, s.requireAPIAuth)
	s.echo.POST("/api/analyze-emotion", s.handleAnalyzeEmotion, rateLimiter, s.requireAPIAuth, csrfMiddleware)
	s.echo.GET("/api/user/analyses", s.handleListAnalyses, s.requireAPIAuth)
	s.echo.GET("/api/user/stats", s.handleUserStats, s.requireAPIAuth)
	s.echo.GET("/api/stats", s.handleAppStats)
}

type userResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email,omitempty"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type analysisResponse struct {
	ID             int64              `json:"id"`
	Text           string             `json:"text,omitempty"`
	PrimaryEmotion domain.Emotion     `json:"primaryEmotion"`
	Confidence     float64            `json:"confidence"`
	Emotions       map[string]float64 `json:"emotions"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func toAnalysisResponse(a domain.Analysis) analysisResponse {
	emotions := make(map[string]float64, len(a.Emotions))
	for e, score := range a.Emotions {
		emotions[string(e)] = score
	}
	return analysisResponse{
		ID:             a.ID,
		Text:           a.Text,
		PrimaryEmotion: a.PrimaryEmotion,
		Confidence:     a.Confidence,
		Emotions:       emotions,
		CreatedAt:      a.CreatedAt,
	}
}

type appStatsResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalAnalyses int64 `json:"totalAnalyses"`
}

func contextUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}

func (s *Server) handleCurrentUser(c echo.Context) error {
	user, ok := c.Get("user").(*domain.User)
	if !ok {
		return apperrors.InternalError("invalid user in context", nil)
	}

	resp := userResponse{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// readAnalyzeText extracts the "text" field. A missing, empty or non-string
// value is rejected with the same message. NUL cannot be stored in a Postgres
// text column and is rejected up front.
func (s *Server) readAnalyzeText(c echo.Context) (string, error) {
	body := http.MaxBytesReader(c.Response().Writer, c.Request().Body, maxAnalyzeBodyBytes)

	var req struct {
		Text any `json:"text"`
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", apperrors.TooLargeError("request body too large")
		}
		return "", apperrors.ValidationError("Text is required")
	}

	text, ok := req.Text.(string)
	if !ok || text == "" {
		return "", apperrors.ValidationError("Text is required")
	}

	if strings.ContainsRune(text, 0) {
		return "", apperrors.ValidationError("Text must not contain NUL characters")
	}

	if n := utf8.RuneCountInString(text); n > s.config.MaxTextLength {
		return "", apperrors.ValidationError(fmt.Sprintf("Text must be at most %d characters", s.config.MaxTextLength)).
			WithField("length", n)
	}
	return text, nil
}

func (s *Server) handleAnalyzeEmotion(c echo.Context) error {
	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	text, err := s.readAnalyzeText(c)
	if err != nil {
		return err
	}

	analysis, err := s.app.Analyze(c.Request().Context(), userID, text)
	if err != nil {
		return apperrors.InternalError("Failed to analyze emotion", err)
	}

	resp := toAnalysisResponse(*analysis)
	resp.Text = ""
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListAnalyses(c echo.Context) error {
	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	// Unparseable limits fall back to the default, as zero does.
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	analyses, err := s.app.ListAnalyses(c.Request().Context(), userID, limit)
	if err != nil {
		return apperrors.InternalError("Failed to fetch analyses", err)
	}

	resp := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		resp = append(resp, toAnalysisResponse(a))
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUserStats(c echo.Context) error {
	userID, err := contextUserID(c)
	if err != nil {
		return err
	}

	stats, err := s.app.UserStats(c.Request().Context(), userID)
	if err != nil {
		return apperrors.InternalError("Failed to fetch stats", err)
	}

	if err := c.JSON(http.StatusOK, stats); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAppStats(c echo.Context) error {
	stats, err := s.app.AppStats(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("Failed to fetch stats", err)
	}

	resp := appStatsResponse{TotalUsers: stats.TotalUsers, TotalAnalyses: stats.TotalAnalyses}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
