package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Analysis is a persisted emotion scoring result.
type Analysis struct {
	ID             int64
	UserID         uuid.UUID
	Text           string
	PrimaryEmotion Emotion
	Confidence     float64
	Emotions       Scores
	CreatedAt      time.Time
}

// NewAnalysis is the insert payload for an analysis.
type NewAnalysis struct {
	UserID uuid.UUID
	Text   string
	Result EmotionResult
}

type AnalysisRepository interface {
	// CreateAndCount stores the analysis and increments the global analysis
	// counter atomically.
	CreateAndCount(ctx context.Context, analysis NewAnalysis) (*Analysis, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Analysis, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	// EmotionCountsByUser returns primary-emotion counts, highest count first.
	EmotionCountsByUser(ctx context.Context, userID uuid.UUID) ([]EmotionCount, error)
}

type EmotionCount struct {
	Emotion Emotion
	Count   int
}
