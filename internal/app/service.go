package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/moodscope/internal/domain"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100

	// weeklyWindow is the look-back for UserStats.WeeklyCount.
	weeklyWindow = 7 * 24 * time.Hour

	appStatsFlightKey = "app_stats"
)

// AnalysisObserver receives one call per stored analysis and one per failed
// attempt.
type AnalysisObserver interface {
	ObserveAnalysis(emotion string, confidence float64, runes int)
	ObserveFailure(stage string)
}

type noopObserver struct{}

func (noopObserver) ObserveAnalysis(string, float64, int) {}
func (noopObserver) ObserveFailure(string)                {}

// Service orchestrates the use cases and is the only component that references
// multiple domain repositories.
type Service struct {
	users    domain.UserRepository
	analyses domain.AnalysisRepository
	stats    domain.StatsRepository
	cache    domain.StatsCache
	scorer   domain.EmotionScorer
	observer AnalysisObserver
	clock    clockwork.Clock

	statsGroup singleflight.Group
}

// NewService wires the service. observer may be nil.
func NewService(users domain.UserRepository, analyses domain.AnalysisRepository, stats domain.StatsRepository, cache domain.StatsCache, scorer domain.EmotionScorer, observer AnalysisObserver, clock clockwork.Clock) *Service {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		users:    users,
		analyses: analyses,
		stats:    stats,
		cache:    cache,
		scorer:   scorer,
		observer: observer,
		clock:    clock,
	}
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpsertUser records a login. A first login bumps the public user counter, so
// the cached snapshot is dropped.
func (s *Service) UpsertUser(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	user, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return user, nil
}

// Analyze scores text, stores the result for userID and returns the stored row.
// Input validation is the caller's job; any string is scoreable.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, text string) (*domain.Analysis, error) {
	result := s.scorer.Score(text)

	analysis, err := s.analyses.CreateAndCount(ctx, domain.NewAnalysis{
		UserID: userID,
		Text:   text,
		Result: result,
	})
	if err != nil {
		s.observer.ObserveFailure("store")
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}

	s.invalidateStats(ctx)
	s.observer.ObserveAnalysis(string(result.PrimaryEmotion), result.Confidence, utf8.RuneCountInString(text))

	slog.DebugContext(ctx, "Analysis stored",
		"analysis_id", analysis.ID,
		"user_id", userID,
		"primary_emotion", result.PrimaryEmotion,
		"confidence", result.Confidence,
	)
	return analysis, nil
}

// NormalizeLimit maps a requested page size onto [1, MaxHistoryLimit]; zero and
// negative values select DefaultHistoryLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// ListAnalyses returns the user's most recent analyses, newest first.
func (s *Service) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error) {
	analyses, err := s.analyses.ListByUser(ctx, userID, NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	if analyses == nil {
		analyses = []domain.Analysis{}
	}
	return analyses, nil
}

func (s *Service) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	total, err := s.analyses.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.analyses.EmotionCountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	weekly, err := s.analyses.CountByUserSince(ctx, userID, s.clock.Now().Add(-weeklyWindow))
	if err != nil {
		return nil, err
	}

	return &domain.UserStats{
		TotalAnalyses:     total,
		MostCommonEmotion: mostCommon(counts),
		WeeklyCount:       weekly,
	}, nil
}

// mostCommon picks the emotion with the highest count, breaking ties
// alphabetically. Users without analyses get neutral.
func mostCommon(counts []domain.EmotionCount) domain.Emotion {
	var best *domain.EmotionCount
	for i := range counts {
		c := &counts[i]
		if c.Count <= 0 {
			continue
		}
		if best == nil || c.Count > best.Count || (c.Count == best.Count && cmp.Less(c.Emotion, best.Emotion)) {
			best = c
		}
	}
	if best == nil {
		return domain.EmotionNeutral
	}
	return best.Emotion
}

// AppStats returns the public counters through the cache. Concurrent misses
// share one database read.
func (s *Service) AppStats(ctx context.Context) (*domain.AppStats, error) {
	if stats, ok := s.cache.Get(ctx); ok {
		return stats, nil
	}

	v, err, _ := s.statsGroup.Do(appStatsFlightKey, func() (any, error) {
		stats, err := s.stats.Get(ctx)
		if errors.Is(err, domain.ErrStatsNotFound) {
			stats = &domain.AppStats{UpdatedAt: s.clock.Now()}
		} else if err != nil {
			return nil, err
		}

		s.cache.Set(ctx, *stats)
		return stats, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load app stats: %w", err)
	}

	stats := *v.(*domain.AppStats)
	return &stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate stats cache", "error", err)
	}
}
