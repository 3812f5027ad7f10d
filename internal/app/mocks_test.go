package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pscheid92/moodscope/internal/domain"
)

type mockUserRepo struct {
	getByIDFn func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	upsertFn  func(ctx context.Context, profile domain.UserProfile) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Upsert(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, profile)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockAnalysisRepo struct {
	createAndCountFn      func(ctx context.Context, analysis domain.NewAnalysis) (*domain.Analysis, error)
	listByUserFn          func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error)
	countByUserFn         func(ctx context.Context, userID uuid.UUID) (int, error)
	countByUserSinceFn    func(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	emotionCountsByUserFn func(ctx context.Context, userID uuid.UUID) ([]domain.EmotionCount, error)
}

func (m *mockAnalysisRepo) CreateAndCount(ctx context.Context, analysis domain.NewAnalysis) (*domain.Analysis, error) {
	if m.createAndCountFn != nil {
		return m.createAndCountFn(ctx, analysis)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAnalysisRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockAnalysisRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.countByUserFn != nil {
		return m.countByUserFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockAnalysisRepo) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	if m.countByUserSinceFn != nil {
		return m.countByUserSinceFn(ctx, userID, since)
	}
	return 0, nil
}

func (m *mockAnalysisRepo) EmotionCountsByUser(ctx context.Context, userID uuid.UUID) ([]domain.EmotionCount, error) {
	if m.emotionCountsByUserFn != nil {
		return m.emotionCountsByUserFn(ctx, userID)
	}
	return nil, nil
}

type mockStatsRepo struct {
	getFn func(ctx context.Context) (*domain.AppStats, error)
}

func (m *mockStatsRepo) Get(ctx context.Context) (*domain.AppStats, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return nil, domain.ErrStatsNotFound
}

// fakeStatsCache is an in-memory StatsCache that records its calls.
type fakeStatsCache struct {
	mu            sync.Mutex
	stats         *domain.AppStats
	gets          int
	sets          int
	invalidations int
	invalidateErr error
	onGet         func()
}

func (c *fakeStatsCache) Get(context.Context) (*domain.AppStats, bool) {
	c.mu.Lock()
	c.gets++
	stats := c.stats
	onGet := c.onGet
	c.mu.Unlock()

	if onGet != nil {
		onGet()
	}
	if stats == nil {
		return nil, false
	}
	cp := *stats
	return &cp, true
}

func (c *fakeStatsCache) Set(_ context.Context, stats domain.AppStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.stats = &stats
}

func (c *fakeStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.stats = nil
	return c.invalidateErr
}

type stubScorer struct {
	result domain.EmotionResult
	texts  []string
}

func (s *stubScorer) Score(text string) domain.EmotionResult {
	s.texts = append(s.texts, text)
	return s.result
}

type recordingObserver struct {
	emotions    []string
	confidences []float64
	runes       []int
	failures    []string
}

func (o *recordingObserver) ObserveAnalysis(emotion string, confidence float64, runes int) {
	o.emotions = append(o.emotions, emotion)
	o.confidences = append(o.confidences, confidence)
	o.runes = append(o.runes, runes)
}

func (o *recordingObserver) ObserveFailure(stage string) {
	o.failures = append(o.failures, stage)
}
