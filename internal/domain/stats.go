package domain

import (
	"context"
	"time"
)

// UserStats summarizes a single user's analyses.
type UserStats struct {
	TotalAnalyses     int     `json:"totalAnalyses"`
	MostCommonEmotion Emotion `json:"mostCommonEmotion"`
	WeeklyCount       int     `json:"weeklyCount"`
}

// AppStats holds the application-wide usage counters.
type AppStats struct {
	TotalUsers    int64     `json:"totalUsers"`
	TotalAnalyses int64     `json:"totalAnalyses"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type StatsRepository interface {
	// Get returns ErrStatsNotFound when no counters have been written yet.
	Get(ctx context.Context) (*AppStats, error)
}

// StatsCache is a best-effort cache in front of StatsRepository.
type StatsCache interface {
	Get(ctx context.Context) (*AppStats, bool)
	Set(ctx context.Context, stats AppStats)
	Invalidate(ctx context.Context) error
}
