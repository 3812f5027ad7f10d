package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/moodscope/internal/domain"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Get(ctx context.Context) (*domain.AppStats, error) {
	var s domain.AppStats
	err := r.pool.QueryRow(ctx, `
		SELECT total_users, total_analyses, updated_at FROM app_stats WHERE id = 1
	`).Scan(&s.TotalUsers, &s.TotalAnalyses, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app stats: %w", err)
	}
	return &s, nil
}
