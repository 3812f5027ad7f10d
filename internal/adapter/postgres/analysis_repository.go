package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/moodscope/internal/domain"
)

const analysisColumns = `id, user_id, text, primary_emotion, confidence, emotions, created_at`

type AnalysisRepo struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepo(pool *pgxpool.Pool) *AnalysisRepo {
	return &AnalysisRepo{pool: pool}
}

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := row.Scan(&a.ID, &a.UserID, &a.Text, &a.PrimaryEmotion, &a.Confidence, &a.Emotions, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnalysisRepo) CreateAndCount(ctx context.Context, analysis domain.NewAnalysis) (*domain.Analysis, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	result := analysis.Result
	a, err := scanAnalysis(tx.QueryRow(ctx, `
		INSERT INTO emotion_analyses (user_id, text, primary_emotion, confidence, emotions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+analysisColumns,
		analysis.UserID, analysis.Text, string(result.PrimaryEmotion), result.Confidence, result.Emotions))
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO app_stats (id, total_users, total_analyses, updated_at)
		VALUES (1, 0, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			total_analyses = app_stats.total_analyses + 1,
			updated_at = NOW()
	`); err != nil {
		return nil, fmt.Errorf("failed to increment analysis count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return a, nil
}

func (r *AnalysisRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM emotion_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	analyses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Analysis, error) {
		a, err := scanAnalysis(row)
		if err != nil {
			return domain.Analysis{}, err
		}
		return *a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan analyses: %w", err)
	}
	return analyses, nil
}

func (r *AnalysisRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM emotion_analyses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

func (r *AnalysisRepo) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM emotion_analyses WHERE user_id = $1 AND created_at >= $2
	`, userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent analyses: %w", err)
	}
	return n, nil
}

func (r *AnalysisRepo) EmotionCountsByUser(ctx context.Context, userID uuid.UUID) ([]domain.EmotionCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT primary_emotion, COUNT(*)
		FROM emotion_analyses
		WHERE user_id = $1
		GROUP BY primary_emotion
		ORDER BY COUNT(*) DESC, primary_emotion ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count emotions: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.EmotionCount, error) {
		var c domain.EmotionCount
		err := row.Scan(&c.Emotion, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan emotion counts: %w", err)
	}
	return counts, nil
}
