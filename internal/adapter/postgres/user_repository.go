package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/moodscope/internal/domain"
)

// userColumns must match the Scan order in scanUser.
const userColumns = `id, subject, email, first_name, last_name, profile_image_url, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row, extra ...any) (*domain.User, error) {
	var u domain.User
	dest := append([]any{
		&u.ID, &u.Subject, &u.Email, &u.FirstName, &u.LastName,
		&u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return u, nil
}

func (r *UserRepo) Upsert(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// xmax is zero only for rows created by this statement.
	var inserted bool
	u, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (subject, email, first_name, last_name, profile_image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = NOW()
		RETURNING `+userColumns+`, (xmax = 0)
	`, profile.Subject, profile.Email, profile.FirstName, profile.LastName, profile.ProfileImageURL), &inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	if inserted {
		if _, err := tx.Exec(ctx, `
			INSERT INTO app_stats (id, total_users, total_analyses, updated_at)
			VALUES (1, 1, 0, NOW())
			ON CONFLICT (id) DO UPDATE SET
				total_users = app_stats.total_users + 1,
				updated_at = NOW()
		`); err != nil {
			return nil, fmt.Errorf("failed to increment user count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return u, nil
}
