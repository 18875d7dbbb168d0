package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

type RefreshTokenRepo struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepo(db *pgxpool.Pool) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

func (r *RefreshTokenRepo) Save(ctx context.Context, t models.RefreshToken) error {
	const op = "RefreshTokenRepo.Save"
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// GetForUpdate locks the token row until the surrounding transaction ends.
func (r *RefreshTokenRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (models.RefreshToken, error) {
	const op = "RefreshTokenRepo.GetForUpdate"
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE`

	var t models.RefreshToken
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.RevokedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, types.ErrInvalidToken
		}
		return models.RefreshToken{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return t, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	const op = "RefreshTokenRepo.Revoke"
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, id); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// RevokeAllForUser revokes every live token of a user.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	const op = "RefreshTokenRepo.RevokeAllForUser"
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, userID); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}
