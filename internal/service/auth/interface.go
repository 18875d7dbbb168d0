package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
)

type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type RefreshTokenRepo interface {
	Save(ctx context.Context, t models.RefreshToken) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (models.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
