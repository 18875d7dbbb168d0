package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
)

type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filters models.Filters) ([]models.User, int, error)
	Update(ctx context.Context, u *models.User) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountAdmins(ctx context.Context) (int, error)
}

type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
