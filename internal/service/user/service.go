// Package user manages admin panel accounts.
package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/passhash"
)

type Service struct {
	repo      UserRepo
	tokens    TokenRevoker
	txManager TxManager
	hash      func(string) (string, error)
	log       logger.Logger
}

func NewService(repo UserRepo, tokens TokenRevoker, txManager TxManager, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		txManager: txManager,
		hash:      passhash.HashPassword,
		log:       log,
	}
}

// Create stores a new account. Role defaults to VIEWER.
func (s *Service) Create(ctx context.Context, req models.UserCreateRequest) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "user_create")

	if req.Role == "" {
		req.Role = types.RoleViewer
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	u := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	}
	u.SetPassword(hash)

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info(wrap.WithUserID(ctx, u.ID.String()), "user created", "username", u.Username, "role", u.Role.String())
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filters models.Filters) (*models.UserPage, error) {
	users, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &models.UserPage{
		Users:    users,
		Metadata: models.NewMetadata(total, filters),
	}, nil
}

// Update applies patch. An empty patch returns the user unchanged. Changing
// the password revokes the refresh tokens of the user.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "user_update"), id.String())

	var u *models.User
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}

		if patch.Role != nil && u.Role == types.RoleAdmin && *patch.Role != types.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx); err != nil {
				return err
			}
		}

		if patch.Username != nil {
			u.Username = *patch.Username
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.Role != nil {
			u.Role = *patch.Role
		}
		if patch.Password != nil {
			hash, err := s.hash(*patch.Password)
			if err != nil {
				return err
			}
			u.SetPassword(hash)
		}

		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}

		if patch.Password != nil {
			return s.tokens.RevokeAllForUser(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Delete soft-deletes the user and revokes its refresh tokens.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = wrap.WithUserID(wrap.WithAction(ctx, "user_delete"), id.String())

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Role == types.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx); err != nil {
				return err
			}
		}
		if err := s.repo.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUser(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "user deleted")
	return nil
}

func (s *Service) ensureOtherAdmin(ctx context.Context) error {
	n, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return types.ErrLastAdmin
	}
	return nil
}
