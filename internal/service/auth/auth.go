package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/hasher"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/passhash"
)

type AuthService struct {
	userRepo    UserRepo
	refreshRepo RefreshTokenRepo
	tokens      *TokenService
	txManager   TxManager
	log         logger.Logger
}

func NewAuthService(userRepo UserRepo, refreshRepo RefreshTokenRepo, tokens *TokenService, txManager TxManager, log logger.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		tokens:      tokens,
		txManager:   txManager,
		log:         log,
	}
}

// Login checks the credentials of an active user and issues a token pair.
// Unknown users and wrong passwords are both ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "login")

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, types.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := passhash.VerifyPassword(password, user.GetPassword())
	if err != nil {
		s.log.Error(ctx, "stored password hash is unreadable", err, "username", user.Username)
		return nil, types.ErrInvalidCredentials
	}
	if !ok {
		return nil, types.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn(ctx, "failed to record last login", "error", err.Error())
	}

	s.log.Info(wrap.WithUserID(ctx, user.ID.String()), "user logged in")
	return pair, nil
}

// Refresh exchanges a live refresh token for a new pair. Each refresh token
// works once: it is revoked in the same transaction that stores its successor.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "refresh_token")

	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh {
		return nil, types.ErrInvalidToken
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, types.ErrInvalidToken
	}

	var pair *models.TokenPair
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		record, err := s.refreshRepo.GetForUpdate(ctx, tokenID)
		if err != nil {
			return err
		}
		if record.RevokedAt != nil || !hasher.Equal(refreshToken, record.TokenHash) {
			return types.ErrInvalidToken
		}
		if s.tokens.now().After(record.ExpiresAt) {
			return types.ErrExpiredToken
		}

		if err := s.refreshRepo.Revoke(ctx, record.ID); err != nil {
			return err
		}

		user, err := s.userRepo.GetByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, types.ErrUserNotFound) {
				return types.ErrInvalidToken
			}
			return err
		}

		pair, err = s.tokens.Issue(ctx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return pair, nil
}

// Authorize validates an access token and returns its claims.
func (s *AuthService) Authorize(ctx context.Context, accessToken string) (*models.CustomClaims, error) {
	claims, err := s.tokens.Parse(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh || !claims.Role.Valid() {
		return nil, types.ErrInvalidToken
	}
	return claims, nil
}

// Me returns the active user behind the token.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
