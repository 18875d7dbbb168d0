package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/hasher"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

const issuer = "tracker-admin"

type TokenService struct {
	refreshRepo RefreshTokenRepo
	accessTTL   time.Duration
	refreshTTL  time.Duration
	secret      []byte
	now         func() time.Time
}

func NewTokenService(secret string, refreshRepo RefreshTokenRepo, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		refreshRepo: refreshRepo,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		secret:      []byte(secret),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a new access/refresh pair for user and stores the hash of the
// refresh token. Call it inside a transaction when it replaces another token.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "TokenService.Issue"
	if user == nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: user is nil", op))
	}

	issuedAt := s.now()
	accessExp := issuedAt.Add(s.accessTTL)
	refreshExp := issuedAt.Add(s.refreshTTL)
	refreshID := uuid.New()

	access, err := s.sign(s.claims(user, uuid.New(), issuedAt, accessExp, false))
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: sign access: %w", op, err))
	}

	refresh, err := s.sign(s.claims(user, refreshID, issuedAt, refreshExp, true))
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: sign refresh: %w", op, err))
	}

	record := models.RefreshToken{
		ID:        refreshID,
		UserID:    user.ID,
		TokenHash: hasher.Hash(refresh),
		ExpiresAt: refreshExp,
		CreatedAt: issuedAt,
	}
	if err := s.refreshRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: persist refresh token: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Parse verifies the signature and expiry of token and returns its claims.
func (s *TokenService) Parse(token string) (*models.CustomClaims, error) {
	claims := &models.CustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.ErrExpiredToken
		}
		return nil, types.ErrInvalidToken
	}
	if !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, types.ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) claims(user *models.User, id uuid.UUID, issuedAt, expiresAt time.Time, refresh bool) *models.CustomClaims {
	c := &models.CustomClaims{
		UserID:    user.ID,
		IsRefresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Issuer:    issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if !refresh {
		c.Username = user.Username
		c.Role = user.Role
	}
	return c
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
