package middleware

import (
	"context"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

type (
	AuthService interface {
		Authorize(ctx context.Context, accessToken string) (*models.CustomClaims, error)
	}

	Middleware struct {
		auth        AuthService
		serviceName string
		log         logger.Logger
	}
)

func NewMiddleware(auth AuthService, serviceName string, log logger.Logger) *Middleware {
	return &Middleware{
		auth:        auth,
		serviceName: serviceName,
		log:         log,
	}
}
