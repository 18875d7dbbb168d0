// Package app selects the tracker service for the configured mode and runs it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/tracker-admin/config"
	"github.com/Temutjin2k/tracker-admin/internal/app/microservices"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

var (
	ErrInvalidMode           = errors.New("invalid mode")
	ErrServiceNotInitialized = errors.New("service not initialized")
)

type Service interface {
	Start(ctx context.Context) error
}

// constructor connects the dependencies of one service mode.
type constructor func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error)

var constructors = map[types.ServiceMode]constructor{
	types.AdminService: func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error) {
		return microservices.NewAdmin(ctx, cfg, log)
	},
	types.IngestService: func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error) {
		return microservices.NewIngest(ctx, cfg, log)
	},
}

type App struct {
	mode    types.ServiceMode
	service Service
	log     logger.Logger
}

// NewApplication connects the dependencies of the service selected by cfg.Mode.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	build, ok := constructors[cfg.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}

	service, err := build(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s service: %w", cfg.Mode, err)
	}

	return &App{
		mode:    cfg.Mode,
		service: service,
		log:     log,
	}, nil
}

// Run blocks until the service stops.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.service == nil {
		return ErrServiceNotInitialized
	}

	a.log.Info(ctx, "starting service", "mode", a.mode)
	return a.service.Start(ctx)
}
