// Command seed creates the first admin account and the default devices.
// Existing records are left untouched, so it is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/Temutjin2k/tracker-admin/config"
	repo "github.com/Temutjin2k/tracker-admin/internal/adapter/postgres"
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/internal/service/device"
	"github.com/Temutjin2k/tracker-admin/internal/service/user"
	"github.com/Temutjin2k/tracker-admin/migrations"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/postgres"
	"github.com/Temutjin2k/tracker-admin/pkg/trm"
)

var (
	adminUsername = flag.String("admin-username", "admin", "username of the admin account")
	adminPassword = flag.String("admin-password", "", "password of the admin account (at least 8 characters)")
)

var defaultDevices = []models.Device{
	{ID: "10", Name: "Joachim Pixel", Color: "#e74c3c", IsActive: true},
	{ID: "11", Name: "Huawei Smartphone", Color: "#3498db", IsActive: true},
}

func main() {
	log := logger.InitLogger("seed", logger.LevelInfo)
	ctx := wrap.WithAction(context.Background(), "seed")

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			flag.PrintDefaults()
			return
		}
		log.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	if len(*adminPassword) < 8 {
		log.Error(ctx, "admin password must be at least 8 characters", nil)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(ctx, db.Pool); err != nil {
		log.Error(ctx, "failed to apply migrations", err)
		os.Exit(1)
	}

	txManager := trm.New(db.Pool)
	users := user.NewService(repo.NewUserRepo(db.Pool), repo.NewRefreshTokenRepo(db.Pool), txManager, log)
	devices := device.NewService(repo.NewDeviceRepo(db.Pool), nil, log)

	if err := seedAdmin(ctx, users, *adminUsername, *adminPassword, log); err != nil {
		log.Error(ctx, "failed to seed admin user", err)
		os.Exit(1)
	}

	if err := seedDevices(ctx, devices, log); err != nil {
		log.Error(ctx, "failed to seed devices", err)
		os.Exit(1)
	}

	log.Info(ctx, "seed completed")
}

func seedAdmin(ctx context.Context, users *user.Service, username, password string, log logger.Logger) error {
	_, err := users.Create(ctx, models.UserCreateRequest{
		Username: username,
		Password: password,
		Role:     types.RoleAdmin,
	})
	if errors.Is(err, types.ErrUsernameTaken) {
		log.Info(ctx, "admin user already exists", "username", username)
		return nil
	}
	return err
}

func seedDevices(ctx context.Context, devices *device.Service, log logger.Logger) error {
	for _, d := range defaultDevices {
		if _, err := devices.Get(ctx, d.ID); err == nil {
			log.Info(ctx, "device already registered", "device_id", d.ID.String())
			continue
		} else if !errors.Is(err, types.ErrDeviceNotFound) {
			return err
		}

		if _, err := devices.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
