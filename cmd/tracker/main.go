package main

import (
	"context"
	"errors"
	"os"

	"github.com/Temutjin2k/tracker-admin/config"
	"github.com/Temutjin2k/tracker-admin/internal/app"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

func main() {
	ctx := context.Background()
	log := logger.InitLogger("tracker", logger.LevelDebug)

	cfg, err := config.NewConfig()
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			config.PrintHelp()
			return
		}
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		os.Exit(1)
	}

	if !logger.ValidateLogLevel(cfg.Log.Level) {
		log.Warn(ctx, "unknown log level, using DEBUG", "level", cfg.Log.Level)
	}
	log = logger.InitLogger(string(cfg.Mode), cfg.Log.Level)

	// Printing configuration
	config.PrintConfig(ctx, cfg, log)

	// Creating application
	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	// Running the application
	if err = application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
