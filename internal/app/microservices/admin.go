package microservices

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/tracker-admin/config"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/handler"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/tracker-admin/internal/adapter/http/ws"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/locationIQ"
	repo "github.com/Temutjin2k/tracker-admin/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/tracker-admin/internal/adapter/rabbit"
	sqliteadapter "github.com/Temutjin2k/tracker-admin/internal/adapter/sqlite"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/webhook"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/internal/service/admin"
	"github.com/Temutjin2k/tracker-admin/internal/service/auth"
	"github.com/Temutjin2k/tracker-admin/internal/service/device"
	"github.com/Temutjin2k/tracker-admin/internal/service/ingest"
	"github.com/Temutjin2k/tracker-admin/internal/service/user"
	"github.com/Temutjin2k/tracker-admin/migrations"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/postgres"
	"github.com/Temutjin2k/tracker-admin/pkg/rabbit"
	"github.com/Temutjin2k/tracker-admin/pkg/redis"
	"github.com/Temutjin2k/tracker-admin/pkg/sqlite"
	"github.com/Temutjin2k/tracker-admin/pkg/trm"
	ws "github.com/Temutjin2k/tracker-admin/pkg/wsHub"
)

type AdminService struct {
	postgresDB *postgres.PostgreDB
	cacheDB    *sqlite.DB
	redis      *goredis.Client
	rabbitMQ   *rabbit.RabbitMQ
	broker     *rabbitadapter.TrackerBroker
	httpServer *server.API
	hub        *ws.ConnectionHub
	stream     *wshandler.DashboardStream

	cfg config.Config
	log logger.Logger
}

func NewAdmin(ctx context.Context, cfg config.Config, log logger.Logger) (_ *AdminService, err error) {
	serviceName := string(types.AdminService)
	s := &AdminService{cfg: cfg, log: log}

	// release whatever was opened when a later step fails
	defer func() {
		if err != nil {
			s.close(ctx)
		}
	}()

	s.postgresDB, err = postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	if err = migrations.Up(ctx, s.postgresDB.Pool); err != nil {
		log.Error(ctx, "Failed to apply migrations", err)
		return nil, err
	}

	s.cacheDB, err = sqlite.Open(ctx, cfg.Cache.Path)
	if err != nil {
		log.Error(ctx, "Failed to open location cache", err)
		return nil, err
	}

	locationStore, err := sqliteadapter.NewLocationStore(ctx, s.cacheDB)
	if err != nil {
		log.Error(ctx, "Failed to prepare location cache", err)
		return nil, err
	}

	if cfg.Redis.Enabled {
		s.redis, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error(ctx, "Failed to connect to redis", err)
			return nil, err
		}
	}

	s.rabbitMQ, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to connect to rabbitmq", err)
		return nil, err
	}

	s.broker, err = rabbitadapter.NewTrackerBroker(ctx, s.rabbitMQ, serviceName, log)
	if err != nil {
		log.Error(ctx, "Failed to setup tracker exchange", err)
		return nil, err
	}

	// Repositories
	txManager := trm.New(s.postgresDB.Pool)
	deviceRepo := repo.NewDeviceRepo(s.postgresDB.Pool)
	userRepo := repo.NewUserRepo(s.postgresDB.Pool)
	refreshRepo := repo.NewRefreshTokenRepo(s.postgresDB.Pool)

	// Location source
	var source admin.LocationSource = locationStore
	if types.LocationSourceKind(cfg.Presence.Source) == types.SourceWebhook {
		if cfg.Webhook.URL == "" {
			return nil, fmt.Errorf("%s source requires WEBHOOK_URL", types.SourceWebhook)
		}
		var cache webhook.Cache
		if s.redis != nil {
			cache = s.redis
		}
		source = webhook.New(webhook.Config{
			URL:      cfg.Webhook.URL,
			Timeout:  cfg.Webhook.Timeout,
			CacheTTL: cfg.Webhook.CacheTTL,
		}, cache, serviceName, log)
	}

	var geocoder admin.Geocoder
	if cfg.ExternalAPI.LocationIQapiKey != "" {
		var cache locationIQ.Cache
		if s.redis != nil {
			cache = s.redis
		}
		geocoder = locationIQ.New(cfg.ExternalAPI.LocationIQapiKey, cache)
	}

	// Services
	tokenService := auth.NewTokenService(cfg.Auth.JWTSecret, refreshRepo, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	authService := auth.NewAuthService(userRepo, refreshRepo, tokenService, txManager, log)
	userService := user.NewService(userRepo, refreshRepo, txManager, log)
	deviceService := device.NewService(deviceRepo, s.broker, log)
	ingestService := ingest.NewService(locationStore, s.broker, serviceName, log)
	viewService := admin.NewService(source, deviceRepo, geocoder, cfg.Presence.StaleAfter, serviceName, log)

	s.hub = ws.NewConnHub(serviceName, log)
	s.stream = wshandler.NewDashboardStream(s.hub, authService, viewService, cfg.Presence.DashboardPushInterval, cfg.HTTP.AllowedOrigins, log)

	checks := map[string]handler.Pinger{
		"postgres": s.postgresDB.Pool,
		"cache":    handler.PingFunc(s.cacheDB.PingContext),
		"rabbitmq": handler.PingFunc(func(context.Context) error {
			if s.rabbitMQ.IsConnectionClosed() {
				return rabbit.ErrConnectionClosed
			}
			return nil
		}),
	}
	if s.redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return s.redis.Ping(ctx).Err() })
	}

	routes := &server.Handlers{
		Health:    handler.NewHealth(serviceName, checks, log),
		Auth:      handler.NewAuth(authService, log),
		Users:     handler.NewUsers(userService, log),
		Devices:   handler.NewDevices(deviceService, viewService, log),
		Locations: handler.NewLocations(viewService, ingestService, ingest.SourceHTTP, log),
		Dashboard: handler.NewDashboard(viewService, log),
		Stream:    s.stream,
	}

	s.httpServer, err = server.New(cfg, routes, authService, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return s, nil
}

func (s *AdminService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		cancel()
		s.close(ctx)
		s.log.Info(ctx, "admin service closed")
	}()

	go s.stream.Run(ctx)

	go func() {
		consumerCtx := wrap.WithAction(ctx, "dashboard_event_consumer")
		if err := s.broker.ConsumeEvents(consumerCtx, rabbitadapter.QueueDashboardEvents, rabbitadapter.BindingAllEvents, s.stream.HandleEvent); err != nil {
			s.log.Error(consumerCtx, "tracker event consumer stopped", err)
		}
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "admin service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *AdminService) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.hub != nil {
		s.hub.Close()
	}

	if s.rabbitMQ != nil {
		if err := s.rabbitMQ.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close redis client", "error", err.Error())
		}
	}

	if s.cacheDB != nil {
		if err := s.cacheDB.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close location cache", "error", err.Error())
		}
	}

	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Pool.Close()
	}
}
