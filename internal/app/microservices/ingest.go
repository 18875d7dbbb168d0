package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Temutjin2k/tracker-admin/config"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/handler"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/server"
	mqttadapter "github.com/Temutjin2k/tracker-admin/internal/adapter/mqtt"
	rabbitadapter "github.com/Temutjin2k/tracker-admin/internal/adapter/rabbit"
	sqliteadapter "github.com/Temutjin2k/tracker-admin/internal/adapter/sqlite"
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/internal/service/ingest"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	"github.com/Temutjin2k/tracker-admin/pkg/mqtt"
	"github.com/Temutjin2k/tracker-admin/pkg/rabbit"
	"github.com/Temutjin2k/tracker-admin/pkg/sqlite"
)

// IngestService subscribes to device location topics and fills the cache.
type IngestService struct {
	cacheDB    *sqlite.DB
	rabbitMQ   *rabbit.RabbitMQ
	mqttClient mqtt.Client
	ingest     *ingest.Service
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

func NewIngest(ctx context.Context, cfg config.Config, log logger.Logger) (_ *IngestService, err error) {
	serviceName := string(types.IngestService)
	s := &IngestService{cfg: cfg, log: log}

	defer func() {
		if err != nil {
			s.close(ctx)
		}
	}()

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

	s.rabbitMQ, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to connect to rabbitmq", err)
		return nil, err
	}

	broker, err := rabbitadapter.NewTrackerBroker(ctx, s.rabbitMQ, serviceName, log)
	if err != nil {
		log.Error(ctx, "Failed to setup tracker exchange", err)
		return nil, err
	}

	s.ingest = ingest.NewService(locationStore, broker, serviceName, log)

	checks := map[string]handler.Pinger{
		"cache": handler.PingFunc(s.cacheDB.PingContext),
		"rabbitmq": handler.PingFunc(func(context.Context) error {
			if s.rabbitMQ.IsConnectionClosed() {
				return rabbit.ErrConnectionClosed
			}
			return nil
		}),
		"mqtt": handler.PingFunc(func(context.Context) error {
			if s.mqttClient == nil || !s.mqttClient.IsConnected() {
				return mqtt.ErrNotConnected
			}
			return nil
		}),
	}

	s.httpServer, err = server.New(cfg, &server.Handlers{Health: handler.NewHealth(serviceName, checks, log)}, nil, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return s, nil
}

func (s *IngestService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)

	record := func(ctx context.Context, r models.LocationRecord) error {
		return s.ingest.Record(ctx, r, ingest.SourceMQTT)
	}
	subscriber := mqttadapter.NewSubscriber(ctx, s.cfg.MQTT.Topic, s.cfg.MQTT.QoS, record, string(types.IngestService), s.log)

	client, err := mqtt.Connect(ctx, mqtt.Config{
		Broker:   s.cfg.MQTT.Broker,
		ClientID: s.cfg.MQTT.ClientID,
		Username: s.cfg.MQTT.Username,
		Password: s.cfg.MQTT.Password,
	}, subscriber.Subscribe, s.log)
	if err != nil {
		s.log.Error(ctx, "Failed to connect to mqtt broker", err)
		s.close(ctx)
		return err
	}
	s.mqttClient = client

	s.httpServer.Run(ctx, errCh)
	defer func() {
		cancel()
		s.close(ctx)
		s.log.Info(ctx, "ingest service closed")
	}()

	go s.ingest.RunPruner(ctx, s.cfg.Cache.Retention, s.cfg.Cache.PruneInterval)

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "ingest service started", "topic", s.cfg.MQTT.Topic)

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *IngestService) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if s.mqttClient != nil {
		s.mqttClient.Disconnect(250)
	}

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.rabbitMQ != nil {
		if err := s.rabbitMQ.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.cacheDB != nil {
		if err := s.cacheDB.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close location cache", "error", err.Error())
		}
	}
}
