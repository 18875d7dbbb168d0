package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/configparser"
)

// Flags
var (
	modeFlag       = flag.String("mode", "", "application mode: admin-service | ingest-service")
	configPathFlag = flag.String("config-path", "", "path to the YAML config file (optional)")
	helpFlag       = flag.Bool("help", false, "show usage")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrHelpRequested   = errors.New("help requested")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode

		Log         LogConfig
		Database    DatabaseConfig
		Redis       RedisConfig
		RabbitMQ    RabbitMQConfig
		MQTT        MQTTConfig
		Cache       CacheConfig
		Webhook     WebhookConfig
		ExternalAPI ExternalAPIConfig
		Services    ServicesConfig
		HTTP        HTTPConfig
		Auth        Auth
		Presence    PresenceConfig
		Ingest      IngestConfig
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" default:"INFO"`
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"tracker_user"`
		Password string `env:"DATABASE_PASSWORD" default:"tracker_pass"`
		Database string `env:"DATABASE_DATABASE" default:"tracker_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RedisConfig struct {
		Enabled  bool   `env:"REDIS_ENABLED" default:"false"`
		Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" default:"0"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	MQTTConfig struct {
		Broker   string `env:"MQTT_BROKER" default:"tcp://localhost:1883"`
		ClientID string `env:"MQTT_CLIENT_ID" default:"tracker-ingest"`
		Username string `env:"MQTT_USERNAME"`
		Password string `env:"MQTT_PASSWORD"`
		Topic    string `env:"MQTT_TOPIC" default:"tracker/+/location"`
		QoS      byte   `env:"MQTT_QOS" default:"1"`
	}

	CacheConfig struct {
		Path          string        `env:"CACHE_PATH" default:"data/locations.db"`
		Retention     time.Duration `env:"CACHE_RETENTION" default:"168h"`
		PruneInterval time.Duration `env:"CACHE_PRUNE_INTERVAL" default:"1h"`
	}

	WebhookConfig struct {
		URL      string        `env:"WEBHOOK_URL"`
		Timeout  time.Duration `env:"WEBHOOK_TIMEOUT" default:"10s"`
		CacheTTL time.Duration `env:"WEBHOOK_CACHE_TTL" default:"5s"`
	}

	ExternalAPIConfig struct {
		LocationIQapiKey string `env:"LOCATIONIQ_API_KEY"`
	}

	ServicesConfig struct {
		AdminService  string `env:"SERVICES_ADMIN_SERVICE" default:"3004"`
		IngestService string `env:"SERVICES_INGEST_SERVICE" default:"3006"`
	}

	HTTPConfig struct {
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
		RateLimit      int      `env:"HTTP_RATE_LIMIT" default:"120"` // requests per minute per IP
	}

	Auth struct {
		AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" default:"168h"`
		JWTSecret       string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	PresenceConfig struct {
		StaleAfter            time.Duration `env:"PRESENCE_STALE_AFTER" default:"10m"`
		DashboardPushInterval time.Duration `env:"DASHBOARD_PUSH_INTERVAL" default:"10s"`
		Source                string        `env:"PRESENCE_SOURCE" default:"cache"` // cache | webhook
	}

	IngestConfig struct {
		Token string `env:"INGEST_TOKEN"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
	)
}

func NewConfig() (*Config, error) {
	flag.Parse()
	if *helpFlag {
		return nil, ErrHelpRequested
	}

	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(*configPathFlag, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

// Load parses the flags and the config file without requiring -mode.
// Tools such as the seeder use it.
func Load() (*Config, error) {
	flag.Parse()
	if *helpFlag {
		return nil, ErrHelpRequested
	}

	cfg := &Config{Mode: types.ServiceMode(*modeFlag)}
	if err := configparser.LoadAndParseYaml(*configPathFlag, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}

func (c DatabaseConfig) PoolLimits() (maxConns, minConns int32, maxLifetime, maxIdle time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c RedisConfig) RedisOptions() (addr, password string, db int) {
	return c.Addr, c.Password, c.DB
}
