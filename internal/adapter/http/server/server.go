package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/tracker-admin/config"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/handler"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/middleware"
	wshandler "github.com/Temutjin2k/tracker-admin/internal/adapter/http/ws"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *Handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

// Handlers groups the HTTP handlers of a service. Only Health is required;
// the admin service needs every handler.
type Handlers struct {
	Health    *handler.Health
	Auth      *handler.Auth
	Users     *handler.Users
	Devices   *handler.Devices
	Locations *handler.Locations
	Dashboard *handler.Dashboard
	Stream    *wshandler.DashboardStream
}

func New(cfg config.Config, routes *Handlers, authService middleware.AuthService, logger logger.Logger) (*API, error) {
	var addr string

	if routes == nil || routes.Health == nil {
		return nil, errors.New("health handler is required")
	}

	switch cfg.Mode {
	case types.AdminService:
		if authService == nil {
			return nil, errors.New("auth service is required")
		}
		if routes.Auth == nil || routes.Users == nil || routes.Devices == nil ||
			routes.Locations == nil || routes.Dashboard == nil || routes.Stream == nil {
			return nil, errors.New("admin service handlers are incomplete")
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.AdminService)
	case types.IngestService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.IngestService)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	api := &API{
		mode:   cfg.Mode,
		mux:    http.NewServeMux(),
		routes: routes,
		m:      middleware.NewMiddleware(authService, string(cfg.Mode), logger),
		addr:   addr,
		cfg:    cfg,
		log:    logger,
	}

	setupRoutes(api.mux, api.routes, api.m, api.mode, api.cfg, api.log)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// Handler returns the mux wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

// withMiddleware applies middlewares to the mux. Metrics wraps the mux
// directly so it sees the matched route pattern.
func (a *API) withMiddleware() http.Handler {
	h := a.m.Metrics(a.mux)
	if a.mode == types.AdminService {
		h = a.m.Auth(h)
		h = middleware.RateLimit(a.cfg.HTTP.RateLimit)(h)
		h = middleware.CORS(a.cfg.HTTP.AllowedOrigins)(h)
	}
	return a.m.Recover(a.m.RequestID(a.m.Logging(h)))
}
