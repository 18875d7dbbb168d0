package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Temutjin2k/tracker-admin/config"
	"github.com/Temutjin2k/tracker-admin/docs"
	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/middleware"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *Handlers, m *middleware.Middleware, mode types.ServiceMode, cfg config.Config, log logger.Logger) {
	// System Health
	mux.HandleFunc("GET /health", routes.Health.HealthCheck)

	setupMetricsRoute(mux)

	switch mode {
	case types.AdminService:
		setupSwaggerRoutes(mux, mode, log)
		setupAuthRoutes(mux, routes, m)
		setupLocationRoutes(mux, routes, m, cfg.Ingest.Token)
		setupDeviceRoutes(mux, routes, m)
		setupUserRoutes(mux, routes, m)
		mux.Handle("GET /api/dashboard", m.RequireRoles(routes.Dashboard.Get))
		// authenticated by the first websocket message
		mux.HandleFunc("GET /ws/dashboard", routes.Stream.ServeWS)
	case types.IngestService:
		// health and metrics only
	}
}

func setupAuthRoutes(mux *http.ServeMux, routes *Handlers, m *middleware.Middleware) {
	mux.HandleFunc("POST /auth/login", routes.Auth.Login)
	mux.HandleFunc("POST /auth/refresh", routes.Auth.Refresh)
	mux.Handle("GET /auth/me", m.RequireRoles(routes.Auth.Me))
}

func setupLocationRoutes(mux *http.ServeMux, routes *Handlers, m *middleware.Middleware, ingestToken string) {
	mux.Handle("GET /api/locations", m.RequireRoles(routes.Locations.List))                  // Location history
	mux.Handle("POST /api/locations", m.RequireIngest(routes.Locations.Record, ingestToken)) // Report a location
}

func setupDeviceRoutes(mux *http.ServeMux, routes *Handlers, m *middleware.Middleware) {
	mux.Handle("GET /api/devices", m.RequireRoles(routes.Devices.List))
	mux.Handle("GET /api/devices/{id}", m.RequireRoles(routes.Devices.Get))
	mux.Handle("GET /api/devices/{id}/track", m.RequireRoles(routes.Devices.Track))
	mux.Handle("POST /api/devices", m.RequireRoles(routes.Devices.Create, types.RoleAdmin))
	mux.Handle("PATCH /api/devices/{id}", m.RequireRoles(routes.Devices.Update, types.RoleAdmin))
	mux.Handle("DELETE /api/devices/{id}", m.RequireRoles(routes.Devices.Delete, types.RoleAdmin))
}

func setupUserRoutes(mux *http.ServeMux, routes *Handlers, m *middleware.Middleware) {
	mux.Handle("GET /api/users", m.RequireRoles(routes.Users.List, types.RoleAdmin))
	mux.Handle("POST /api/users", m.RequireRoles(routes.Users.Create, types.RoleAdmin))
	mux.Handle("GET /api/users/{id}", m.RequireRoles(routes.Users.Get, types.RoleAdmin))
	mux.Handle("PATCH /api/users/{id}", m.RequireRoles(routes.Users.Update, types.RoleAdmin))
	mux.Handle("DELETE /api/users/{id}", m.RequireRoles(routes.Users.Delete, types.RoleAdmin))
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	var instanceName string

	switch mode {
	case types.AdminService:
		instanceName = docs.SwaggerInfoAdmin.InstanceName()
	default:
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "unknown service mode for swagger setup", "mode", mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(instanceName)
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
