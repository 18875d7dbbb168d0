package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type Health struct {
	serviceName string
	checks      map[string]Pinger
	startedAt   time.Time
	log         logger.Logger
}

// NewHealth creates the health handler. Every check is pinged on each request.
func NewHealth(serviceName string, checks map[string]Pinger, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		checks:      checks,
		startedAt:   time.Now(),
		log:         log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the service and its dependencies
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      503  {object}  map[string]any
// @Router       /health [get]
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(a.checks))
	for name, c := range a.checks {
		if err := c.Ping(pingCtx); err != nil {
			a.log.Warn(ctx, "dependency unhealthy", "dependency", name, "error", err.Error())
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "available"
	if status != http.StatusOK {
		state = "degraded"
	}

	response := envelope{
		"status":       state,
		"dependencies": deps,
		"system_info":  a.systemInfo(ctx),
	}

	if err := writeJSON(w, status, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
	}
}

func (a *Health) systemInfo(ctx context.Context) map[string]any {
	info := map[string]any{
		"service-name": a.serviceName,
		"goroutines":   runtime.NumGoroutine(),
		"uptime":       time.Since(a.startedAt).Round(time.Second).String(),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info["memory_used_percent"] = vm.UsedPercent
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		info["host_uptime_seconds"] = up
	}

	return info
}
