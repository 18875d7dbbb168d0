package handler

import (
	"net/http"

	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

type Dashboard struct {
	views ViewService
	l     logger.Logger
}

func NewDashboard(views ViewService, l logger.Logger) *Dashboard {
	return &Dashboard{views: views, l: l}
}

// Get godoc
// @Summary      Dashboard
// @Description  Device presence overview. degraded is true when the location source failed.
// @Tags         Dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Dashboard
// @Router       /api/dashboard [get]
func (h *Dashboard) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_dashboard")

	dashboard := h.views.Dashboard(ctx)

	h.l.Debug(ctx, "built dashboard",
		"devices", dashboard.Stats.TotalDevices,
		"online", dashboard.Stats.OnlineDevices,
		"degraded", dashboard.Degraded,
	)

	if err := writeJSON(w, http.StatusOK, dashboard, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
	}
}
