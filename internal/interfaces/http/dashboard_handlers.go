package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/foundry-fichas/internal/application/service"
)

// DashboardSummary handles GET /api/dashboard/summary?period=&designer=&material=
func (h *Handlers) DashboardSummary(c *gin.Context) {
	var filter service.SummaryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	summary, err := h.services.Dashboard.Summary(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "dashboard_summary", err)
		return
	}
	ok(c, summary)
}

// DashboardStages handles GET /api/dashboard/stages
func (h *Handlers) DashboardStages(c *gin.Context) {
	counts, err := h.services.Dashboard.StageChart(c.Request.Context())
	if err != nil {
		h.respondError(c, "dashboard_stages", err)
		return
	}
	ok(c, counts)
}

// DashboardMonthly handles GET /api/dashboard/monthly?year=
func (h *Handlers) DashboardMonthly(c *gin.Context) {
	year := time.Now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 9999 {
			badRequest(c, "invalid year")
			return
		}
		year = parsed
	}

	months, err := h.services.Dashboard.MonthlyChart(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, "dashboard_monthly", err)
		return
	}
	ok(c, months)
}

// DashboardRecent handles GET /api/dashboard/recent?limit=
func (h *Handlers) DashboardRecent(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid limit")
			return
		}
		limit = clampLimit(parsed)
	}

	recent, err := h.services.Dashboard.Recent(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "dashboard_recent", err)
		return
	}
	ok(c, recent)
}

// DashboardUpcoming handles GET /api/dashboard/upcoming
func (h *Handlers) DashboardUpcoming(c *gin.Context) {
	upcoming, err := h.services.Dashboard.Upcoming(c.Request.Context())
	if err != nil {
		h.respondError(c, "dashboard_upcoming", err)
		return
	}
	ok(c, upcoming)
}
