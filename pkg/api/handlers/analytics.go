package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jordanlanch/dealboard/pkg/analytics"
	"github.com/labstack/echo/v4"
)

// AnalyticsHandler serves the four aggregation snapshots. Each endpoint is
// isolated: a degraded backend snapshot falls back to local aggregation
// inside the service and never errors the view.
type AnalyticsHandler struct {
	analyticsService *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GetOverview returns the funnel-wide summary
func (h *AnalyticsHandler) GetOverview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, h.analyticsService.Overview(ctx))
}

// GetStageBreakdown returns per-stage metrics for every catalog stage
func (h *AnalyticsHandler) GetStageBreakdown(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, h.analyticsService.StageBreakdown(ctx))
}

// GetAgentPerformance returns per-agent metrics
func (h *AnalyticsHandler) GetAgentPerformance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, h.analyticsService.AgentPerformance(ctx))
}

// GetSourceAnalysis returns per-source metrics
func (h *AnalyticsHandler) GetSourceAnalysis(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, h.analyticsService.SourceAnalysis(ctx))
}
