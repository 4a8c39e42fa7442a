package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jordanlanch/dealboard/pkg/analytics"
	apierrors "github.com/jordanlanch/dealboard/pkg/api/errors"
	"github.com/jordanlanch/dealboard/pkg/export"
	"github.com/jordanlanch/dealboard/pkg/store"
	"github.com/labstack/echo/v4"
)

// ExportHandler streams XLSX pipeline reports
type ExportHandler struct {
	store     *store.Store
	analytics *analytics.Service
}

// NewExportHandler creates a new export handler
func NewExportHandler(s *store.Store, a *analytics.Service) *ExportHandler {
	return &ExportHandler{store: s, analytics: a}
}

// PipelineReport builds and streams the pipeline workbook
func (h *ExportHandler) PipelineReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	deals := h.store.List()
	overview := h.analytics.Overview(ctx)
	breakdown := h.analytics.StageBreakdown(ctx)

	f, err := export.BuildPipelineReport(deals, overview, breakdown)
	if err != nil {
		return apierrors.InternalError(c, err)
	}
	defer f.Close()

	filename := fmt.Sprintf("pipeline_report_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	if err := f.Write(c.Response()); err != nil {
		return err
	}
	return nil
}
