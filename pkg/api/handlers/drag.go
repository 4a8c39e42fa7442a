package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/dealboard/pkg/api/errors"
	"github.com/jordanlanch/dealboard/pkg/dragdrop"
	"github.com/jordanlanch/dealboard/pkg/metrics"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/stage"
	"github.com/labstack/echo/v4"
)

// DragHandler drives the drag/drop coordinator for thin clients that keep
// interaction state on the server.
type DragHandler struct {
	coordinator *dragdrop.Coordinator
	notices     *dragdrop.NoticeBoard
	metrics     *metrics.Metrics
	validator   *validator.Validate
}

// NewDragHandler creates a new drag handler
func NewDragHandler(coordinator *dragdrop.Coordinator, notices *dragdrop.NoticeBoard, m *metrics.Metrics) *DragHandler {
	return &DragHandler{
		coordinator: coordinator,
		notices:     notices,
		metrics:     m,
		validator:   validator.New(),
	}
}

// Begin starts a drag session for a deal card
func (h *DragHandler) Begin(c echo.Context) error {
	var req models.BeginDragRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.coordinator.Begin(req.DealID); err != nil {
		return apierrors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, h.coordinator.Session())
}

// Hover updates the candidate drop zone
func (h *DragHandler) Hover(c echo.Context) error {
	var req models.HoverRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.coordinator.Hover(stage.Stage(req.TargetStage)); err != nil {
		return apierrors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, h.coordinator.Session())
}

// Drop resolves the active drag session
func (h *DragHandler) Drop(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	result, err := h.coordinator.Drop(ctx)
	if err != nil {
		return apierrors.DomainError(c, err)
	}
	h.metrics.RecordDrag(string(result.Outcome))
	return c.JSON(http.StatusOK, result)
}

// Cancel aborts the active drag session
func (h *DragHandler) Cancel(c echo.Context) error {
	if err := h.coordinator.Cancel(); err != nil {
		return apierrors.DomainError(c, err)
	}
	h.metrics.RecordDrag(string(dragdrop.OutcomeCancelled))
	return c.JSON(http.StatusOK, h.coordinator.Session())
}

// Session returns the active drag state for rendering drag affordances
func (h *DragHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.coordinator.Session())
}

// Notices returns pending transient notices (rejected and reverted moves)
func (h *DragHandler) Notices(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"notices": h.notices.Pending(),
	})
}
