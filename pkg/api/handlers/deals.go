package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/dealboard/pkg/api/errors"
	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/pipeline"
	"github.com/labstack/echo/v4"
)

// DealsHandler handles deal mutation endpoints. All mutations flow through
// the optimistic pipeline; the handler only binds, validates and maps errors.
type DealsHandler struct {
	pipeline  *pipeline.Service
	validator *validator.Validate
}

// NewDealsHandler creates a new deals handler
func NewDealsHandler(p *pipeline.Service) *DealsHandler {
	return &DealsHandler{
		pipeline:  p,
		validator: validator.New(),
	}
}

// MoveDeal moves a deal to another stage
func (h *DealsHandler) MoveDeal(c echo.Context) error {
	dealID, ok := h.dealID(c)
	if !ok {
		return nil
	}

	var req models.MoveDealRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	outcome, err := h.pipeline.ApplyStageMove(ctx, dealID, req.ToStage)
	if err != nil {
		return apierrors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, toMoveResponse(outcome))
}

// CloseDeal closes a deal as won
func (h *DealsHandler) CloseDeal(c echo.Context) error {
	dealID, ok := h.dealID(c)
	if !ok {
		return nil
	}

	var req models.CloseDealRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	outcome, err := h.pipeline.CloseDeal(ctx, dealID, req)
	if err != nil {
		return apierrors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, toMoveResponse(outcome))
}

// LoseDeal closes a deal as lost
func (h *DealsHandler) LoseDeal(c echo.Context) error {
	dealID, ok := h.dealID(c)
	if !ok {
		return nil
	}

	var req models.LoseDealRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	outcome, err := h.pipeline.LoseDeal(ctx, dealID, req)
	if err != nil {
		return apierrors.DomainError(c, err)
	}
	return c.JSON(http.StatusOK, toMoveResponse(outcome))
}

func (h *DealsHandler) dealID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		_ = c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid deal ID",
		})
		return 0, false
	}
	return id, true
}

func toMoveResponse(outcome *domain.MoveOutcome) models.MoveResultResponse {
	return models.MoveResultResponse{
		Committed:  outcome.Committed,
		RolledBack: outcome.RolledBack,
		Notice:     outcome.Notice,
		Deal:       outcome.Deal,
	}
}
