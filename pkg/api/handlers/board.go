package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jordanlanch/dealboard/pkg/api/errors"
	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/stage"
	"github.com/jordanlanch/dealboard/pkg/store"
	"github.com/labstack/echo/v4"
)

// BoardHandler serves the kanban board state and the reactive change stream
type BoardHandler struct {
	store   *store.Store
	backend domain.DealBackend
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(s *store.Store, backend domain.DealBackend) *BoardHandler {
	return &BoardHandler{store: s, backend: backend}
}

// GetBoard returns the deal set grouped by stage in board order
func (h *BoardHandler) GetBoard(c echo.Context) error {
	resp := models.BoardResponse{
		Version: h.store.Version(),
		Columns: make([]models.BoardColumn, 0, len(stage.All())),
		Totals:  make(map[string]int),
	}
	for _, def := range stage.All() {
		deals := h.store.ByStage(string(def.ID))
		resp.Columns = append(resp.Columns, models.BoardColumn{
			Stage:              string(def.ID),
			Label:              def.Label,
			Terminal:           def.Terminal,
			DefaultProbability: def.DefaultProbability,
			Deals:              deals,
		})
		resp.Totals[string(def.ID)] = len(deals)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListDeals returns all deals, optionally filtered by stage
func (h *BoardHandler) ListDeals(c echo.Context) error {
	if st := c.QueryParam("stage"); st != "" {
		if !stage.Valid(stage.Stage(st)) {
			return errors.DomainError(c, domain.NewUnknownStageError(st))
		}
		return c.JSON(http.StatusOK, h.store.ByStage(st))
	}
	return c.JSON(http.StatusOK, h.store.List())
}

// GetDeal returns a single deal by id
func (h *BoardHandler) GetDeal(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid deal ID",
		})
	}
	deal, ok := h.store.Get(id)
	if !ok {
		return errors.NotFoundError(c, "deal")
	}
	return c.JSON(http.StatusOK, deal)
}

// Refresh reloads the whole deal set from the backend
func (h *BoardHandler) Refresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	deals, err := h.backend.ListDeals(ctx)
	if err != nil {
		return errors.DomainError(c, err)
	}
	h.store.Load(deals)
	return c.JSON(http.StatusOK, map[string]any{
		"deals":   len(deals),
		"version": h.store.Version(),
	})
}

// Events streams store version changes as server-sent events so the
// presentation layer can re-render on every committed or rolled-back change.
func (h *BoardHandler) Events(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	changes, cancel := h.store.Subscribe()
	defer cancel()

	// Initial event so clients render immediately
	fmt.Fprintf(c.Response(), "event: version\ndata: %d\n\n", h.store.Version())
	c.Response().Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case version, ok := <-changes:
			if !ok {
				return nil
			}
			fmt.Fprintf(c.Response(), "event: version\ndata: %d\n\n", version)
			c.Response().Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Response(), ": ping\n\n")
			c.Response().Flush()
		}
	}
}
