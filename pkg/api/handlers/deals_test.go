package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/dragdrop"
	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/pipeline"
	"github.com/jordanlanch/dealboard/pkg/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend is a controllable domain.DealBackend for handler tests
type stubBackend struct {
	updateStageFunc func(ctx context.Context, dealID int, stage string) (*models.Deal, error)
	closeDealFunc   func(ctx context.Context, dealID int, req models.CloseDealRequest) (*models.Deal, error)
	loseDealFunc    func(ctx context.Context, dealID int, req models.LoseDealRequest) (*models.Deal, error)
	listDealsFunc   func(ctx context.Context) ([]*models.Deal, error)
}

func (b *stubBackend) ListDeals(ctx context.Context) ([]*models.Deal, error) {
	if b.listDealsFunc != nil {
		return b.listDealsFunc(ctx)
	}
	return nil, nil
}

func (b *stubBackend) UpdateStage(ctx context.Context, dealID int, stage string) (*models.Deal, error) {
	if b.updateStageFunc != nil {
		return b.updateStageFunc(ctx, dealID, stage)
	}
	return &models.Deal{ID: dealID, Stage: stage}, nil
}

func (b *stubBackend) CloseDeal(ctx context.Context, dealID int, req models.CloseDealRequest) (*models.Deal, error) {
	if b.closeDealFunc != nil {
		return b.closeDealFunc(ctx, dealID, req)
	}
	return &models.Deal{ID: dealID, Stage: "CLOSED_WON", ActualValue: req.ActualValue}, nil
}

func (b *stubBackend) LoseDeal(ctx context.Context, dealID int, req models.LoseDealRequest) (*models.Deal, error) {
	if b.loseDealFunc != nil {
		return b.loseDealFunc(ctx, dealID, req)
	}
	return &models.Deal{ID: dealID, Stage: "CLOSED_LOST"}, nil
}

func (b *stubBackend) Overview(ctx context.Context) (*models.OverviewSnapshot, error) {
	return nil, errors.New("unavailable")
}

func (b *stubBackend) Stages(ctx context.Context) (*models.StageBreakdownSnapshot, error) {
	return nil, errors.New("unavailable")
}

func (b *stubBackend) Agents(ctx context.Context) (*models.AgentPerformanceSnapshot, error) {
	return nil, errors.New("unavailable")
}

func (b *stubBackend) Sources(ctx context.Context) (*models.SourceAnalysisSnapshot, error) {
	return nil, errors.New("unavailable")
}

func setupDealsHandler(backend *stubBackend) (*DealsHandler, *store.Store) {
	s := store.New()
	notices := dragdrop.NewNoticeBoard(5 * time.Second)
	p := pipeline.NewService(s, backend, notices, nil, logger.New("error"), false)
	return NewDealsHandler(p), s
}

func patchRequest(t *testing.T, handler echo.HandlerFunc, target, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, handler(c))
	return rec
}

func TestMoveDeal_Committed(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "QUALIFIED", Probability: 40})

	rec := patchRequest(t, handler.MoveDeal, "/deals/1/move", "1", `{"to_stage":"PROPOSAL"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.MoveResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Committed)
	assert.False(t, resp.RolledBack)
	assert.Equal(t, "PROPOSAL", resp.Deal.Stage)
}

func TestMoveDeal_RollbackIsStillOK(t *testing.T) {
	backend := &stubBackend{
		updateStageFunc: func(ctx context.Context, dealID int, stage string) (*models.Deal, error) {
			return nil, domain.NewRemoteRejectionError(422, errors.New("locked"))
		},
	}
	handler, s := setupDealsHandler(backend)
	s.Put(&models.Deal{ID: 1, Stage: "QUALIFIED", Probability: 40})

	rec := patchRequest(t, handler.MoveDeal, "/deals/1/move", "1", `{"to_stage":"PROPOSAL"}`)

	// A rollback is a settled outcome the board renders, not an HTTP failure
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.MoveResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.RolledBack)
	assert.Equal(t, "QUALIFIED", resp.Deal.Stage)
	assert.NotEmpty(t, resp.Notice)
}

func TestMoveDeal_UnknownStage(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "LEAD"})

	rec := patchRequest(t, handler.MoveDeal, "/deals/1/move", "1", `{"to_stage":"ARCHIVED"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeUnknownStage, resp.Error)
}

func TestMoveDeal_ClosedDealConflict(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "CLOSED_WON"})

	rec := patchRequest(t, handler.MoveDeal, "/deals/1/move", "1", `{"to_stage":"LEAD"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeDealClosed, resp.Error)
}

func TestMoveDeal_NotFound(t *testing.T) {
	handler, _ := setupDealsHandler(&stubBackend{})

	rec := patchRequest(t, handler.MoveDeal, "/deals/99/move", "99", `{"to_stage":"LEAD"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveDeal_InvalidID(t *testing.T) {
	handler, _ := setupDealsHandler(&stubBackend{})

	rec := patchRequest(t, handler.MoveDeal, "/deals/abc/move", "abc", `{"to_stage":"LEAD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveDeal_MissingTargetStage(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "LEAD"})

	rec := patchRequest(t, handler.MoveDeal, "/deals/1/move", "1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCloseDeal(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "NEGOTIATION", Probability: 80})

	rec := patchRequest(t, handler.CloseDeal, "/deals/1/close", "1",
		`{"close_reason":"offer accepted","actual_value":310000,"commission_earned":9300}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.MoveResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Committed)
	assert.Equal(t, "CLOSED_WON", resp.Deal.Stage)
}

func TestCloseDeal_MissingReason(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "NEGOTIATION"})

	rec := patchRequest(t, handler.CloseDeal, "/deals/1/close", "1", `{"actual_value":310000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoseDeal(t *testing.T) {
	handler, s := setupDealsHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "PROPOSAL", Probability: 60})

	rec := patchRequest(t, handler.LoseDeal, "/deals/1/lose", "1", `{"close_reason":"gone cold"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.MoveResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CLOSED_LOST", resp.Deal.Stage)
}
