package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jordanlanch/dealboard/pkg/dragdrop"
	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/pipeline"
	"github.com/jordanlanch/dealboard/pkg/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDragHandler(backend *stubBackend) (*DragHandler, *store.Store) {
	s := store.New()
	notices := dragdrop.NewNoticeBoard(5 * time.Second)
	log := logger.New("error")
	p := pipeline.NewService(s, backend, notices, nil, log, false)
	coordinator := dragdrop.NewCoordinator(s, p, notices, log)
	return NewDragHandler(coordinator, notices, nil), s
}

func postJSON(t *testing.T, handler echo.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	return rec
}

func TestDragFlow_BeginHoverDrop(t *testing.T) {
	handler, s := setupDragHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "QUALIFIED", Probability: 40})

	rec := postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var view dragdrop.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Active)
	assert.Equal(t, "QUALIFIED", view.OriginStage)

	rec = postJSON(t, handler.Hover, "/drag/hover", `{"target_stage":"PROPOSAL"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, handler.Drop, "/drag/drop", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var result dragdrop.DropResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, dragdrop.OutcomeMoved, result.Outcome)
	require.NotNil(t, result.Move)
	assert.Equal(t, "PROPOSAL", result.Move.Deal.Stage)
}

func TestDragBegin_Conflict(t *testing.T) {
	handler, s := setupDragHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "LEAD"})
	s.Put(&models.Deal{ID: 2, Stage: "LEAD"})

	postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":1}`)
	rec := postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDragBegin_UnknownDeal(t *testing.T) {
	handler, _ := setupDragHandler(&stubBackend{})

	rec := postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":42}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDragBegin_InvalidPayload(t *testing.T) {
	handler, _ := setupDragHandler(&stubBackend{})

	rec := postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDragDrop_RejectedMoveLeavesNotice(t *testing.T) {
	handler, s := setupDragHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "CLOSED_WON"})

	postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":1}`)
	postJSON(t, handler.Hover, "/drag/hover", `{"target_stage":"LEAD"}`)
	rec := postJSON(t, handler.Drop, "/drag/drop", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var result dragdrop.DropResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, dragdrop.OutcomeRejected, result.Outcome)

	noticesRec := getRequest(t, handler.Notices, "/drag/notices")
	var payload struct {
		Notices []dragdrop.Notice `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(noticesRec.Body.Bytes(), &payload))
	require.Len(t, payload.Notices, 1)
	assert.Equal(t, 1, payload.Notices[0].DealID)
}

func TestDragCancel(t *testing.T) {
	handler, s := setupDragHandler(&stubBackend{})
	s.Put(&models.Deal{ID: 1, Stage: "LEAD"})

	postJSON(t, handler.Begin, "/drag/begin", `{"deal_id":1}`)
	rec := postJSON(t, handler.Cancel, "/drag/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var view dragdrop.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.False(t, view.Active)

	// Cancel with no session is a conflict
	rec = postJSON(t, handler.Cancel, "/drag/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDragSession_Idle(t *testing.T) {
	handler, _ := setupDragHandler(&stubBackend{})

	rec := getRequest(t, handler.Session, "/drag/session")
	var view dragdrop.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.False(t, view.Active)
}
