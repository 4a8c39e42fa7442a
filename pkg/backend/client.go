package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/models"
)

// Client talks to the external deals backend that owns persistence. The
// engine only ever reads the deal list and issues the three mutation calls;
// everything else about the backend is out of scope here.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend client with the given base URL and timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type stagePayload struct {
	Stage string `json:"stage"`
}

// ListDeals fetches the full deal set for the current tenant
func (c *Client) ListDeals(ctx context.Context) ([]*models.Deal, error) {
	var deals []*models.Deal
	if err := c.do(ctx, http.MethodGet, "/deals", nil, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// UpdateStage issues the stage-move PATCH and returns the authoritative deal
func (c *Client) UpdateStage(ctx context.Context, dealID int, stage string) (*models.Deal, error) {
	var deal models.Deal
	path := fmt.Sprintf("/deals/%d", dealID)
	if err := c.do(ctx, http.MethodPatch, path, stagePayload{Stage: stage}, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// CloseDeal marks a deal won on the backend
func (c *Client) CloseDeal(ctx context.Context, dealID int, req models.CloseDealRequest) (*models.Deal, error) {
	var deal models.Deal
	path := fmt.Sprintf("/deals/%d/close", dealID)
	if err := c.do(ctx, http.MethodPatch, path, req, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// LoseDeal marks a deal lost on the backend
func (c *Client) LoseDeal(ctx context.Context, dealID int, req models.LoseDealRequest) (*models.Deal, error) {
	var deal models.Deal
	path := fmt.Sprintf("/deals/%d/lose", dealID)
	if err := c.do(ctx, http.MethodPatch, path, req, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// Overview fetches the pre-aggregated overview snapshot
func (c *Client) Overview(ctx context.Context) (*models.OverviewSnapshot, error) {
	var snap models.OverviewSnapshot
	if err := c.do(ctx, http.MethodGet, "/analytics/overview", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Stages fetches the pre-aggregated stage breakdown
func (c *Client) Stages(ctx context.Context) (*models.StageBreakdownSnapshot, error) {
	var snap models.StageBreakdownSnapshot
	if err := c.do(ctx, http.MethodGet, "/analytics/stages", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Agents fetches the pre-aggregated agent performance snapshot
func (c *Client) Agents(ctx context.Context) (*models.AgentPerformanceSnapshot, error) {
	var snap models.AgentPerformanceSnapshot
	if err := c.do(ctx, http.MethodGet, "/analytics/agents", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Sources fetches the pre-aggregated source analysis snapshot
func (c *Client) Sources(ctx context.Context) (*models.SourceAnalysisSnapshot, error) {
	var snap models.SourceAnalysisSnapshot
	if err := c.do(ctx, http.MethodGet, "/analytics/sources", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewRemoteRejectionError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr models.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return domain.NewRemoteRejectionError(resp.StatusCode, fmt.Errorf("%s", apiErr.Message))
		}
		return domain.NewRemoteRejectionError(resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
