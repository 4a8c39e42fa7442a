package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBackend is a mock implementation of domain.DealBackend for testing
type MockBackend struct {
	OverviewFunc func(ctx context.Context) (*models.OverviewSnapshot, error)
	StagesFunc   func(ctx context.Context) (*models.StageBreakdownSnapshot, error)
	AgentsFunc   func(ctx context.Context) (*models.AgentPerformanceSnapshot, error)
	SourcesFunc  func(ctx context.Context) (*models.SourceAnalysisSnapshot, error)

	overviewCalls int
}

func (m *MockBackend) ListDeals(ctx context.Context) ([]*models.Deal, error) { return nil, nil }

func (m *MockBackend) UpdateStage(ctx context.Context, dealID int, stage string) (*models.Deal, error) {
	return nil, errors.New("not configured")
}

func (m *MockBackend) CloseDeal(ctx context.Context, dealID int, req models.CloseDealRequest) (*models.Deal, error) {
	return nil, errors.New("not configured")
}

func (m *MockBackend) LoseDeal(ctx context.Context, dealID int, req models.LoseDealRequest) (*models.Deal, error) {
	return nil, errors.New("not configured")
}

func (m *MockBackend) Overview(ctx context.Context) (*models.OverviewSnapshot, error) {
	m.overviewCalls++
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return nil, errors.New("unavailable")
}

func (m *MockBackend) Stages(ctx context.Context) (*models.StageBreakdownSnapshot, error) {
	if m.StagesFunc != nil {
		return m.StagesFunc(ctx)
	}
	return nil, errors.New("unavailable")
}

func (m *MockBackend) Agents(ctx context.Context) (*models.AgentPerformanceSnapshot, error) {
	if m.AgentsFunc != nil {
		return m.AgentsFunc(ctx)
	}
	return nil, errors.New("unavailable")
}

func (m *MockBackend) Sources(ctx context.Context) (*models.SourceAnalysisSnapshot, error) {
	if m.SourcesFunc != nil {
		return m.SourcesFunc(ctx)
	}
	return nil, errors.New("unavailable")
}

// memoryCache is an in-process stand-in for the Redis cache
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.(string)
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) Close() error { return nil }

func seededStore() *store.Store {
	s := store.New()
	s.Load([]*models.Deal{
		deal(1, "LEAD", 10, 100000),
		deal(2, "NEGOTIATION", 80, 200000),
		deal(3, "CLOSED_WON", 100, 300000),
	})
	return s
}

func TestOverview_PrefersRemoteSnapshot(t *testing.T) {
	backend := &MockBackend{
		OverviewFunc: func(ctx context.Context) (*models.OverviewSnapshot, error) {
			return &models.OverviewSnapshot{TotalLeads: 500, WinRate: 42.5}, nil
		},
	}
	svc := NewService(seededStore(), backend, nil, nil, logger.New("error"), time.Minute)

	snap := svc.Overview(context.Background())
	assert.Equal(t, 500, snap.TotalLeads)
	assert.Equal(t, 42.5, snap.WinRate)
}

func TestOverview_DegradedFallsBackToLocal(t *testing.T) {
	backend := &MockBackend{} // every endpoint errors
	svc := NewService(seededStore(), backend, nil, nil, logger.New("error"), time.Minute)

	snap := svc.Overview(context.Background())
	assert.Equal(t, 3, snap.TotalLeads, "local aggregation over the deal store")
	assert.Equal(t, 1, snap.ClosedWon)
	assert.Equal(t, 100.0, snap.WinRate)
}

func TestOverview_CachesRemoteSnapshot(t *testing.T) {
	backend := &MockBackend{
		OverviewFunc: func(ctx context.Context) (*models.OverviewSnapshot, error) {
			return &models.OverviewSnapshot{TotalLeads: 500}, nil
		},
	}
	svc := NewService(seededStore(), backend, newMemoryCache(), nil, logger.New("error"), time.Minute)

	first := svc.Overview(context.Background())
	second := svc.Overview(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.overviewCalls, "the second read is served from cache")
}

func TestStageBreakdown_FillsMissingCatalogStages(t *testing.T) {
	backend := &MockBackend{
		StagesFunc: func(ctx context.Context) (*models.StageBreakdownSnapshot, error) {
			return &models.StageBreakdownSnapshot{Stages: []models.StageMetrics{
				{Stage: "LEAD", Count: 12, Value: 900000, AvgProbability: 11},
			}}, nil
		},
	}
	svc := NewService(seededStore(), backend, nil, nil, logger.New("error"), time.Minute)

	snap := svc.StageBreakdown(context.Background())
	require.Len(t, snap.Stages, 7)
	assert.Equal(t, "LEAD", snap.Stages[0].Stage)
	assert.Equal(t, 12, snap.Stages[0].Count)
	assert.Equal(t, "CONTACTED", snap.Stages[1].Stage)
	assert.Equal(t, 0, snap.Stages[1].Count, "stages the remote omitted are zero-filled")
}

func TestStageBreakdown_EmptyRemoteFallsBackToLocal(t *testing.T) {
	backend := &MockBackend{
		StagesFunc: func(ctx context.Context) (*models.StageBreakdownSnapshot, error) {
			return &models.StageBreakdownSnapshot{}, nil
		},
	}
	svc := NewService(seededStore(), backend, nil, nil, logger.New("error"), time.Minute)

	snap := svc.StageBreakdown(context.Background())
	require.Len(t, snap.Stages, 7)
	total := 0
	for _, row := range snap.Stages {
		total += row.Count
	}
	assert.Equal(t, 3, total)
}

func TestAgentPerformance_MalformedRemoteFallsBackToLocal(t *testing.T) {
	backend := &MockBackend{
		AgentsFunc: func(ctx context.Context) (*models.AgentPerformanceSnapshot, error) {
			return &models.AgentPerformanceSnapshot{}, nil // nil Agents map
		},
	}
	s := seededStore()
	agentID := 4
	s.Put(&models.Deal{ID: 9, Stage: "LEAD", AgentID: &agentID, ExpectedValue: 50000})
	svc := NewService(s, backend, nil, nil, logger.New("error"), time.Minute)

	snap := svc.AgentPerformance(context.Background())
	require.NotNil(t, snap.Agents)
	assert.Contains(t, snap.Agents, "4")
}

func TestSourceAnalysis_DegradedFallsBackToLocal(t *testing.T) {
	backend := &MockBackend{}
	svc := NewService(seededStore(), backend, nil, nil, logger.New("error"), time.Minute)

	snap := svc.SourceAnalysis(context.Background())
	require.NotNil(t, snap.Sources)
	// Seeded deals carry no source tags
	assert.Contains(t, snap.Sources, "unknown")
}

func TestSnapshotFailuresAreIsolated(t *testing.T) {
	// Overview healthy, everything else degraded: each endpoint answers on its own
	backend := &MockBackend{
		OverviewFunc: func(ctx context.Context) (*models.OverviewSnapshot, error) {
			return &models.OverviewSnapshot{TotalLeads: 77}, nil
		},
	}
	svc := NewService(seededStore(), backend, nil, nil, logger.New("error"), time.Minute)

	assert.Equal(t, 77, svc.Overview(context.Background()).TotalLeads)
	assert.Len(t, svc.StageBreakdown(context.Background()).Stages, 7)
	assert.NotNil(t, svc.AgentPerformance(context.Background()).Agents)
	assert.NotNil(t, svc.SourceAnalysis(context.Background()).Sources)
}

func TestWarm_PopulatesCache(t *testing.T) {
	backend := &MockBackend{
		OverviewFunc: func(ctx context.Context) (*models.OverviewSnapshot, error) {
			return &models.OverviewSnapshot{TotalLeads: 500}, nil
		},
	}
	cache := newMemoryCache()
	svc := NewService(seededStore(), backend, cache, nil, logger.New("error"), time.Minute)

	svc.Warm(context.Background())
	require.Equal(t, 1, backend.overviewCalls)

	snap := svc.Overview(context.Background())
	assert.Equal(t, 500, snap.TotalLeads)
	assert.Equal(t, 1, backend.overviewCalls, "served from the warmed cache")
}
