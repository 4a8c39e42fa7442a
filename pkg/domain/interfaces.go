package domain

import (
	"context"
	"time"

	"github.com/jordanlanch/dealboard/pkg/models"
)

// DealReader is the read-only view of the deal store handed to aggregation
// and presentation code. Only the pipeline and the refresh job get write access.
type DealReader interface {
	Get(id int) (*models.Deal, bool)
	List() []*models.Deal
	ByStage(stage string) []*models.Deal
	Len() int
	Version() uint64
}

// DealWriter is the mutation surface of the deal store
type DealWriter interface {
	Put(deal *models.Deal)
	Load(deals []*models.Deal)
	Restore(snapshot *models.Deal)
}

// DealBackend defines the external REST collaborator that owns deal
// persistence. The engine never persists deals itself.
type DealBackend interface {
	ListDeals(ctx context.Context) ([]*models.Deal, error)
	UpdateStage(ctx context.Context, dealID int, stage string) (*models.Deal, error)
	CloseDeal(ctx context.Context, dealID int, req models.CloseDealRequest) (*models.Deal, error)
	LoseDeal(ctx context.Context, dealID int, req models.LoseDealRequest) (*models.Deal, error)
	Overview(ctx context.Context) (*models.OverviewSnapshot, error)
	Stages(ctx context.Context) (*models.StageBreakdownSnapshot, error)
	Agents(ctx context.Context) (*models.AgentPerformanceSnapshot, error)
	Sources(ctx context.Context) (*models.SourceAnalysisSnapshot, error)
}

// CacheRepository defines caching operations for analytics snapshots
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// StageMover is the slice of the pipeline the drag/drop coordinator invokes
// after a drop passes local validation.
type StageMover interface {
	ApplyStageMove(ctx context.Context, dealID int, toStage string) (*MoveOutcome, error)
}

// MoveOutcome is the settled result of an optimistic mutation: either the
// committed authoritative deal, or the restored pre-mutation snapshot.
type MoveOutcome struct {
	Deal       *models.Deal
	Committed  bool
	RolledBack bool
	Notice     string
}
