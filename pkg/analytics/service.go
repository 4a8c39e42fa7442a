package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/metrics"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/stage"
)

// Cache keys for remote snapshots
const (
	keyOverview = "analytics:overview"
	keyStages   = "analytics:stages"
	keyAgents   = "analytics:agents"
	keySources  = "analytics:sources"
)

// Service serves the four analytics snapshots. The backend's pre-aggregated
// snapshots are preferred (and cached briefly); when an endpoint is degraded
// or returns malformed data, the service falls back to local aggregation
// over the deal store so the board never loses its analytics view. Failures
// are isolated per snapshot.
type Service struct {
	reader  domain.DealReader
	backend domain.DealBackend
	cache   domain.CacheRepository
	metrics *metrics.Metrics
	log     logger.Logger
	ttl     time.Duration
}

// NewService creates the analytics service. The cache is optional; pass nil
// to always hit the backend.
func NewService(reader domain.DealReader, backend domain.DealBackend, cache domain.CacheRepository, m *metrics.Metrics, log logger.Logger, ttl time.Duration) *Service {
	return &Service{
		reader:  reader,
		backend: backend,
		cache:   cache,
		metrics: m,
		log:     log,
		ttl:     ttl,
	}
}

// Overview returns the funnel-wide summary snapshot
func (s *Service) Overview(ctx context.Context) models.OverviewSnapshot {
	var snap models.OverviewSnapshot
	if s.fromCache(ctx, keyOverview, &snap) {
		return snap
	}
	remote, err := s.backend.Overview(ctx)
	if err != nil || remote == nil {
		s.degrade("overview", err)
		return Overview(s.reader.List())
	}
	s.toCache(ctx, keyOverview, remote)
	return *remote
}

// StageBreakdown returns per-stage metrics. Remote snapshots missing catalog
// stages are filled with zeroed rows so every stage is always present.
func (s *Service) StageBreakdown(ctx context.Context) models.StageBreakdownSnapshot {
	var snap models.StageBreakdownSnapshot
	if s.fromCache(ctx, keyStages, &snap) {
		return snap
	}
	remote, err := s.backend.Stages(ctx)
	if err != nil || remote == nil || len(remote.Stages) == 0 {
		s.degrade("stages", err)
		return StageBreakdown(s.reader.List())
	}
	filled := fillMissingStages(*remote)
	s.toCache(ctx, keyStages, &filled)
	return filled
}

// AgentPerformance returns per-agent metrics
func (s *Service) AgentPerformance(ctx context.Context) models.AgentPerformanceSnapshot {
	var snap models.AgentPerformanceSnapshot
	if s.fromCache(ctx, keyAgents, &snap) && snap.Agents != nil {
		return snap
	}
	remote, err := s.backend.Agents(ctx)
	if err != nil || remote == nil || remote.Agents == nil {
		s.degrade("agents", err)
		return AgentPerformance(s.reader.List())
	}
	s.toCache(ctx, keyAgents, remote)
	return *remote
}

// SourceAnalysis returns per-source metrics
func (s *Service) SourceAnalysis(ctx context.Context) models.SourceAnalysisSnapshot {
	var snap models.SourceAnalysisSnapshot
	if s.fromCache(ctx, keySources, &snap) && snap.Sources != nil {
		return snap
	}
	remote, err := s.backend.Sources(ctx)
	if err != nil || remote == nil || remote.Sources == nil {
		s.degrade("sources", err)
		return SourceAnalysis(s.reader.List())
	}
	s.toCache(ctx, keySources, remote)
	return *remote
}

// Warm refreshes the remote snapshot cache, used by the scheduled job
func (s *Service) Warm(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if snap, err := s.backend.Overview(ctx); err == nil && snap != nil {
		s.toCache(ctx, keyOverview, snap)
	}
	if snap, err := s.backend.Stages(ctx); err == nil && snap != nil && len(snap.Stages) > 0 {
		filled := fillMissingStages(*snap)
		s.toCache(ctx, keyStages, &filled)
	}
	if snap, err := s.backend.Agents(ctx); err == nil && snap != nil && snap.Agents != nil {
		s.toCache(ctx, keyAgents, snap)
	}
	if snap, err := s.backend.Sources(ctx); err == nil && snap != nil && snap.Sources != nil {
		s.toCache(ctx, keySources, snap)
	}
}

func (s *Service) degrade(snapshot string, err error) {
	s.metrics.RecordFallback(snapshot)
	degraded := domain.NewAggregationDegradedError(snapshot, err)
	s.log.Warn("analytics degraded, using local aggregation", "snapshot", snapshot, "error", degraded)
}

func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		s.metrics.RecordCacheMiss("analytics")
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.metrics.RecordCacheMiss("analytics")
		return false
	}
	s.metrics.RecordCacheHit("analytics")
	return true
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.log.Debug("failed to cache analytics snapshot", "key", key, "error", err)
	}
}

func fillMissingStages(snap models.StageBreakdownSnapshot) models.StageBreakdownSnapshot {
	present := make(map[string]models.StageMetrics, len(snap.Stages))
	for _, row := range snap.Stages {
		present[row.Stage] = row
	}
	filled := models.StageBreakdownSnapshot{Stages: make([]models.StageMetrics, 0, len(stage.All()))}
	for _, def := range stage.All() {
		if row, ok := present[string(def.ID)]; ok {
			filled.Stages = append(filled.Stages, row)
			continue
		}
		filled.Stages = append(filled.Stages, models.StageMetrics{Stage: string(def.ID)})
	}
	return filled
}
