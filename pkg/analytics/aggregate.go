package analytics

import (
	"math"
	"strconv"

	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/stage"
)

// The aggregation functions in this file are pure: they never mutate their
// input and are safe to call on any snapshot of the deal store, including an
// empty one. All rates are percentages rounded to two decimals and are 0,
// never NaN, when a denominator is 0.

// Overview computes the funnel-wide summary
func Overview(deals []*models.Deal) models.OverviewSnapshot {
	var snap models.OverviewSnapshot
	snap.TotalLeads = len(deals)
	for _, d := range deals {
		switch stage.Stage(d.Stage) {
		case stage.ClosedWon:
			snap.ClosedWon++
			snap.TotalPipelineValue += d.ExpectedValue
		case stage.ClosedLost:
			snap.ClosedLost++
		default:
			snap.ActiveLeads++
			snap.TotalPipelineValue += d.ExpectedValue
		}
	}
	snap.WinRate = calculateRate(float64(snap.ClosedWon), float64(snap.ClosedWon+snap.ClosedLost))
	return snap
}

// StageBreakdown computes per-stage metrics. Every catalog stage gets a row
// in board order; a stage with no deals yields zeroed metrics, not absence.
func StageBreakdown(deals []*models.Deal) models.StageBreakdownSnapshot {
	type bucket struct {
		count   int
		value   float64
		probSum float64
	}
	buckets := make(map[stage.Stage]*bucket, len(stage.All()))
	for _, def := range stage.All() {
		buckets[def.ID] = &bucket{}
	}
	for _, d := range deals {
		b, ok := buckets[stage.Stage(d.Stage)]
		if !ok {
			// A deal with a stage outside the catalog never enters the store
			// through the pipeline; skip rather than invent a row.
			continue
		}
		b.count++
		b.value += d.ExpectedValue
		b.probSum += float64(d.Probability)
	}

	snap := models.StageBreakdownSnapshot{Stages: make([]models.StageMetrics, 0, len(stage.All()))}
	for _, def := range stage.All() {
		b := buckets[def.ID]
		avg := 0.0
		if b.count > 0 {
			avg = round2(b.probSum / float64(b.count))
		}
		snap.Stages = append(snap.Stages, models.StageMetrics{
			Stage:          string(def.ID),
			Count:          b.count,
			Value:          b.value,
			AvgProbability: avg,
		})
	}
	return snap
}

// AgentPerformance groups deal metrics by agent id. Deals without an agent
// are not attributed to anyone.
func AgentPerformance(deals []*models.Deal) models.AgentPerformanceSnapshot {
	groups := make(map[string][]*models.Deal)
	for _, d := range deals {
		if d.AgentID == nil {
			continue
		}
		key := strconv.Itoa(*d.AgentID)
		groups[key] = append(groups[key], d)
	}
	return models.AgentPerformanceSnapshot{Agents: groupMetrics(groups)}
}

// SourceAnalysis groups deal metrics by source tag. Deals without a source
// are grouped under "unknown" so group totals still sum to the deal count.
func SourceAnalysis(deals []*models.Deal) models.SourceAnalysisSnapshot {
	groups := make(map[string][]*models.Deal)
	for _, d := range deals {
		key := d.Source
		if key == "" {
			key = "unknown"
		}
		groups[key] = append(groups[key], d)
	}
	return models.SourceAnalysisSnapshot{Sources: groupMetrics(groups)}
}

func groupMetrics(groups map[string][]*models.Deal) map[string]models.GroupMetrics {
	out := make(map[string]models.GroupMetrics, len(groups))
	for key, deals := range groups {
		var m models.GroupMetrics
		var probSum float64
		for _, d := range deals {
			m.TotalLeads++
			m.TotalValue += d.ExpectedValue
			probSum += float64(d.Probability)
			switch stage.Stage(d.Stage) {
			case stage.ClosedWon:
				m.WonLeads++
			case stage.ClosedLost:
				m.LostLeads++
			}
		}
		if m.TotalLeads > 0 {
			m.AvgProbability = round2(probSum / float64(m.TotalLeads))
		}
		m.ConversionRate = calculateRate(float64(m.WonLeads), float64(m.WonLeads+m.LostLeads))
		out[key] = m
	}
	return out
}

// calculateRate calculates percentage rate (numerator/denominator * 100)
func calculateRate(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(numerator / denominator * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
