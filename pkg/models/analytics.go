package models

// OverviewSnapshot summarizes the whole pipeline
type OverviewSnapshot struct {
	TotalLeads         int     `json:"total_leads"`
	ActiveLeads        int     `json:"active_leads"`
	ClosedWon          int     `json:"closed_won"`
	ClosedLost         int     `json:"closed_lost"`
	TotalPipelineValue float64 `json:"total_pipeline_value"`
	WinRate            float64 `json:"win_rate"`
}

// StageMetrics holds per-stage aggregates
type StageMetrics struct {
	Stage          string  `json:"stage"`
	Count          int     `json:"count"`
	Value          float64 `json:"value"`
	AvgProbability float64 `json:"avg_probability"`
}

// StageBreakdownSnapshot lists metrics for every catalog stage in board order.
// A stage with zero deals is still present with zeroed metrics.
type StageBreakdownSnapshot struct {
	Stages []StageMetrics `json:"stages"`
}

// GroupMetrics holds aggregates for one grouping key (agent id or source tag)
type GroupMetrics struct {
	TotalLeads     int     `json:"total_leads"`
	WonLeads       int     `json:"won_leads"`
	LostLeads      int     `json:"lost_leads"`
	AvgProbability float64 `json:"avg_probability"`
	TotalValue     float64 `json:"total_value"`
	ConversionRate float64 `json:"conversion_rate"`
}

// AgentPerformanceSnapshot groups deal metrics by agent id
type AgentPerformanceSnapshot struct {
	Agents map[string]GroupMetrics `json:"agents"`
}

// SourceAnalysisSnapshot groups deal metrics by source tag
type SourceAnalysisSnapshot struct {
	Sources map[string]GroupMetrics `json:"sources"`
}
