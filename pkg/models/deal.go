package models

import "time"

// Priority represents the urgency of a deal, independent of its stage
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// LeadSummary is a denormalized, read-only projection of the associated lead
type LeadSummary struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// PropertySummary is a denormalized, read-only projection of the associated property
type PropertySummary struct {
	Title string  `json:"title"`
	Price float64 `json:"price,omitempty"`
}

// AgentSummary is a denormalized, read-only projection of the associated agent
type AgentSummary struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Deal represents a single sales opportunity moving through the pipeline.
// The server assigns the id; all mutation goes through the pipeline service.
type Deal struct {
	ID int `json:"id"`

	LeadID     *int `json:"lead_id,omitempty"`
	PropertyID *int `json:"property_id,omitempty"`
	AgentID    *int `json:"agent_id,omitempty"`

	Lead     *LeadSummary     `json:"lead,omitempty"`
	Property *PropertySummary `json:"property,omitempty"`
	Agent    *AgentSummary    `json:"agent,omitempty"`

	// Kept as a plain string to avoid an import cycle with the stage
	// catalog; the pipeline validates it at the catalog boundary.
	Stage       string `json:"stage"`
	Probability int    `json:"probability"`

	ExpectedValue    float64 `json:"expected_value"`
	ActualValue      float64 `json:"actual_value,omitempty"`
	CommissionEarned float64 `json:"commission_earned,omitempty"`
	Currency         string  `json:"currency"`

	Priority Priority `json:"priority"`
	Source   string   `json:"source,omitempty"`

	CloseReason string `json:"close_reason,omitempty"`

	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	LastStageChangeDate *time.Time `json:"last_stage_change_date,omitempty"`
	LastContactDate     *time.Time `json:"last_contact_date,omitempty"`
	NextActionDate      *time.Time `json:"next_action_date,omitempty"`

	StageChangesCount int `json:"stage_changes_count"`
}

// DaysInPipeline returns how long the deal has been active: now minus
// createdAt, or closedAt minus createdAt once the deal is closed.
func (d *Deal) DaysInPipeline(now time.Time) int {
	end := now
	if d.ClosedAt != nil {
		end = *d.ClosedAt
	}
	days := int(end.Sub(d.CreatedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Clone returns a deep copy of the deal, used by the pipeline to take
// rollback snapshots that later restores must match bit for bit.
func (d *Deal) Clone() *Deal {
	c := *d
	c.LeadID = clonePtr(d.LeadID)
	c.PropertyID = clonePtr(d.PropertyID)
	c.AgentID = clonePtr(d.AgentID)
	c.ClosedAt = clonePtr(d.ClosedAt)
	c.LastStageChangeDate = clonePtr(d.LastStageChangeDate)
	c.LastContactDate = clonePtr(d.LastContactDate)
	c.NextActionDate = clonePtr(d.NextActionDate)
	if d.Lead != nil {
		lead := *d.Lead
		c.Lead = &lead
	}
	if d.Property != nil {
		prop := *d.Property
		c.Property = &prop
	}
	if d.Agent != nil {
		agent := *d.Agent
		c.Agent = &agent
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
