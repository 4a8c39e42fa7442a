package models

// MoveDealRequest represents a stage move submitted for a deal
type MoveDealRequest struct {
	ToStage string `json:"to_stage" validate:"required"`
}

// CloseDealRequest represents closing a deal as won
type CloseDealRequest struct {
	CloseReason      string  `json:"close_reason" validate:"required"`
	ActualValue      float64 `json:"actual_value" validate:"required,gt=0"`
	CommissionEarned float64 `json:"commission_earned" validate:"gte=0"`
}

// LoseDealRequest represents closing a deal as lost
type LoseDealRequest struct {
	CloseReason string `json:"close_reason" validate:"required"`
}

// BeginDragRequest starts a drag session for a deal card
type BeginDragRequest struct {
	DealID int `json:"deal_id" validate:"required,gt=0"`
}

// HoverRequest updates the candidate drop zone of the active drag session
type HoverRequest struct {
	TargetStage string `json:"target_stage" validate:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MoveResultResponse reports the settled outcome of an optimistic mutation
type MoveResultResponse struct {
	Committed  bool   `json:"committed"`
	RolledBack bool   `json:"rolled_back"`
	Notice     string `json:"notice,omitempty"`
	Deal       *Deal  `json:"deal"`
}

// BoardResponse groups the current deal set by stage for rendering
type BoardResponse struct {
	Version uint64         `json:"version"`
	Columns []BoardColumn  `json:"columns"`
	Totals  map[string]int `json:"totals"`
}

// BoardColumn is one kanban column in board order
type BoardColumn struct {
	Stage              string  `json:"stage"`
	Label              string  `json:"label"`
	Terminal           bool    `json:"terminal"`
	DefaultProbability int     `json:"default_probability"`
	Deals              []*Deal `json:"deals"`
}
