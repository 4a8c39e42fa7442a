package dragdrop

import (
	"context"
	"sync"
	"time"

	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/stage"
)

// Outcome classifies how a drag session resolved
type Outcome string

const (
	OutcomeMoved     Outcome = "moved"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeRejected  Outcome = "rejected"
)

// session is the state of one in-progress drag. Its presence on the
// coordinator means Dragging; nil means Idle. Dropped and Cancelled are
// resolutions that clear it, so "dragging with no active deal" cannot exist.
type session struct {
	dealID      int
	originStage stage.Stage
	hoverTarget stage.Stage
	startedAt   time.Time
}

// SessionView is the active drag state exposed for rendering drag affordances
type SessionView struct {
	Active      bool      `json:"active"`
	DealID      int       `json:"deal_id,omitempty"`
	OriginStage string    `json:"origin_stage,omitempty"`
	HoverTarget string    `json:"hover_target,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
}

// DropResult reports how a drop resolved
type DropResult struct {
	Outcome Outcome             `json:"outcome"`
	Reason  string              `json:"reason,omitempty"`
	Move    *domain.MoveOutcome `json:"move,omitempty"`
}

// Coordinator tracks the single drag interaction session. Only one drag may
// be active at a time; it never mutates the deal store directly, handing a
// validated drop to the pipeline instead. Local validation failures never
// reach the network.
type Coordinator struct {
	mu      sync.Mutex
	active  *session
	reader  domain.DealReader
	mover   domain.StageMover
	notices *NoticeBoard
	log     logger.Logger
}

// NewCoordinator creates an idle drag/drop coordinator
func NewCoordinator(reader domain.DealReader, mover domain.StageMover, notices *NoticeBoard, log logger.Logger) *Coordinator {
	return &Coordinator{
		reader:  reader,
		mover:   mover,
		notices: notices,
		log:     log,
	}
}

// Begin starts a drag session for a deal card. Starting while another
// session is active is rejected; the board does not support concurrent drags.
func (c *Coordinator) Begin(dealID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return domain.NewDragActiveError()
	}
	deal, ok := c.reader.Get(dealID)
	if !ok {
		return domain.NewNotFoundError("deal")
	}
	c.active = &session{
		dealID:      dealID,
		originStage: stage.Stage(deal.Stage),
		startedAt:   time.Now(),
	}
	c.log.Debug("drag started", "deal_id", dealID, "origin", deal.Stage)
	return nil
}

// Hover updates the candidate drop zone while dragging. Unknown zones are
// recorded as-is; legality is resolved at drop time.
func (c *Coordinator) Hover(target stage.Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.NewConflictError("no active drag session")
	}
	c.active.hoverTarget = target
	return nil
}

// Drop resolves the active session against the current hover target.
//
// No recognized zone, or the card's own stage, cancels the session. A target
// the validator rejects produces a snap-back notice without touching the
// backend. An allowed target hands (dealID, from, to) to the pipeline.
func (c *Coordinator) Drop(ctx context.Context) (*DropResult, error) {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return nil, domain.NewConflictError("no active drag session")
	}
	sess := *c.active
	c.active = nil
	c.mu.Unlock()

	if sess.hoverTarget == "" || sess.hoverTarget == sess.originStage {
		c.log.Debug("drag cancelled on drop", "deal_id", sess.dealID)
		return &DropResult{Outcome: OutcomeCancelled}, nil
	}

	decision := stage.CanTransition(sess.originStage, sess.hoverTarget)
	if !decision.Allowed {
		if decision.Reason == stage.ReasonNoOp {
			return &DropResult{Outcome: OutcomeCancelled}, nil
		}
		c.notices.Add(sess.dealID, string(decision.Reason), "Move rejected, card returned to its stage")
		c.log.Info("drop rejected by validator",
			"deal_id", sess.dealID, "from", sess.originStage, "to", sess.hoverTarget, "reason", decision.Reason)
		return &DropResult{Outcome: OutcomeRejected, Reason: string(decision.Reason)}, nil
	}

	outcome, err := c.mover.ApplyStageMove(ctx, sess.dealID, string(sess.hoverTarget))
	if err != nil {
		return nil, err
	}
	if outcome.RolledBack {
		return &DropResult{Outcome: OutcomeRejected, Reason: domain.ErrCodeRemoteRejection, Move: outcome}, nil
	}
	return &DropResult{Outcome: OutcomeMoved, Move: outcome}, nil
}

// Cancel aborts the active session with no network effect
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.NewConflictError("no active drag session")
	}
	c.log.Debug("drag cancelled", "deal_id", c.active.dealID)
	c.active = nil
	return nil
}

// Session returns the current drag state for rendering
func (c *Coordinator) Session() SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return SessionView{Active: false}
	}
	return SessionView{
		Active:      true,
		DealID:      c.active.dealID,
		OriginStage: string(c.active.originStage),
		HoverTarget: string(c.active.hoverTarget),
		StartedAt:   c.active.startedAt,
	}
}
