package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/dragdrop"
	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/metrics"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/stage"
)

// Move outcomes as recorded in metrics
const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
	outcomeRejected   = "rejected"
)

// DealStore is the full store surface the pipeline needs: it is the only
// component holding write access.
type DealStore interface {
	domain.DealReader
	domain.DealWriter
}

// Service is the optimistic mutation pipeline. Every deal mutation follows
// the same shape: snapshot, tentative local apply, remote confirm, then
// commit the authoritative response or restore the snapshot verbatim.
//
// Moves on the same deal are serialized by rejection: a second move arriving
// while the first is still in flight fails with MOVE_IN_FLIGHT instead of
// racing its rollback against the first's commit. Different deals proceed
// independently.
type Service struct {
	store   DealStore
	backend domain.DealBackend
	notices *dragdrop.NoticeBoard
	metrics *metrics.Metrics
	log     logger.Logger

	// Reset probability to the target stage default on backward movement
	// instead of preserving the deal's override.
	resetProbabilityOnRegress bool

	mu       sync.Mutex
	inFlight map[int]struct{}

	now func() time.Time
}

// NewService creates the mutation pipeline
func NewService(store DealStore, backend domain.DealBackend, notices *dragdrop.NoticeBoard, m *metrics.Metrics, log logger.Logger, resetProbabilityOnRegress bool) *Service {
	return &Service{
		store:                     store,
		backend:                   backend,
		notices:                   notices,
		metrics:                   m,
		log:                       log,
		resetProbabilityOnRegress: resetProbabilityOnRegress,
		inFlight:                  make(map[int]struct{}),
		now:                       time.Now,
	}
}

// ApplyStageMove moves a deal to a new stage. A no-op target returns the
// current deal unchanged without calling the backend. Local validation
// failures (unknown stage, closed deal) error out before any mutation.
func (s *Service) ApplyStageMove(ctx context.Context, dealID int, toStage string) (*domain.MoveOutcome, error) {
	// Acquire before reading: the deal must be fetched and validated inside
	// the serialized section, or a move settling in between would leave this
	// one holding a stale snapshot whose restore clobbers the commit.
	if err := s.acquire(dealID); err != nil {
		return nil, err
	}
	defer s.release(dealID)

	deal, ok := s.store.Get(dealID)
	if !ok {
		return nil, domain.NewNotFoundError("deal")
	}

	from := stage.Stage(deal.Stage)
	to := stage.Stage(toStage)
	decision := stage.CanTransition(from, to)
	if !decision.Allowed {
		switch decision.Reason {
		case stage.ReasonNoOp:
			return &domain.MoveOutcome{Deal: deal}, nil
		case stage.ReasonDealClosed:
			s.metrics.RecordMove(outcomeRejected)
			return nil, domain.NewDealClosedError(dealID)
		default:
			s.metrics.RecordMove(outcomeRejected)
			return nil, domain.NewUnknownStageError(toStage)
		}
	}

	snapshot := deal.Clone()
	tentative := s.applyMoveLocally(deal, from, to)
	s.store.Put(tentative)

	s.metrics.MoveStarted()
	updated, err := s.backend.UpdateStage(ctx, dealID, toStage)
	s.metrics.MoveSettled()

	return s.reconcile(dealID, snapshot, updated, err, "Move reverted, the backend rejected the change")
}

// CloseDeal closes a deal as won. The close reason and actual value are
// required; commission is carried through to the backend payload.
func (s *Service) CloseDeal(ctx context.Context, dealID int, req models.CloseDealRequest) (*domain.MoveOutcome, error) {
	if req.CloseReason == "" {
		return nil, domain.NewValidationError("close_reason is required to close a deal")
	}
	if req.ActualValue <= 0 {
		return nil, domain.NewValidationError("actual_value must be positive to close a deal")
	}

	if err := s.acquire(dealID); err != nil {
		return nil, err
	}
	defer s.release(dealID)

	deal, ok := s.store.Get(dealID)
	if !ok {
		return nil, domain.NewNotFoundError("deal")
	}
	if decision := stage.CanTransition(stage.Stage(deal.Stage), stage.ClosedWon); !decision.Allowed {
		if decision.Reason == stage.ReasonDealClosed {
			return nil, domain.NewDealClosedError(dealID)
		}
		return &domain.MoveOutcome{Deal: deal}, nil
	}

	snapshot := deal.Clone()
	now := s.now()
	tentative := s.applyMoveLocally(deal, stage.Stage(deal.Stage), stage.ClosedWon)
	tentative.Probability = 100
	tentative.ActualValue = req.ActualValue
	tentative.CommissionEarned = req.CommissionEarned
	tentative.CloseReason = req.CloseReason
	tentative.ClosedAt = &now
	s.store.Put(tentative)

	s.metrics.MoveStarted()
	updated, err := s.backend.CloseDeal(ctx, dealID, req)
	s.metrics.MoveSettled()

	return s.reconcile(dealID, snapshot, updated, err, "Close reverted, the backend rejected the change")
}

// LoseDeal closes a deal as lost. Only the close reason is required.
func (s *Service) LoseDeal(ctx context.Context, dealID int, req models.LoseDealRequest) (*domain.MoveOutcome, error) {
	if req.CloseReason == "" {
		return nil, domain.NewValidationError("close_reason is required to lose a deal")
	}

	if err := s.acquire(dealID); err != nil {
		return nil, err
	}
	defer s.release(dealID)

	deal, ok := s.store.Get(dealID)
	if !ok {
		return nil, domain.NewNotFoundError("deal")
	}
	if decision := stage.CanTransition(stage.Stage(deal.Stage), stage.ClosedLost); !decision.Allowed {
		if decision.Reason == stage.ReasonDealClosed {
			return nil, domain.NewDealClosedError(dealID)
		}
		return &domain.MoveOutcome{Deal: deal}, nil
	}

	snapshot := deal.Clone()
	now := s.now()
	tentative := s.applyMoveLocally(deal, stage.Stage(deal.Stage), stage.ClosedLost)
	tentative.Probability = 0
	tentative.CloseReason = req.CloseReason
	tentative.ClosedAt = &now
	s.store.Put(tentative)

	s.metrics.MoveStarted()
	updated, err := s.backend.LoseDeal(ctx, dealID, req)
	s.metrics.MoveSettled()

	return s.reconcile(dealID, snapshot, updated, err, "Loss reverted, the backend rejected the change")
}

// applyMoveLocally builds the tentative deal the board renders before the
// network round-trip resolves. stageChangesCount and lastStageChangeDate
// always move together.
func (s *Service) applyMoveLocally(deal *models.Deal, from, to stage.Stage) *models.Deal {
	now := s.now()
	tentative := deal.Clone()
	tentative.Stage = string(to)
	tentative.StageChangesCount++
	tentative.LastStageChangeDate = &now
	tentative.UpdatedAt = now

	if s.resetProbabilityOnRegress && !stage.IsTerminal(to) {
		fromOrd, errFrom := stage.OrdinalOf(from)
		toOrd, errTo := stage.OrdinalOf(to)
		if errFrom == nil && errTo == nil && toOrd < fromOrd {
			if p, err := stage.DefaultProbability(to); err == nil {
				tentative.Probability = p
			}
		}
	}
	return tentative
}

// reconcile settles an in-flight mutation: commit the authoritative server
// deal, or restore the snapshot verbatim and surface a transient notice.
// Either way the store version bumps, so derived analytics recompute.
func (s *Service) reconcile(dealID int, snapshot, updated *models.Deal, err error, noticeMsg string) (*domain.MoveOutcome, error) {
	if err != nil {
		s.store.Restore(snapshot)
		s.metrics.RecordMove(outcomeRolledBack)
		s.metrics.RecordRollback()
		s.notices.Add(dealID, domain.ErrCodeRemoteRejection, noticeMsg)
		s.log.Warn("mutation rolled back", "deal_id", dealID, "error", err)
		s.metrics.SetStoreSize(s.store.Len())
		return &domain.MoveOutcome{
			Deal:       snapshot.Clone(),
			RolledBack: true,
			Notice:     noticeMsg,
		}, nil
	}

	s.store.Put(updated)
	s.metrics.RecordMove(outcomeCommitted)
	s.metrics.SetStoreSize(s.store.Len())
	s.log.Info("mutation committed", "deal_id", dealID, "stage", updated.Stage)
	return &domain.MoveOutcome{
		Deal:      updated.Clone(),
		Committed: true,
	}, nil
}

func (s *Service) acquire(dealID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[dealID]; busy {
		return domain.NewMoveInFlightError(dealID)
	}
	s.inFlight[dealID] = struct{}{}
	return nil
}

func (s *Service) release(dealID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, dealID)
}
