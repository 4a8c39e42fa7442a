package store

import (
	"sort"
	"sync"

	"github.com/jordanlanch/dealboard/pkg/models"
)

// Store is the in-memory deal collection the board renders from. It is the
// single source of truth for the current tenant's deals; the external backend
// remains authoritative across restarts.
//
// Reads go through the DealReader interface; only the pipeline and the
// refresh job hold the write surface. A RWMutex guards the map since the Go
// runtime, unlike a browser event loop, interleaves handlers in parallel.
type Store struct {
	mu      sync.RWMutex
	deals   map[int]*models.Deal
	version uint64

	subMu   sync.Mutex
	subs    map[int]chan uint64
	nextSub int
}

// New creates an empty deal store
func New() *Store {
	return &Store{
		deals: make(map[int]*models.Deal),
		subs:  make(map[int]chan uint64),
	}
}

// Get returns a copy-safe pointer to the deal with the given id
func (s *Store) Get(id int) (*models.Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deals[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// List returns all deals ordered by id. The returned deals are clones;
// mutating them never touches store state.
func (s *Store) List() []*models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByStage returns all deals currently in the given stage, ordered by id
func (s *Store) ByStage(stage string) []*models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Deal, 0)
	for _, d := range s.deals {
		if d.Stage == stage {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of deals in the store
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deals)
}

// Version returns the monotonically increasing change counter
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Put inserts or replaces a single deal and bumps the version
func (s *Store) Put(deal *models.Deal) {
	s.mu.Lock()
	s.deals[deal.ID] = deal.Clone()
	s.version++
	v := s.version
	s.mu.Unlock()
	s.notify(v)
}

// Load replaces the whole deal set, used on startup and scheduled refresh.
// This bypasses the pipeline: it is a wholesale sync from the backend, not a
// per-deal mutation.
func (s *Store) Load(deals []*models.Deal) {
	s.mu.Lock()
	s.deals = make(map[int]*models.Deal, len(deals))
	for _, d := range deals {
		s.deals[d.ID] = d.Clone()
	}
	s.version++
	v := s.version
	s.mu.Unlock()
	s.notify(v)
}

// Restore puts back a pre-mutation snapshot verbatim after a failed remote
// call. The version still bumps so subscribers re-render the rolled-back state.
func (s *Store) Restore(snapshot *models.Deal) {
	s.Put(snapshot)
}

// Subscribe registers a change listener. Each store change delivers the new
// version on the channel; slow subscribers drop intermediate versions rather
// than block the mutation path. Cancel releases the subscription.
func (s *Store) Subscribe() (<-chan uint64, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan uint64, 1)
	s.subs[id] = ch
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Store) notify(version uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- version:
		default:
			// Subscriber is behind; it will catch up on the next change.
		}
	}
}
