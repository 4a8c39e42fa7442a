package dragdrop

import (
	"sync"
	"time"
)

// Notice is a brief, auto-dismissing message for the presentation layer,
// used for rejected and rolled-back moves. Successful moves stay silent.
type Notice struct {
	Message   string    `json:"message"`
	Reason    string    `json:"reason"`
	DealID    int       `json:"deal_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NoticeBoard holds pending transient notices
type NoticeBoard struct {
	mu      sync.Mutex
	ttl     time.Duration
	notices []Notice
	now     func() time.Time
}

// NewNoticeBoard creates a notice board with the given auto-dismiss TTL
func NewNoticeBoard(ttl time.Duration) *NoticeBoard {
	return &NoticeBoard{ttl: ttl, now: time.Now}
}

// Add posts a notice that expires after the board's TTL
func (b *NoticeBoard) Add(dealID int, reason, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.notices = append(b.notices, Notice{
		Message:   message,
		Reason:    reason,
		DealID:    dealID,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	})
}

// Pending returns notices that have not expired yet, pruning the rest
func (b *NoticeBoard) Pending() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	live := b.notices[:0]
	for _, n := range b.notices {
		if n.ExpiresAt.After(now) {
			live = append(live, n)
		}
	}
	b.notices = live
	out := make([]Notice, len(live))
	copy(out, live)
	return out
}
