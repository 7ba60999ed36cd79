package download

import (
	"sync"

	"github.com/drop-oss/dropd/internal/domain"
)

// Queue is the ordered list of games waiting to download. FIFO for
// admission and completion, but Remove works anywhere in the list so a
// queued-but-not-started job can be cancelled too.
//
// Only the manager loop mutates it; observers read copies through Items and
// Front. Every id in here has exactly one matching entry in the manager's
// agent registry; the two structures are only ever changed together,
// inside one signal handler.
type Queue struct {
	mu    sync.RWMutex
	items []*domain.QueuedGame
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Append(g *domain.QueuedGame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, g)
}

func (q *Queue) PopFront() *domain.QueuedGame {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	front := q.items[0]
	q.items = q.items[1:]
	return front
}

// Remove deletes the entry for id wherever it sits. Returns false if the id
// isn't queued.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, g := range q.items {
		if g.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Front returns a snapshot of the head entry, independent of later
// mutation.
func (q *Queue) Front() (domain.QueuedGame, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.items) == 0 {
		return domain.QueuedGame{}, false
	}
	return *q.items[0], true
}

func (q *Queue) Empty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items) == 0
}

// SetStatus updates the in-memory status shown next to the queue entry.
func (q *Queue) SetStatus(id string, status domain.GameStatus) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, g := range q.items {
		if g.ID == id {
			g.Status = status
			return true
		}
	}
	return false
}

// Items returns a copy of the queue for observers. The copy may be stale by
// the time the caller looks at it; re-read rather than assume consistency
// with other snapshots.
func (q *Queue) Items() []domain.QueuedGame {
	q.mu.RLock()
	defer q.mu.RUnlock()
	items := make([]domain.QueuedGame, len(q.items))
	for i, g := range q.items {
		items[i] = *g
	}
	return items
}
