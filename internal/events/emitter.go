package events

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/drop-oss/dropd/internal/domain"
)

const historySize = 100

// Emitter implements app.Notifier: it stamps each status transition with a
// ksuid (chronologically sortable) and fans it out to subscribers, keeping
// a bounded history for pollers that weren't listening at the time.
type Emitter struct {
	mu      sync.Mutex
	history []domain.StatusEvent
	subs    map[chan domain.StatusEvent]struct{}
}

func NewEmitter() *Emitter {
	return &Emitter{
		subs: make(map[chan domain.StatusEvent]struct{}),
	}
}

// Emit records and fans out one event. It is called from the download
// manager's signal handlers, so it must never block: a subscriber that
// can't keep up loses events instead of stalling the scheduler.
func (e *Emitter) Emit(ev domain.StatusEvent) {
	ev.ID = ksuid.New().String()
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, ev)
	if len(e.history) > historySize {
		e.history = e.history[len(e.history)-historySize:]
	}

	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop
		}
	}
}

// Recent returns a copy of the retained event history, oldest first.
func (e *Emitter) Recent() []domain.StatusEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.StatusEvent, len(e.history))
	copy(out, e.history)
	return out
}

// Subscribe returns a channel that receives future events. The channel is
// buffered; a full buffer drops events rather than blocking Emit.
func (e *Emitter) Subscribe() chan domain.StatusEvent {
	ch := make(chan domain.StatusEvent, 16)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()
	return ch
}

func (e *Emitter) Unsubscribe(ch chan domain.StatusEvent) {
	e.mu.Lock()
	delete(e.subs, ch)
	e.mu.Unlock()
	close(ch)
}
