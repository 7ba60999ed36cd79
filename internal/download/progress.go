package download

import "sync"

// Progress collects bytes transferred for one job. Each chunk writes through
// its own slot so an interrupted chunk can be rewound to zero without
// touching the counts of chunks that already finished.
//
// The object exists from agent construction so the manager can bind it
// before the manifest is known; Init sizes it once the chunk layout is.
type Progress struct {
	mu    sync.Mutex
	slots []int64
	total int64
}

func NewProgress() *Progress {
	return &Progress{}
}

// Init sets the chunk count and the byte target. Called once, by the agent,
// after the manifest fetch.
func (p *Progress) Init(chunks int, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = make([]int64, chunks)
	p.total = total
}

// Handle returns the writer side for one chunk slot.
func (p *Progress) Handle(slot int) ProgressHandle {
	return ProgressHandle{p: p, slot: slot}
}

// Snapshot returns the current and target byte counts. Readers poll this at
// their own cadence; it is a point-in-time value, not a subscription.
func (p *Progress) Snapshot() (current, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.slots {
		current += n
	}
	return current, p.total
}

// ProgressHandle is the single-writer view of one chunk's slot.
type ProgressHandle struct {
	p    *Progress
	slot int
}

func (h ProgressHandle) Add(n int64) {
	h.p.mu.Lock()
	h.p.slots[h.slot] += n
	h.p.mu.Unlock()
}

// Set overwrites the slot; Set(0) rewinds a chunk that is being restarted
// from its offset after a pause.
func (h ProgressHandle) Set(n int64) {
	h.p.mu.Lock()
	h.p.slots[h.slot] = n
	h.p.mu.Unlock()
}
