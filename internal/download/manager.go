package download

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/drop-oss/dropd/internal/app"
	"github.com/drop-oss/dropd/internal/domain"
	"github.com/drop-oss/dropd/internal/remote"
)

// ManagerStatus is the coarse, process-wide state observers poll.
type ManagerStatus int

const (
	StatusEmpty ManagerStatus = iota
	StatusDownloading
	StatusPaused
	StatusErrored
)

func (s ManagerStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusDownloading:
		return "downloading"
	case StatusPaused:
		return "paused"
	case StatusErrored:
		return "error"
	default:
		return "unknown"
	}
}

type signalKind int

const (
	sigGo signalKind = iota
	sigStop
	sigQueue
	sigCompleted
	sigError
	sigCancel
	sigFinish
)

// signal is one command on the manager's channel. Signals are processed
// strictly one at a time, in arrival order.
type signal struct {
	kind       signalKind
	id         string
	version    string
	installDir string
	err        error
}

// runner is the per-job transfer worker the manager supervises. *Agent is
// the production implementation.
type runner interface {
	Run(ctx context.Context) (bool, error)
	Flag() *ControlFlag
	Progress() *Progress
}

// Manager is the single consumer of download signals. The Run loop is the
// only goroutine that touches the queue, the agent registry, and the
// active-job bindings; every id in the queue has exactly one registry entry
// because both are only mutated together, inside one signal handler.
//
// Workers are fire-and-forget: the Go handler spawns one goroutine per
// admitted job, and completion comes back asynchronously as a Completed or
// Error signal on the same channel. At most one worker transfers at a time.
type Manager struct {
	app      *app.Context
	newAgent func(gameID, version, installDir string) runner

	commands chan signal
	goCh     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Loop-owned state; never touched outside signal handlers.
	registry   map[string]runner
	queue      *Queue
	activeID   string
	activeFlag *ControlFlag
	activeDone chan struct{}
	draining   map[string]chan struct{}

	// Observer-facing state.
	mu             sync.RWMutex
	status         ManagerStatus
	lastErr        error
	activeProgress *Progress
}

// NewManager wires a manager against the shared app context and a Drop
// client. Call Run (usually on its own goroutine) to start consuming
// signals.
func NewManager(appCtx *app.Context, client *remote.Client) *Manager {
	opts := Options{
		BufferSize:   appCtx.Config.Download.BufferSize,
		MinFreeSpace: appCtx.Config.Download.MinFreeSpace,
	}
	if limit := appCtx.Config.Download.RateLimit; limit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(limit), limit)
	}

	m := &Manager{
		app:      appCtx,
		commands: make(chan signal, 32),
		goCh:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		registry: make(map[string]runner),
		draining: make(map[string]chan struct{}),
		queue:    NewQueue(),
		status:   StatusEmpty,
	}
	m.newAgent = func(gameID, version, installDir string) runner {
		return NewAgent(client, appCtx.Logger, gameID, version, installDir, opts)
	}
	return m
}

// Run consumes signals until Shutdown. Terminal: once the loop exits it is
// not restartable.
func (m *Manager) Run() {
	defer close(m.done)

	for {
		select {
		case sig := <-m.commands:
			if finish := m.handle(sig); finish {
				return
			}
		case <-m.goCh:
			m.handleGo()
		}
	}
}

func (m *Manager) handle(sig signal) (finish bool) {
	switch sig.kind {
	case sigGo:
		m.handleGo()
	case sigStop:
		m.handleStop()
	case sigQueue:
		m.handleQueue(sig.id, sig.version, sig.installDir)
	case sigCompleted:
		m.handleCompleted(sig.id)
	case sigError:
		m.handleError(sig.id, sig.err)
	case sigCancel:
		m.handleCancel(sig.id)
	case sigFinish:
		if m.activeFlag != nil {
			m.activeFlag.Set(FlagStop)
		}
		return true
	}
	return false
}

// handleQueue admits a job: fresh agent into the registry, matching handle
// onto the queue. It never starts the job.
func (m *Manager) handleQueue(id, version, installDir string) {
	if _, exists := m.registry[id]; exists {
		m.app.Logger.Warn("Game %s is already queued, ignoring", id)
		return
	}

	for key, ch := range m.draining {
		select {
		case <-ch:
			delete(m.draining, key)
		default:
		}
	}

	// A cancelled worker for this id may still be unwinding toward its next
	// poll point; it must exit before a fresh agent can touch the same files
	if ch, ok := m.draining[id]; ok {
		<-ch
		delete(m.draining, id)
	}

	m.app.Logger.Info("Queueing download for %s@%s", id, version)

	m.registry[id] = m.newAgent(id, version, installDir)
	m.queue.Append(&domain.QueuedGame{ID: id, Status: domain.StatusQueued})

	m.setGameStatus(id, domain.StatusQueued)
}

// handleGo starts the front-of-queue job if nothing is already transferring.
// The handle stays queued until a Completed signal pops it.
func (m *Manager) handleGo() {
	if len(m.registry) == 0 || m.queue.Empty() {
		return
	}

	front, ok := m.queue.Front()
	if !ok {
		return
	}

	if m.activeID == front.ID {
		if status, _ := m.Status(); status == StatusDownloading {
			// Worker already running for this job
			return
		}
	}

	agent, ok := m.registry[front.ID]
	if !ok {
		// Queue and registry always move together; hitting this means a
		// handler broke the pairing
		m.app.Logger.Error("Queue entry %s has no registered agent", front.ID)
		return
	}

	m.activeID = front.ID
	m.activeFlag = agent.Flag()
	m.mu.Lock()
	m.activeProgress = agent.Progress()
	m.mu.Unlock()

	m.app.Logger.Info("Starting download for %s", front.ID)

	// The flag must already read Go on the worker's first poll; a resumed
	// run that sees a stale Stop exits straight away
	agent.Flag().Set(FlagGo)

	done := make(chan struct{})
	m.activeDone = done
	go func(id string, r runner) {
		defer close(done)
		completed, err := r.Run(context.Background())
		switch {
		case err != nil:
			m.send(signal{kind: sigError, id: id, err: err})
		case completed:
			m.send(signal{kind: sigCompleted, id: id})
		default:
			// Paused: the worker parks and a later Go resumes it
		}
	}(front.ID, agent)

	m.setStatus(StatusDownloading, nil)
	m.queue.SetStatus(front.ID, domain.StatusDownloading)
	m.setGameStatus(front.ID, domain.StatusDownloading)
}

// handleStop pauses the active job. It stays queued and registered; a later
// Go picks it back up.
func (m *Manager) handleStop() {
	if m.activeFlag == nil {
		return
	}
	m.app.Logger.Info("Pausing download for %s", m.activeID)
	m.activeFlag.Set(FlagStop)
	m.setStatus(StatusPaused, nil)
}

// handleCompleted finishes the active job: pop the queue, drop the registry
// entry, clear the active bindings, then nudge the loop to start whatever
// is next. A Completed for anything but the active id is a stale signal
// from a superseded worker and is ignored.
func (m *Manager) handleCompleted(id string) {
	if id != m.activeID {
		m.app.Logger.Warn("Ignoring stale Completed signal for %s", id)
		return
	}

	m.app.Logger.Info("Download for %s completed", id)

	m.queue.PopFront()
	delete(m.registry, id)
	m.clearActive()

	m.setGameStatus(id, domain.StatusInstalled)

	m.signalGo()
}

// handleError parks the failed job where it sits. The queue stays blocked
// on purpose: silently skipping a failed install could mask data problems,
// so an operator cancels it to move on.
func (m *Manager) handleError(id string, err error) {
	m.app.Logger.Error("Download for %s failed: %v", id, err)

	if id != "" && id == m.activeID {
		m.queue.SetStatus(id, domain.StatusError)
		m.setGameStatus(id, domain.StatusError)
	}
	m.setStatus(StatusErrored, err)
}

// handleCancel removes the job from both structures wherever it sits
// (front, middle, or currently transferring), then tries to start the new
// front.
func (m *Manager) handleCancel(id string) {
	if id == m.activeID {
		if m.activeFlag != nil {
			m.activeFlag.Set(FlagStop)
		}
		if m.activeDone != nil {
			m.draining[id] = m.activeDone
		}
		m.clearActive()
	}

	if _, ok := m.registry[id]; ok {
		delete(m.registry, id)
		m.queue.Remove(id)
		m.app.Logger.Info("Cancelled download for %s", id)
	} else {
		m.app.Logger.Warn("Cancel for unknown game %s, ignoring", id)
	}

	m.signalGo()
}

func (m *Manager) clearActive() {
	m.activeID = ""
	m.activeFlag = nil
	m.activeDone = nil
	m.mu.Lock()
	m.activeProgress = nil
	m.mu.Unlock()
	m.setStatus(StatusEmpty, nil)
}

// setGameStatus is the persistence callout on every per-job transition. A
// store failure is logged and swallowed: the in-memory transition must
// survive it.
func (m *Manager) setGameStatus(id string, status domain.GameStatus) {
	if err := m.app.Store.SaveGameStatus(id, status); err != nil {
		m.app.Logger.Warn("Could not persist status %q for %s: %v", status, id, err)
	}
	m.app.Notifier.Emit(domain.StatusEvent{GameID: id, Status: status})
}

func (m *Manager) setStatus(status ManagerStatus, err error) {
	m.mu.Lock()
	m.status = status
	m.lastErr = err
	m.mu.Unlock()
}

// send queues a signal, dropping it if the loop has already shut down (a
// worker finishing after Shutdown must not block forever).
func (m *Manager) send(sig signal) {
	select {
	case m.commands <- sig:
	case <-m.done:
	}
}

// signalGo nudges the loop to attempt the next job. The channel holds at
// most one pending wake; a second nudge while one is pending is redundant.
func (m *Manager) signalGo() {
	select {
	case m.goCh <- struct{}{}:
	default:
	}
}

// QueueGame admits a resolved job descriptor. Admission never starts the
// transfer; call Resume for that.
func (m *Manager) QueueGame(id, version, installDir string) {
	m.send(signal{kind: sigQueue, id: id, version: version, installDir: installDir})
}

// Resume asks the manager to start (or restart) the front-of-queue job.
func (m *Manager) Resume() {
	m.signalGo()
}

// Pause stops the active transfer at its next poll point.
func (m *Manager) Pause() {
	m.send(signal{kind: sigStop})
}

// Cancel removes a job entirely, whether it is waiting or transferring.
func (m *Manager) Cancel(id string) {
	m.send(signal{kind: sigCancel, id: id})
}

// Shutdown stops the active transfer, terminates the loop, and waits for it
// to exit. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		m.send(signal{kind: sigFinish})
	})
	<-m.done
}

// Status returns the manager-wide status and, when it is StatusErrored, the
// error that caused it.
func (m *Manager) Status() (ManagerStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.lastErr
}

// Progress snapshots the active job's byte counts. ok is false when no job
// is transferring, meaning there is no meaningful progress to show.
func (m *Manager) Progress() (current, total int64, ok bool) {
	m.mu.RLock()
	p := m.activeProgress
	m.mu.RUnlock()
	if p == nil {
		return 0, 0, false
	}
	current, total = p.Snapshot()
	return current, total, true
}

// Jobs returns a snapshot of the queue for observers.
func (m *Manager) Jobs() []domain.QueuedGame {
	return m.queue.Items()
}
