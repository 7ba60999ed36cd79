package download

import "sync/atomic"

// FlagState is the cooperative control state a worker polls inside its copy
// loop.
type FlagState int32

const (
	FlagGo FlagState = iota
	FlagPause
	FlagStop
)

func (s FlagState) String() string {
	switch s {
	case FlagGo:
		return "go"
	case FlagPause:
		return "pause"
	case FlagStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ControlFlag is the shared tri-state signal between the manager and one
// job's worker. There is no queue of transitions: the last writer wins and
// readers poll, so a Stop takes effect within one copy increment rather than
// instantaneously. That latency is the price of never killing a worker
// mid-write.
type ControlFlag struct {
	v atomic.Int32
}

func NewControlFlag(initial FlagState) *ControlFlag {
	f := &ControlFlag{}
	f.v.Store(int32(initial))
	return f
}

func (f *ControlFlag) Set(s FlagState) {
	f.v.Store(int32(s))
}

func (f *ControlFlag) Get() FlagState {
	return FlagState(f.v.Load())
}
