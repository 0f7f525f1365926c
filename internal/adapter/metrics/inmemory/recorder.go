// Package inmemory counts command outcomes in process, for the operator
// endpoint. Nothing here survives a restart.
package inmemory

import "sync"

type Snapshot struct {
	CommandTotal   uint64            `json:"command_total"`
	CommandHandled uint64            `json:"command_handled"`
	CommandBusy    uint64            `json:"command_busy"`
	CommandFailure uint64            `json:"command_failure"`
	ByCommand      map[string]uint64 `json:"by_command"`
}

type Recorder struct {
	mu        sync.Mutex
	handled   uint64
	busy      uint64
	failure   uint64
	byCommand map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byCommand: map[string]uint64{},
	}
}

func (r *Recorder) RecordHandled(command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled++
	r.byCommand[command]++
}

func (r *Recorder) RecordBusy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		CommandHandled: r.handled,
		CommandBusy:    r.busy,
		CommandFailure: r.failure,
		CommandTotal:   r.handled + r.busy + r.failure,
		ByCommand:      make(map[string]uint64, len(r.byCommand)),
	}
	for k, v := range r.byCommand {
		out.ByCommand[k] = v
	}
	return out
}
