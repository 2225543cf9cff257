package process

import (
	"time"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/memory"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

// Process is one process table entry. It is owned by the Manager; nothing
// outside this package holds a reference to a live entry.
type Process struct {
	PID     types.PID
	State   types.State
	Reason  types.BlockReason
	Context Context // valid only while not Running
	Space   *memory.Space
	Quantum int // ticks remaining in the current slice
	Entry   uint64

	// wake carries an error indication set when the process is unblocked
	// because its blocking operation failed (peer terminated). Consumed by
	// the process's next send or receive.
	wake error

	CreatedAt time.Time
}

// Info is the copy-on-read view of a process handed to callers
type Info struct {
	PID       types.PID         `json:"pid"`
	State     types.State       `json:"state"`
	Reason    types.BlockReason `json:"reason,omitempty"`
	Quantum   int               `json:"quantum"`
	Entry     uint64            `json:"entry"`
	Frames    int               `json:"frames"`
	WakeError string            `json:"wake_error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (p *Process) info() Info {
	in := Info{
		PID:       p.PID,
		State:     p.State,
		Reason:    p.Reason,
		Quantum:   p.Quantum,
		Entry:     p.Entry,
		CreatedAt: p.CreatedAt,
	}
	if p.Space != nil {
		in.Frames = p.Space.Size()
	}
	if p.wake != nil {
		in.WakeError = p.wake.Error()
	}
	return in
}
