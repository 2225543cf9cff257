package ipc

import (
	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/memory"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

// staged is a message copied into kernel-owned staging storage. It owns one
// frame for the payload copy, freed when the message is copied out to the
// receiver or discarded at termination.
type staged struct {
	msg   *types.Message
	frame memory.FrameID
}

// waiter is a sender blocked on a full mailbox, FIFO-ordered
type waiter struct {
	sender types.PID
	st     staged
}

// mailbox is the per-process bounded buffer of pending messages plus at most
// one pending-receiver marker. It never simultaneously holds a pending
// receiver and a queued message: arrival with a pending receiver transfers
// ownership to the delivered slot and unblocks, bypassing the queue.
//
// Queued messages are FIFO by arrival across all senders; there is no
// per-sender ordering guarantee beyond that.
type mailbox struct {
	queue     []staged
	pending   bool    // owner is blocked waiting for a message
	delivered *staged // direct-delivery slot, consumed by the next receive
	sendq     []waiter
}

// BoxInfo is the copy-on-read view of a mailbox
type BoxInfo struct {
	Owner          types.PID   `json:"owner"`
	Queued         int         `json:"queued"`
	PendingRecv    bool        `json:"pending_receiver"`
	BlockedSenders []types.PID `json:"blocked_senders,omitempty"`
}

func (b *mailbox) info(owner types.PID) BoxInfo {
	in := BoxInfo{
		Owner:       owner,
		Queued:      len(b.queue),
		PendingRecv: b.pending,
	}
	for _, w := range b.sendq {
		in.BlockedSenders = append(in.BlockedSenders, w.sender)
	}
	return in
}
