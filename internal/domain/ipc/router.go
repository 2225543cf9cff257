package ipc

import (
	"fmt"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/memory"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"go.uber.org/zap"
)

// Config holds IPC tuning
type Config struct {
	Capacity   int // queued messages per mailbox
	MaxPayload int // bytes
}

// Scheduler is the slice of the process manager IPC needs, for dependency
// injection in tests
type Scheduler interface {
	Alive(pid types.PID) bool
	Blocked(pid types.PID) bool
	Block(pid types.PID, reason types.BlockReason) error
	Unblock(pid types.PID, wake error)
}

// Router owns every mailbox and implements the blocking send/receive
// protocol. Like the process manager it does no internal locking; the kernel
// serializes all entry points.
type Router struct {
	cfg     Config
	boxes   map[types.PID]*mailbox
	sched   Scheduler
	alloc   memory.Allocator
	blocked int // senders currently blocked across all mailboxes

	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewRouter creates the IPC router
func NewRouter(cfg Config, sched Scheduler, alloc memory.Allocator, log *logging.Logger) *Router {
	return &Router{
		cfg:   cfg,
		boxes: make(map[types.PID]*mailbox),
		sched: sched,
		alloc: alloc,
		log:   log,
	}
}

// WithMetrics adds metrics tracking to the router
func (r *Router) WithMetrics(metrics *monitoring.Metrics) *Router {
	r.metrics = metrics
	return r
}

// Attach creates the mailbox for a new process
func (r *Router) Attach(pid types.PID) {
	if _, ok := r.boxes[pid]; ok {
		panic(fmt.Sprintf("ipc: pid %d already has a mailbox", pid))
	}
	r.boxes[pid] = &mailbox{}
}

// Send passes a message from sender to receiver. Three paths, in order:
// direct delivery to a pending receiver (no blocking), queueing while
// capacity remains (no blocking), and blocking the sender FIFO behind the
// full mailbox. The payload is staged into kernel storage in all three.
func (r *Router) Send(sender, receiver types.PID, payload []byte) error {
	if len(payload) > r.cfg.MaxPayload {
		return fmt.Errorf("payload %d exceeds limit %d: %w", len(payload), r.cfg.MaxPayload, types.ErrInvalidArgument)
	}
	if r.sched.Blocked(sender) {
		// A Blocked process has a send or receive in flight already
		return fmt.Errorf("send from blocked pid %d: %w", sender, types.ErrInvalidArgument)
	}

	box, ok := r.boxes[receiver]
	if !ok || !r.sched.Alive(receiver) {
		// The sender is not blocked in this case
		return fmt.Errorf("send to pid %d: %w", receiver, types.ErrNoSuchProcess)
	}

	st, err := r.stage(sender, receiver, payload)
	if err != nil {
		return err
	}

	if r.deliver(receiver, box, st) {
		if r.metrics != nil {
			r.metrics.RecordMessageSent()
		}
		return nil
	}

	// Mailbox full and nobody waiting: block the sender behind it
	box.sendq = append(box.sendq, waiter{sender: sender, st: st})
	if err := r.sched.Block(sender, types.BlockOnSend); err != nil {
		box.sendq = box.sendq[:len(box.sendq)-1]
		r.discard(st)
		return err
	}
	r.blocked++
	r.publishGauges()

	r.log.Debug("sender blocked on full mailbox",
		zap.Uint32("sender", uint32(sender)),
		zap.Uint32("receiver", uint32(receiver)),
	)
	return types.ErrWouldBlock
}

// Receive returns the next message for pid: the direct-delivery slot first,
// then the FIFO queue. A dequeue that frees space promotes the first blocked
// sender's staged message into the queue and unblocks that sender. With
// nothing pending the process becomes the mailbox's pending receiver and
// blocks.
func (r *Router) Receive(pid types.PID) (*types.Message, error) {
	box, ok := r.boxes[pid]
	if !ok {
		return nil, fmt.Errorf("receive for pid %d: %w", pid, types.ErrNoSuchProcess)
	}
	if box.pending || r.sched.Blocked(pid) {
		// A stray second receive must not clobber the pending-receiver
		// marker: the first one still owns the next delivery.
		return nil, fmt.Errorf("pid %d already waiting: %w", pid, types.ErrInvalidArgument)
	}

	if box.delivered != nil {
		st := *box.delivered
		box.delivered = nil
		return r.consume(st), nil
	}

	if len(box.queue) > 0 {
		st := box.queue[0]
		box.queue = box.queue[1:]
		r.promote(box)
		return r.consume(st), nil
	}

	box.pending = true
	if err := r.sched.Block(pid, types.BlockOnReceive); err != nil {
		box.pending = false
		return nil, err
	}
	return nil, types.ErrWouldBlock
}

// DeliverDirect injects a message without ever blocking: the path interrupt
// dispatch uses. Returns ErrResourceExhausted when the mailbox is full so the
// caller can count the drop.
func (r *Router) DeliverDirect(msg *types.Message) error {
	box, ok := r.boxes[msg.Receiver]
	if !ok || !r.sched.Alive(msg.Receiver) {
		return fmt.Errorf("deliver to pid %d: %w", msg.Receiver, types.ErrNoSuchProcess)
	}

	st, err := r.stage(msg.Sender, msg.Receiver, msg.Payload)
	if err != nil {
		return err
	}
	if !r.deliver(msg.Receiver, box, st) {
		r.discard(st)
		return fmt.Errorf("mailbox of pid %d full: %w", msg.Receiver, types.ErrResourceExhausted)
	}
	if r.metrics != nil {
		r.metrics.RecordMessageSent()
	}
	return nil
}

// Detach destroys pid's mailbox and scrubs every reference to pid from the
// others, atomically with the caller's state transition: queued and staged
// messages from pid are discarded, senders blocked on pid's mailbox are
// unblocked with an error indication, and no receiver is left referencing the
// terminated process.
func (r *Router) Detach(pid types.PID) {
	box, ok := r.boxes[pid]
	if !ok {
		return
	}

	for _, st := range box.queue {
		r.discard(st)
	}
	if box.delivered != nil {
		r.discard(*box.delivered)
	}
	for _, w := range box.sendq {
		r.discard(w.st)
		r.blocked--
		r.sched.Unblock(w.sender, fmt.Errorf("receiver %d terminated: %w", pid, types.ErrNoSuchProcess))
	}
	delete(r.boxes, pid)

	// Scrub pid as a sender everywhere else
	for _, other := range r.boxes {
		kept := other.queue[:0]
		for _, st := range other.queue {
			if st.msg.Sender == pid {
				r.discard(st)
				continue
			}
			kept = append(kept, st)
		}
		other.queue = kept

		keptW := other.sendq[:0]
		for _, w := range other.sendq {
			if w.sender == pid {
				r.discard(w.st)
				r.blocked--
				continue
			}
			keptW = append(keptW, w)
		}
		other.sendq = keptW

		if other.delivered != nil && other.delivered.msg.Sender == pid {
			r.discard(*other.delivered)
			other.delivered = nil
		}
	}
	r.publishGauges()
}

// Box returns the copy-on-read view of pid's mailbox
func (r *Router) Box(pid types.PID) (BoxInfo, bool) {
	box, ok := r.boxes[pid]
	if !ok {
		return BoxInfo{}, false
	}
	return box.info(pid), true
}

// BlockedSenders reports senders blocked across all mailboxes
func (r *Router) BlockedSenders() int {
	return r.blocked
}

// stage copies the payload into kernel-owned staging storage backed by one
// frame
func (r *Router) stage(sender, receiver types.PID, payload []byte) (staged, error) {
	frame, err := r.alloc.AllocFrame()
	if err != nil {
		return staged{}, fmt.Errorf("stage message: %w", err)
	}
	msg := &types.Message{Sender: sender, Receiver: receiver}
	msg.Payload = append([]byte(nil), payload...)
	return staged{msg: msg, frame: frame}, nil
}

// deliver places a staged message with the receiver: the delivered slot when
// a receiver is pending (rendezvous, bypassing the queue), else the queue
// while capacity remains. Returns false when the mailbox is full.
func (r *Router) deliver(receiver types.PID, box *mailbox, st staged) bool {
	if box.pending {
		box.pending = false
		box.delivered = &st
		r.sched.Unblock(receiver, nil)
		return true
	}
	if len(box.queue) < r.cfg.Capacity {
		box.queue = append(box.queue, st)
		return true
	}
	return false
}

// consume copies a staged message out to the receiver and releases its frame
func (r *Router) consume(st staged) *types.Message {
	if err := r.alloc.FreeFrame(st.frame); err != nil {
		panic(fmt.Sprintf("ipc: staging frame %d: %v", st.frame, err))
	}
	if r.metrics != nil {
		r.metrics.RecordMessageDelivered()
	}
	return st.msg
}

// discard drops a staged message that will never be received
func (r *Router) discard(st staged) {
	if err := r.alloc.FreeFrame(st.frame); err != nil {
		panic(fmt.Sprintf("ipc: staging frame %d: %v", st.frame, err))
	}
}

// promote services the first blocked sender once a dequeue frees capacity
func (r *Router) promote(box *mailbox) {
	if len(box.sendq) == 0 || len(box.queue) >= r.cfg.Capacity {
		return
	}
	w := box.sendq[0]
	box.sendq = box.sendq[1:]
	box.queue = append(box.queue, w.st)
	r.blocked--
	r.sched.Unblock(w.sender, nil)
	if r.metrics != nil {
		r.metrics.RecordMessageSent()
	}
	r.publishGauges()
}

func (r *Router) publishGauges() {
	if r.metrics != nil {
		r.metrics.SendersBlocked.Set(float64(r.blocked))
	}
}
