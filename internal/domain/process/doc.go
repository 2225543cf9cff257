// Package process implements the process table and the round-robin scheduler.
//
// State machine, per process:
//
//	Created -> Ready -> Running -> {Ready | Blocked | Terminated}
//	Blocked -> Ready only via Unblock; Terminated is absorbing.
//
// The ready queue is strict FIFO: insertion at the tail, removal at the head.
// Among N continuously Ready processes each receives exactly one quantum
// before any receives a second. Exactly one process is Running at any
// instant, or none when the queue is empty (the interrupt handler still
// runs).
//
// The Manager does no internal locking; the kernel context serializes all
// entry points under its interrupt-mask lock, which also makes every
// transition deterministic for tests.
package process
