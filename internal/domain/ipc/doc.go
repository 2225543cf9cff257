// Package ipc implements synchronous message passing between processes:
// bounded per-process mailboxes, a rendezvous fast path for an
// already-waiting receiver, and FIFO backpressure for senders blocked on a
// full mailbox.
//
// Payload transfer is copy-only. A message is copied into kernel-owned
// staging storage at send time and copied out at receive time; no two
// address spaces ever alias the same bytes. The bound on each mailbox is the
// backpressure mechanism: a fast producer blocks instead of growing kernel
// memory without limit.
package ipc
