package types

import "errors"

// Error kinds surfaced to syscall callers. None of these is ever fatal to the
// kernel; invariant violations inside the core panic instead.
var (
	// ErrNoSuchProcess indicates an operation referenced an unknown or
	// terminated PID.
	ErrNoSuchProcess = errors.New("no such process")

	// ErrResourceExhausted indicates the process table or a mailbox is full.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrOutOfMemory indicates the frame allocator cannot satisfy a request.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidArgument indicates a logically-malformed request at the
	// dispatch boundary.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrWouldBlock reports that the calling process has been moved to
	// Blocked and the operation will complete after a matching partner
	// arrives. It is a scheduling condition, not a failure.
	ErrWouldBlock = errors.New("operation would block")
)
