// Package types defines the shared vocabulary of the kernel core: process
// identifiers and states, IPC messages, and the error kinds surfaced to
// syscall callers.
package types
