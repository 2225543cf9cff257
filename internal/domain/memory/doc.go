// Package memory implements the physical memory manager consumed by the
// scheduling and IPC core: a free-list frame allocator plus exclusively-owned
// address spaces backing process stacks and IPC payload staging.
//
// The core never does frame accounting itself; it allocates through the
// Allocator interface and releases a whole Space at process termination.
package memory
