// Package kernel assembles the execution core: process manager, IPC router,
// interrupt controller and memory manager behind a single kernel context
// object with one interrupt-mask lock.
//
// All kernel state is owned by the Kernel value and threaded explicitly;
// there are no package-level singletons, which keeps every transition
// deterministic for tests. Hardware is simulated by calling
// DispatchInterrupt directly.
package kernel
