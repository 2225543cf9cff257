package types

// PID identifies a process. PIDs are allocated from a monotonic counter and
// never reused while any reference to them is outstanding.
type PID uint32

// KernelPID is the reserved sender identity for messages the kernel itself
// synthesizes (interrupt events). It never appears in the process table.
const KernelPID PID = 0

// State represents process scheduling states
type State string

const (
	StateCreated    State = "created"
	StateReady      State = "ready"
	StateRunning    State = "running"
	StateBlocked    State = "blocked"
	StateTerminated State = "terminated"
)

// BlockReason records why a process left the Running state for Blocked
type BlockReason string

const (
	BlockNone      BlockReason = ""
	BlockOnSend    BlockReason = "waiting_to_send"
	BlockOnReceive BlockReason = "waiting_to_receive"
)
