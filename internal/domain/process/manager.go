package process

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/memory"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"go.uber.org/zap"
)

// Config holds scheduler tuning
type Config struct {
	Quantum      int // ticks per scheduling turn
	MaxProcesses int // process table capacity
	StackFrames  int // frames backing each process stack
}

// Manager owns the process table, the ready queue and the virtual CPU. It is
// the only component allowed to change a process's scheduling state. Callers
// serialize through the kernel's interrupt-mask lock; the Manager itself does
// no locking.
type Manager struct {
	cfg     Config
	procs   map[types.PID]*Process
	ready   []types.PID // FIFO: insert at tail, remove at head
	current types.PID   // KernelPID when idle
	nextPID types.PID
	cpu     Context // live register file of the running process
	live    int     // non-terminated entries

	mem     *memory.Manager
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a process manager backed by mem
func NewManager(cfg Config, mem *memory.Manager, log *logging.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		procs:   make(map[types.PID]*Process, cfg.MaxProcesses),
		ready:   make([]types.PID, 0, cfg.MaxProcesses),
		current: types.KernelPID,
		nextPID: types.KernelPID + 1,
		mem:     mem,
		log:     log,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Create allocates a PID and a fresh address space, places the process on the
// ready-queue tail with a full quantum, and starts it immediately when the
// CPU is idle. PIDs are never reused.
func (m *Manager) Create(entry uint64) (types.PID, error) {
	if m.live >= m.cfg.MaxProcesses {
		return 0, fmt.Errorf("process table full at %d: %w", m.cfg.MaxProcesses, types.ErrResourceExhausted)
	}

	space, err := m.mem.NewSpace(m.cfg.StackFrames)
	if err != nil {
		// Creation fails without side effects
		return 0, fmt.Errorf("create process: %w", err)
	}

	pid := m.nextPID
	m.nextPID++

	p := &Process{
		PID:       pid,
		State:     types.StateCreated,
		Space:     space,
		Quantum:   m.cfg.Quantum,
		Entry:     entry,
		CreatedAt: time.Now(),
	}
	p.Context.PC = entry
	p.Context.SP = memory.StackBase

	m.procs[pid] = p
	m.live++
	m.setReady(p)

	m.log.Info("process created",
		zap.Uint32("pid", uint32(pid)),
		zap.Uint64("entry", entry),
	)
	m.publishGauges()

	if m.current == types.KernelPID {
		m.schedule()
	}
	return pid, nil
}

// Terminate moves a process to the absorbing Terminated state, removes it
// from scheduling, and releases its address space. Terminating the Running
// process switches immediately to the next Ready process. IPC cleanup
// (queued messages, blocked peers) is the kernel's responsibility and happens
// after this returns.
func (m *Manager) Terminate(pid types.PID) error {
	p, ok := m.procs[pid]
	if !ok || p.State == types.StateTerminated {
		return fmt.Errorf("terminate pid %d: %w", pid, types.ErrNoSuchProcess)
	}

	wasRunning := p.State == types.StateRunning
	if p.State == types.StateReady {
		m.dequeue(pid)
	}
	p.State = types.StateTerminated
	p.Reason = types.BlockNone
	m.live--

	m.mem.ReleaseSpace(p.Space)

	m.log.Info("process terminated", zap.Uint32("pid", uint32(pid)))
	m.publishGauges()

	if wasRunning {
		m.current = types.KernelPID
		m.schedule()
	}
	return nil
}

// Yield voluntarily relinquishes the CPU: Running to Ready at the tail, the
// queue head becomes Running. With a single Ready process this reschedules
// the same process.
func (m *Manager) Yield() {
	if m.current == types.KernelPID {
		m.schedule()
		return
	}

	p := m.procs[m.current]
	m.current = types.KernelPID
	m.contextSwitch(p, nil)
	m.setReady(p)
	m.schedule()
}

// Block moves a process out of scheduling consideration entirely. Invoked
// only by the IPC handler. The process may be Running (the common case) or
// Ready (the control plane issued a blocking call for a queued process).
func (m *Manager) Block(pid types.PID, reason types.BlockReason) error {
	p, ok := m.procs[pid]
	if !ok || p.State == types.StateTerminated {
		return fmt.Errorf("block pid %d: %w", pid, types.ErrNoSuchProcess)
	}

	switch p.State {
	case types.StateRunning:
		m.current = types.KernelPID
		m.contextSwitch(p, nil)
		p.State = types.StateBlocked
		p.Reason = reason
		m.schedule()
	case types.StateReady:
		m.dequeue(pid)
		p.State = types.StateBlocked
		p.Reason = reason
	default:
		return fmt.Errorf("block pid %d in state %s: %w", pid, p.State, types.ErrInvalidArgument)
	}

	m.log.Debug("process blocked",
		zap.Uint32("pid", uint32(pid)),
		zap.String("reason", string(reason)),
	)
	m.publishGauges()
	return nil
}

// Unblock moves a Blocked process back to Ready at the queue tail. A non-nil
// wake is the error indication the process observes on its next send or
// receive (its blocking operation failed). Unblocking a process that is not
// Blocked is a lost race: logged and ignored.
func (m *Manager) Unblock(pid types.PID, wake error) {
	p, ok := m.procs[pid]
	if !ok || p.State != types.StateBlocked {
		m.log.Debug("unblock ignored, target not blocked", zap.Uint32("pid", uint32(pid)))
		return
	}

	p.Reason = types.BlockNone
	p.wake = wake
	m.setReady(p)
	m.publishGauges()

	if m.current == types.KernelPID {
		m.schedule()
	}
}

// Tick delivers one timer tick: decrement the running process's quantum and
// preempt at zero, resetting the quantum. Idle ticks only try to start the
// queue head.
func (m *Manager) Tick() {
	if m.current == types.KernelPID {
		if m.metrics != nil {
			m.metrics.IdleTicks.Inc()
		}
		m.schedule()
		return
	}

	p := m.procs[m.current]
	p.Quantum--
	if p.Quantum > 0 {
		return
	}

	if m.metrics != nil {
		m.metrics.RecordPreemption()
	}
	m.log.Debug("quantum expired", zap.Uint32("pid", uint32(m.current)))
	m.Yield()
}

// TakeWake consumes and returns the pending wake error indication, if any
func (m *Manager) TakeWake(pid types.PID) error {
	p, ok := m.procs[pid]
	if !ok {
		return nil
	}
	wake := p.wake
	p.wake = nil
	return wake
}

// Current returns the Running PID, or KernelPID when idle
func (m *Manager) Current() types.PID {
	return m.current
}

// Alive reports whether pid names a non-terminated process
func (m *Manager) Alive(pid types.PID) bool {
	p, ok := m.procs[pid]
	return ok && p.State != types.StateTerminated
}

// Blocked reports whether pid is currently Blocked
func (m *Manager) Blocked(pid types.PID) bool {
	p, ok := m.procs[pid]
	return ok && p.State == types.StateBlocked
}

// Get returns a copy-on-read view of a process
func (m *Manager) Get(pid types.PID) (Info, bool) {
	p, ok := m.procs[pid]
	if !ok {
		return Info{}, false
	}
	return p.info(), true
}

// List returns all table entries, terminated ones included
func (m *Manager) List() []Info {
	out := make([]Info, 0, len(m.procs))
	for _, p := range m.procs {
		out = append(out, p.info())
	}
	return out
}

// ReadyQueue returns the queue order, head first
func (m *Manager) ReadyQueue() []types.PID {
	return append([]types.PID(nil), m.ready...)
}

// Live reports the number of non-terminated processes
func (m *Manager) Live() int {
	return m.live
}

// schedule installs the ready-queue head as the Running process. With an
// empty queue the CPU goes idle; the interrupt handler still runs.
func (m *Manager) schedule() {
	if m.current != types.KernelPID {
		panic("process: schedule with a process still running")
	}
	if len(m.ready) == 0 {
		return
	}

	pid := m.ready[0]
	m.ready = m.ready[1:]

	p := m.procs[pid]
	if p == nil || p.State != types.StateReady {
		panic(fmt.Sprintf("process: ready queue held pid %d in state %v", pid, p))
	}

	p.State = types.StateRunning
	p.Quantum = m.cfg.Quantum
	m.current = pid
	m.contextSwitch(nil, p)

	m.log.Debug("scheduled", zap.Uint32("pid", uint32(pid)))
	m.publishGauges()
}

// contextSwitch saves the outgoing register file and restores the incoming
// one through the virtual CPU
func (m *Manager) contextSwitch(out, in *Process) {
	if out != nil {
		out.Context = m.cpu
	}
	if in != nil {
		m.cpu = in.Context
		if m.metrics != nil {
			m.metrics.RecordContextSwitch()
		}
	}
}

// setReady transitions a process to Ready and enqueues it at the tail. A PID
// already on the queue is ready-queue corruption: a kernel panic, not an
// error.
func (m *Manager) setReady(p *Process) {
	for _, q := range m.ready {
		if q == p.PID {
			panic(fmt.Sprintf("process: pid %d enqueued twice", p.PID))
		}
	}
	p.State = types.StateReady
	m.ready = append(m.ready, p.PID)
}

// dequeue removes a PID from the ready queue
func (m *Manager) dequeue(pid types.PID) {
	for i, q := range m.ready {
		if q == pid {
			m.ready = append(m.ready[:i], m.ready[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("process: pid %d missing from ready queue", pid))
}

func (m *Manager) publishGauges() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetProcessesLive(m.live)
	m.metrics.SetReadyQueueLen(len(m.ready))
}
