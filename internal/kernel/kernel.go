package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/interrupt"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/ipc"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/memory"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/process"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kernel is the execution core: it owns the process table, the ready queue,
// every mailbox and the interrupt line registry, and is threaded explicitly
// through every entry point instead of living in package globals.
//
// The mutex models interrupt masking on a single execution unit: the syscall
// path and the interrupt dispatch path are the only two ways in, and both
// take it, so every mutation of the shared structures is single-writer.
type Kernel struct {
	mu sync.Mutex

	cfg    config.KernelConfig
	mem    *memory.Manager
	procs  *process.Manager
	ipc    *ipc.Router
	intr   *interrupt.Controller
	events *Feed

	bootID  string
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New wires up a kernel from configuration
func New(cfg config.KernelConfig, log *logging.Logger, metrics *monitoring.Metrics) *Kernel {
	mem := memory.NewManager(cfg.Frames, log.Named("memory")).WithMetrics(metrics)
	procs := process.NewManager(process.Config{
		Quantum:      cfg.Quantum,
		MaxProcesses: cfg.MaxProcesses,
		StackFrames:  cfg.StackFrames,
	}, mem, log.Named("process")).WithMetrics(metrics)
	router := ipc.NewRouter(ipc.Config{
		Capacity:   cfg.MailboxCapacity,
		MaxPayload: cfg.MaxPayload,
	}, procs, mem, log.Named("ipc")).WithMetrics(metrics)
	intr := interrupt.NewController(procs, router, log.Named("interrupt")).WithMetrics(metrics)

	k := &Kernel{
		cfg:     cfg,
		mem:     mem,
		procs:   procs,
		ipc:     router,
		intr:    intr,
		events:  NewFeed(),
		bootID:  uuid.New().String(),
		log:     log,
		metrics: metrics,
	}

	log.Info("kernel initialized",
		zap.String("boot_id", k.bootID),
		zap.Int("quantum", cfg.Quantum),
		zap.Int("max_processes", cfg.MaxProcesses),
		zap.Int("mailbox_capacity", cfg.MailboxCapacity),
		zap.Int("frames", cfg.Frames),
	)
	return k
}

// BootID identifies this kernel instance
func (k *Kernel) BootID() string {
	return k.bootID
}

// Events exposes the kernel event feed for observers
func (k *Kernel) Events() *Feed {
	return k.events
}

// CreateProcess allocates a PID and address space and enqueues the new
// process at the ready-queue tail
func (k *Kernel) CreateProcess(entry uint64) (types.PID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	before := k.procs.Current()
	pid, err := k.procs.Create(entry)
	if err != nil {
		return 0, err
	}
	k.ipc.Attach(pid)

	k.events.Publish(Event{Type: EventCreated, PID: pid})
	k.emitScheduleChange(before)
	return pid, nil
}

// Terminate ends a process and scrubs every reference to it: its ready-queue
// slot, its address space, its mailbox, messages it sent, interrupt lines it
// served, and any peer blocked on it.
func (k *Kernel) Terminate(pid types.PID) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	before := k.procs.Current()
	if err := k.procs.Terminate(pid); err != nil {
		return err
	}
	k.ipc.Detach(pid)
	k.intr.RemoveProcess(pid)

	k.events.Publish(Event{Type: EventTerminated, PID: pid})
	k.emitScheduleChange(before)
	return nil
}

// Yield voluntarily relinquishes the CPU on behalf of the running process
func (k *Kernel) Yield() {
	k.mu.Lock()
	defer k.mu.Unlock()

	before := k.procs.Current()
	k.procs.Yield()
	k.emitScheduleChange(before)
}

// Send passes a message between processes. ErrWouldBlock reports that the
// sender is now Blocked behind a full mailbox and the send will complete as
// capacity frees.
func (k *Kernel) Send(sender, receiver types.PID, payload []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.procs.Alive(sender) {
		return fmt.Errorf("sender pid %d: %w", sender, types.ErrNoSuchProcess)
	}
	if wake := k.procs.TakeWake(sender); wake != nil {
		// The previous blocking operation failed while this process slept
		return wake
	}

	before := k.procs.Current()
	err := k.ipc.Send(sender, receiver, payload)
	switch {
	case err == nil:
		k.events.Publish(Event{Type: EventSent, PID: receiver})
	case errors.Is(err, types.ErrWouldBlock):
		k.events.Publish(Event{Type: EventBlocked, PID: sender, Detail: string(types.BlockOnSend)})
	}
	k.emitScheduleChange(before)
	return err
}

// Receive returns the next message for pid. ErrWouldBlock reports that the
// process is now the pending receiver on its empty mailbox.
func (k *Kernel) Receive(pid types.PID) (*types.Message, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.procs.Alive(pid) {
		return nil, fmt.Errorf("receiver pid %d: %w", pid, types.ErrNoSuchProcess)
	}
	if wake := k.procs.TakeWake(pid); wake != nil {
		return nil, wake
	}

	before := k.procs.Current()
	msg, err := k.ipc.Receive(pid)
	switch {
	case err == nil:
		k.events.Publish(Event{Type: EventDelivered, PID: pid})
	case errors.Is(err, types.ErrWouldBlock):
		k.events.Publish(Event{Type: EventBlocked, PID: pid, Detail: string(types.BlockOnReceive)})
	}
	k.emitScheduleChange(before)
	return msg, err
}

// Tick delivers one timer interrupt
func (k *Kernel) Tick() {
	k.DispatchInterrupt(interrupt.TimerLine, nil)
}

// DispatchInterrupt is the hardware trap entry. It runs under the same lock
// as every syscall, so an in-progress scheduler or IPC mutation is never
// preempted mid-update.
func (k *Kernel) DispatchInterrupt(line uint32, payload []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()

	before := k.procs.Current()
	dropsBefore := k.intr.Dropped(line)
	k.intr.Dispatch(line, payload)

	k.events.Publish(Event{Type: EventInterrupt, Line: line})
	if k.intr.Dropped(line) > dropsBefore {
		k.events.Publish(Event{Type: EventDropped, Line: line})
	}
	k.emitScheduleChange(before)
}

// RegisterHandler binds a hardware line to a live driver process
func (k *Kernel) RegisterHandler(line uint32, pid types.PID) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.procs.Alive(pid) {
		return fmt.Errorf("driver pid %d: %w", pid, types.ErrNoSuchProcess)
	}
	return k.intr.Register(line, pid)
}

// MaskLine suppresses interrupt delivery on a line
func (k *Kernel) MaskLine(line uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.intr.Mask(line)
}

// UnmaskLine re-enables interrupt delivery on a line
func (k *Kernel) UnmaskLine(line uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.intr.Unmask(line)
}

// SchedulerInfo is the introspection view of the scheduler
type SchedulerInfo struct {
	Current    types.PID   `json:"current"`
	ReadyQueue []types.PID `json:"ready_queue"`
	Live       int         `json:"live_processes"`
	Quantum    int         `json:"quantum"`
}

// Scheduler returns current scheduling state
func (k *Kernel) Scheduler() SchedulerInfo {
	k.mu.Lock()
	defer k.mu.Unlock()

	return SchedulerInfo{
		Current:    k.procs.Current(),
		ReadyQueue: k.procs.ReadyQueue(),
		Live:       k.procs.Live(),
		Quantum:    k.cfg.Quantum,
	}
}

// Processes lists every process table entry
func (k *Kernel) Processes() []process.Info {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.procs.List()
}

// Process returns one process table entry
func (k *Kernel) Process(pid types.PID) (process.Info, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.procs.Get(pid)
}

// Mailbox returns the view of one process's mailbox
func (k *Kernel) Mailbox(pid types.PID) (ipc.BoxInfo, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ipc.Box(pid)
}

// InterruptLines lists bound interrupt lines
func (k *Kernel) InterruptLines() []interrupt.LineInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.intr.Lines()
}

// MemoryInfo reports frame usage
type MemoryInfo struct {
	FramesTotal int `json:"frames_total"`
	FramesInUse int `json:"frames_in_use"`
}

// Memory returns frame accounting
func (k *Kernel) Memory() MemoryInfo {
	return MemoryInfo{
		FramesTotal: k.mem.Total(),
		FramesInUse: k.mem.InUse(),
	}
}

// emitScheduleChange publishes a scheduled event when the running process
// changed during the calling operation. Callers hold k.mu.
func (k *Kernel) emitScheduleChange(before types.PID) {
	after := k.procs.Current()
	if after != before && after != types.KernelPID {
		k.events.Publish(Event{Type: EventScheduled, PID: after})
	}
}
