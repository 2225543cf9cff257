package interrupt

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"go.uber.org/zap"
)

// TimerLine is the hardware line that drives preemption
const TimerLine uint32 = 0

// Ticker is the scheduler entry a timer interrupt drives
type Ticker interface {
	Tick()
}

// Deliverer is the IPC entry interrupt dispatch uses: it must never block
type Deliverer interface {
	DeliverDirect(msg *types.Message) error
}

// Controller routes hardware interrupts: the timer line to the scheduler,
// every other registered line to a driver process's mailbox as an ordinary
// message from the reserved kernel PID. Dispatch runs with the interrupted
// context suspended and must never block; a full driver mailbox drops the
// event and counts it.
type Controller struct {
	handlers map[uint32]types.PID
	masked   map[uint32]bool
	dropped  map[uint32]uint64

	ticker  Ticker
	ipc     Deliverer
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// LineInfo is the copy-on-read view of one bound interrupt line
type LineInfo struct {
	Line    uint32    `json:"line"`
	Handler types.PID `json:"handler"`
	Masked  bool      `json:"masked"`
	Dropped uint64    `json:"dropped"`
}

// NewController creates the interrupt controller
func NewController(ticker Ticker, ipc Deliverer, log *logging.Logger) *Controller {
	return &Controller{
		handlers: make(map[uint32]types.PID),
		masked:   make(map[uint32]bool),
		dropped:  make(map[uint32]uint64),
		ticker:   ticker,
		ipc:      ipc,
		log:      log,
	}
}

// WithMetrics adds metrics tracking to the controller
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	return c
}

// Register binds a hardware line to a driver process's mailbox. Only one
// handler per line; the timer line is owned by the scheduler and cannot be
// bound.
func (c *Controller) Register(line uint32, pid types.PID) error {
	if line == TimerLine {
		return fmt.Errorf("line %d drives the scheduler: %w", line, types.ErrInvalidArgument)
	}
	if owner, ok := c.handlers[line]; ok {
		return fmt.Errorf("line %d already bound to pid %d: %w", line, owner, types.ErrResourceExhausted)
	}
	c.handlers[line] = pid
	c.log.Info("interrupt line bound",
		zap.Uint32("line", line),
		zap.Uint32("pid", uint32(pid)),
	)
	return nil
}

// Unregister releases a line binding
func (c *Controller) Unregister(line uint32) {
	delete(c.handlers, line)
}

// RemoveProcess drops every binding owned by a terminated driver
func (c *Controller) RemoveProcess(pid types.PID) {
	for line, owner := range c.handlers {
		if owner == pid {
			delete(c.handlers, line)
			c.log.Info("interrupt line released", zap.Uint32("line", line))
		}
	}
}

// Mask suppresses delivery on a line; events arriving meanwhile are dropped
func (c *Controller) Mask(line uint32) {
	c.masked[line] = true
}

// Unmask re-enables delivery on a line
func (c *Controller) Unmask(line uint32) {
	delete(c.masked, line)
}

// Dispatch is the hardware trap entry. The timer line becomes a scheduler
// tick; a registered line becomes a message in the driver's mailbox with the
// event payload; unregistered lines are acknowledged and ignored.
func (c *Controller) Dispatch(line uint32, payload []byte) {
	if c.metrics != nil {
		c.metrics.RecordInterrupt(line)
	}

	if c.masked[line] {
		c.drop(line)
		return
	}

	if line == TimerLine {
		c.ticker.Tick()
		return
	}

	pid, ok := c.handlers[line]
	if !ok {
		c.log.Debug("unregistered interrupt acknowledged", zap.Uint32("line", line))
		return
	}

	msg := &types.Message{Sender: types.KernelPID, Receiver: pid, Payload: payload}
	if err := c.ipc.DeliverDirect(msg); err != nil {
		// Lost forever: no blocking and no retry inside interrupt context
		c.drop(line)
		if errors.Is(err, types.ErrNoSuchProcess) {
			// The driver died under us; release the line
			delete(c.handlers, line)
		}
	}
}

// Dropped reports lost events for a line
func (c *Controller) Dropped(line uint32) uint64 {
	return c.dropped[line]
}

// Lines returns the copy-on-read view of all bindings
func (c *Controller) Lines() []LineInfo {
	out := make([]LineInfo, 0, len(c.handlers))
	for line, pid := range c.handlers {
		out = append(out, LineInfo{
			Line:    line,
			Handler: pid,
			Masked:  c.masked[line],
			Dropped: c.dropped[line],
		})
	}
	return out
}

func (c *Controller) drop(line uint32) {
	c.dropped[line]++
	if c.metrics != nil {
		c.metrics.RecordInterruptDropped(line)
	}
	c.log.Warn("interrupt event dropped",
		zap.Uint32("line", line),
		zap.Uint64("total_dropped", c.dropped[line]),
	)
}
