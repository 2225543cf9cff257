package interrupt

import (
	"errors"
	"testing"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

type tickCounter struct{ ticks int }

func (t *tickCounter) Tick() { t.ticks++ }

// fakeIPC queues direct deliveries up to a capacity, like a driver mailbox
type fakeIPC struct {
	capacity int
	inbox    []*types.Message
	missing  map[types.PID]bool
}

func (f *fakeIPC) DeliverDirect(msg *types.Message) error {
	if f.missing[msg.Receiver] {
		return types.ErrNoSuchProcess
	}
	if len(f.inbox) >= f.capacity {
		return types.ErrResourceExhausted
	}
	f.inbox = append(f.inbox, msg)
	return nil
}

func newController(capacity int) (*Controller, *tickCounter, *fakeIPC) {
	ticker := &tickCounter{}
	ipc := &fakeIPC{capacity: capacity, missing: map[types.PID]bool{}}
	return NewController(ticker, ipc, logging.NewNop()), ticker, ipc
}

func TestTimerLineDrivesScheduler(t *testing.T) {
	c, ticker, ipc := newController(4)

	c.Dispatch(TimerLine, nil)
	c.Dispatch(TimerLine, nil)

	if ticker.ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", ticker.ticks)
	}
	if len(ipc.inbox) != 0 {
		t.Error("timer interrupts must not become messages")
	}
}

func TestRegisteredLineDeliversMessage(t *testing.T) {
	c, _, ipc := newController(4)
	driver := types.PID(7)

	if err := c.Register(1, driver); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	c.Dispatch(1, []byte{0x2a})

	if len(ipc.inbox) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(ipc.inbox))
	}
	msg := ipc.inbox[0]
	if msg.Sender != types.KernelPID {
		t.Errorf("interrupt messages come from the kernel, got sender %d", msg.Sender)
	}
	if msg.Receiver != driver || msg.Payload[0] != 0x2a {
		t.Errorf("bad delivery: %+v", msg)
	}
}

func TestOneHandlerPerLine(t *testing.T) {
	c, _, _ := newController(4)

	if err := c.Register(1, 7); err != nil {
		t.Fatalf("first bind failed: %v", err)
	}
	if err := c.Register(1, 8); !errors.Is(err, types.ErrResourceExhausted) {
		t.Errorf("rebinding should fail, got %v", err)
	}
	if err := c.Register(TimerLine, 7); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("timer line must not be bindable, got %v", err)
	}

	c.Unregister(1)
	if err := c.Register(1, 8); err != nil {
		t.Errorf("bind after unregister failed: %v", err)
	}
}

func TestFullMailboxDropsAndCounts(t *testing.T) {
	c, _, _ := newController(1)
	c.Register(1, 7)

	c.Dispatch(1, []byte{1})
	c.Dispatch(1, []byte{2}) // mailbox full: dropped
	c.Dispatch(1, []byte{3}) // dropped

	if got := c.Dropped(1); got != 2 {
		t.Errorf("expected 2 dropped, got %d", got)
	}
}

func TestMaskedLineDrops(t *testing.T) {
	c, ticker, _ := newController(4)
	c.Register(1, 7)

	c.Mask(1)
	c.Dispatch(1, []byte{1})
	if c.Dropped(1) != 1 {
		t.Errorf("masked line should drop, got %d", c.Dropped(1))
	}

	c.Unmask(1)
	c.Dispatch(1, []byte{2})
	if c.Dropped(1) != 1 {
		t.Errorf("unmasked line dropped, total %d", c.Dropped(1))
	}

	// Masking the timer stops preemption
	c.Mask(TimerLine)
	c.Dispatch(TimerLine, nil)
	if ticker.ticks != 0 {
		t.Error("masked timer still ticked")
	}
}

func TestUnregisteredLineIgnored(t *testing.T) {
	c, ticker, ipc := newController(4)

	c.Dispatch(9, []byte{1})

	if ticker.ticks != 0 || len(ipc.inbox) != 0 || c.Dropped(9) != 0 {
		t.Error("unregistered line must be acknowledged and otherwise ignored")
	}
}

func TestDeadDriverReleasesLine(t *testing.T) {
	c, _, ipc := newController(4)
	c.Register(1, 7)
	ipc.missing[7] = true

	c.Dispatch(1, []byte{1})

	if len(c.Lines()) != 0 {
		t.Error("line to a dead driver should be released")
	}
	if c.Dropped(1) != 1 {
		t.Errorf("event to a dead driver counts as dropped, got %d", c.Dropped(1))
	}
}

func TestRemoveProcess(t *testing.T) {
	c, _, _ := newController(4)
	c.Register(1, 7)
	c.Register(2, 7)
	c.Register(3, 8)

	c.RemoveProcess(7)

	lines := c.Lines()
	if len(lines) != 1 || lines[0].Handler != 8 {
		t.Errorf("expected only pid 8's binding to survive, got %+v", lines)
	}
}
