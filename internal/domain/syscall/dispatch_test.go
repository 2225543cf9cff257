package syscall

import (
	"testing"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	cfg := config.Default().Kernel
	cfg.MaxProcesses = 4
	cfg.Frames = 64
	cfg.StackFrames = 2
	return NewDispatcher(kernel.New(cfg, logging.NewNop(), nil))
}

func TestTableIsComplete(t *testing.T) {
	d := newDispatcher(t)

	want := []string{CallCreateProcess, CallTerminateProcess, CallSend, CallReceive, CallYield}
	calls := map[string]bool{}
	for _, c := range d.Calls() {
		calls[c] = true
	}
	for _, w := range want {
		if !calls[w] {
			t.Errorf("dispatch table missing %q", w)
		}
	}
	if len(calls) != len(want) {
		t.Errorf("dispatch table has extra entries: %v", d.Calls())
	}
}

func TestUnknownCall(t *testing.T) {
	d := newDispatcher(t)

	resp := d.Dispatch(&Request{Call: "reboot"})
	if resp.Success {
		t.Error("unknown syscall must fail")
	}
}

func TestCreateAndTerminate(t *testing.T) {
	d := newDispatcher(t)

	resp := d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x1000})
	if !resp.Success || resp.PID == types.KernelPID {
		t.Fatalf("create failed: %+v", resp)
	}

	resp = d.Dispatch(&Request{Call: CallTerminateProcess, PID: resp.PID})
	if !resp.Success {
		t.Fatalf("terminate failed: %+v", resp)
	}

	// Missing pid is rejected at the boundary
	resp = d.Dispatch(&Request{Call: CallTerminateProcess})
	if resp.Success {
		t.Error("terminate without pid must fail")
	}
}

func TestSendReceiveBlockedShape(t *testing.T) {
	d := newDispatcher(t)

	a := d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x1000}).PID
	b := d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x2000}).PID

	// Empty mailbox: receive reports success with blocked set
	resp := d.Dispatch(&Request{Call: CallReceive, PID: b})
	if !resp.Success || !resp.Blocked || resp.Message != nil {
		t.Fatalf("expected blocked receive, got %+v", resp)
	}

	resp = d.Dispatch(&Request{Call: CallSend, Sender: a, Receiver: b, Payload: []byte("ping")})
	if !resp.Success || resp.Blocked {
		t.Fatalf("rendezvous send should complete, got %+v", resp)
	}

	resp = d.Dispatch(&Request{Call: CallReceive, PID: b})
	if !resp.Success || resp.Blocked || resp.Message == nil {
		t.Fatalf("expected delivery, got %+v", resp)
	}
	if string(resp.Message.Payload) != "ping" || resp.Message.Sender != a {
		t.Errorf("bad message: %+v", resp.Message)
	}
}

func TestErrorsSurfaceAsRequestFailures(t *testing.T) {
	d := newDispatcher(t)

	a := d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x1000}).PID

	resp := d.Dispatch(&Request{Call: CallSend, Sender: a, Receiver: 99, Payload: []byte("x")})
	if resp.Success || resp.Error == "" {
		t.Errorf("send to unknown pid must surface an error, got %+v", resp)
	}

	// Process table exhaustion surfaces, never crashes
	for i := 0; i < 8; i++ {
		d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x1000})
	}
	resp = d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x1000})
	if resp.Success {
		t.Error("table exhaustion must be surfaced to the caller")
	}
}

func TestYield(t *testing.T) {
	d := newDispatcher(t)
	d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x1000})
	d.Dispatch(&Request{Call: CallCreateProcess, Entry: 0x2000})

	if resp := d.Dispatch(&Request{Call: CallYield}); !resp.Success {
		t.Errorf("yield failed: %+v", resp)
	}
}
