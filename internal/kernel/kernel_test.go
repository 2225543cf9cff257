package kernel

import (
	"testing"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKernel(t *testing.T) *Kernel {
	t.Helper()
	cfg := config.Default().Kernel
	cfg.Quantum = 2
	cfg.MailboxCapacity = 2
	cfg.MaxProcesses = 8
	cfg.Frames = 128
	cfg.StackFrames = 2
	return New(cfg, logging.NewNop(), nil)
}

func TestBootID(t *testing.T) {
	a := newKernel(t)
	b := newKernel(t)
	assert.NotEmpty(t, a.BootID())
	assert.NotEqual(t, a.BootID(), b.BootID())
}

func TestTimerPreemptionEndToEnd(t *testing.T) {
	k := newKernel(t)
	a, err := k.CreateProcess(0x1000)
	require.NoError(t, err)
	b, err := k.CreateProcess(0x2000)
	require.NoError(t, err)

	require.Equal(t, a, k.Scheduler().Current)

	// Quantum 2: the second tick preempts within one dispatch call
	k.Tick()
	require.Equal(t, a, k.Scheduler().Current)
	k.Tick()

	sched := k.Scheduler()
	assert.Equal(t, b, sched.Current)
	assert.Equal(t, []types.PID{a}, sched.ReadyQueue)
}

func TestInterruptToDriverFlow(t *testing.T) {
	k := newKernel(t)
	driver, err := k.CreateProcess(0x1000)
	require.NoError(t, err)
	require.NoError(t, k.RegisterHandler(4, driver))

	// Driver consumes events with the same receive every process uses
	_, err = k.Receive(driver)
	require.ErrorIs(t, err, types.ErrWouldBlock)

	k.DispatchInterrupt(4, []byte{0x2a})

	msg, err := k.Receive(driver)
	require.NoError(t, err)
	assert.Equal(t, types.KernelPID, msg.Sender)
	assert.Equal(t, []byte{0x2a}, msg.Payload)

	// Unregistered lines are ignored end to end
	k.DispatchInterrupt(9, []byte{1})
	_, err = k.Receive(driver)
	assert.ErrorIs(t, err, types.ErrWouldBlock)
}

func TestRegisterHandlerValidation(t *testing.T) {
	k := newKernel(t)
	assert.ErrorIs(t, k.RegisterHandler(4, types.PID(99)), types.ErrNoSuchProcess)

	pid, _ := k.CreateProcess(0x1000)
	require.NoError(t, k.RegisterHandler(4, pid))

	// Terminating the driver releases its lines
	require.NoError(t, k.Terminate(pid))
	assert.Empty(t, k.InterruptLines())
}

func TestTerminationSafetyAcrossSubsystems(t *testing.T) {
	k := newKernel(t)
	a, _ := k.CreateProcess(0x1000)
	b, _ := k.CreateProcess(0x2000)

	// Fill b's mailbox, then block a behind it
	require.NoError(t, k.Send(a, b, []byte("1")))
	require.NoError(t, k.Send(a, b, []byte("2")))
	require.ErrorIs(t, k.Send(a, b, []byte("3")), types.ErrWouldBlock)

	require.NoError(t, k.Terminate(b))

	// a was unblocked with an error indication; its next send reports it
	info, ok := k.Process(a)
	require.True(t, ok)
	require.NotEqual(t, types.StateBlocked, info.State)
	assert.ErrorIs(t, k.Send(a, b, []byte("4")), types.ErrNoSuchProcess)

	// And the one after that fails the normal way, also without blocking
	assert.ErrorIs(t, k.Send(a, b, []byte("5")), types.ErrNoSuchProcess)

	// No frames leaked: only a's stack remains
	assert.Equal(t, 2, k.Memory().FramesInUse)
}

func TestSendReceiveThroughSyscallSurface(t *testing.T) {
	k := newKernel(t)
	a, _ := k.CreateProcess(0x1000)
	b, _ := k.CreateProcess(0x2000)

	payload := []byte("hello from a")
	require.NoError(t, k.Send(a, b, payload))

	msg, err := k.Receive(b)
	require.NoError(t, err)
	assert.Equal(t, a, msg.Sender)
	assert.Equal(t, payload, msg.Payload)
}

func TestEventFeed(t *testing.T) {
	k := newKernel(t)
	ch, cancel := k.Events().Subscribe()
	defer cancel()

	pid, _ := k.CreateProcess(0x1000)

	var seen []string
	for len(ch) > 0 {
		e := <-ch
		seen = append(seen, e.Type)
		if e.Type == EventCreated {
			assert.Equal(t, pid, e.PID)
		}
	}
	assert.Contains(t, seen, EventCreated)
	assert.Contains(t, seen, EventScheduled)
}

func TestEventFeedDropsWhenObserverStalls(t *testing.T) {
	k := newKernel(t)
	_, cancel := k.Events().Subscribe()
	defer cancel()

	// Far more events than the subscriber buffer holds; the kernel must not stall
	for i := 0; i < 2000; i++ {
		k.Tick()
	}
	assert.Equal(t, 1, k.Events().Observers())
}

func TestYieldRotation(t *testing.T) {
	k := newKernel(t)
	a, _ := k.CreateProcess(0x1000)
	b, _ := k.CreateProcess(0x2000)
	c, _ := k.CreateProcess(0x3000)

	order := []types.PID{a, b, c, a, b, c}
	for _, want := range order {
		require.Equal(t, want, k.Scheduler().Current)
		k.Yield()
	}
}
