package syscall

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

// Request is a decoded syscall. The transport layer has already checked that
// the raw input is well-formed; this layer rejects logically-missing
// entities.
type Request struct {
	Call     string    `json:"call" binding:"required"`
	Entry    uint64    `json:"entry,omitempty"`
	PID      types.PID `json:"pid,omitempty"`
	Sender   types.PID `json:"sender,omitempty"`
	Receiver types.PID `json:"receiver,omitempty"`
	Payload  []byte    `json:"payload,omitempty"`
}

// Response is the marshaled result handed back to user space
type Response struct {
	Success bool           `json:"success"`
	Blocked bool           `json:"blocked,omitempty"`
	PID     types.PID      `json:"pid,omitempty"`
	Message *types.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Syscall names: the fixed dispatch table exposed to the trap boundary
const (
	CallCreateProcess    = "create_process"
	CallTerminateProcess = "terminate_process"
	CallSend             = "send"
	CallReceive          = "receive"
	CallYield            = "yield"
)

type handler func(*kernel.Kernel, *Request) (*Response, error)

// Dispatcher decodes validated syscall requests into core entry points
type Dispatcher struct {
	k       *kernel.Kernel
	table   map[string]handler
	metrics *monitoring.Metrics
}

// NewDispatcher builds the fixed dispatch table
func NewDispatcher(k *kernel.Kernel) *Dispatcher {
	return &Dispatcher{
		k: k,
		table: map[string]handler{
			CallCreateProcess:    createProcess,
			CallTerminateProcess: terminateProcess,
			CallSend:             send,
			CallReceive:          receive,
			CallYield:            yield,
		},
	}
}

// WithMetrics adds metrics tracking to the dispatcher
func (d *Dispatcher) WithMetrics(metrics *monitoring.Metrics) *Dispatcher {
	d.metrics = metrics
	return d
}

// Dispatch invokes the handler for a request and maps the error taxonomy to
// the response shape
func (d *Dispatcher) Dispatch(req *Request) *Response {
	h, ok := d.table[req.Call]
	if !ok {
		d.record(req.Call, "invalid_argument")
		return &Response{Success: false, Error: fmt.Sprintf("unknown syscall %q", req.Call)}
	}

	resp, err := h(d.k, req)
	switch {
	case err == nil:
		d.record(req.Call, "ok")
		resp.Success = true
	case errors.Is(err, types.ErrWouldBlock):
		// Not a failure: the process is blocked and the operation pends
		d.record(req.Call, "blocked")
		resp.Success = true
		resp.Blocked = true
	default:
		d.record(req.Call, errKind(err))
		resp.Success = false
		resp.Error = err.Error()
	}
	return resp
}

// Calls lists the table entries, for introspection
func (d *Dispatcher) Calls() []string {
	out := make([]string, 0, len(d.table))
	for name := range d.table {
		out = append(out, name)
	}
	return out
}

func createProcess(k *kernel.Kernel, req *Request) (*Response, error) {
	pid, err := k.CreateProcess(req.Entry)
	if err != nil {
		return &Response{}, err
	}
	return &Response{PID: pid}, nil
}

func terminateProcess(k *kernel.Kernel, req *Request) (*Response, error) {
	if req.PID == types.KernelPID {
		return &Response{}, fmt.Errorf("pid is required: %w", types.ErrInvalidArgument)
	}
	return &Response{PID: req.PID}, k.Terminate(req.PID)
}

func send(k *kernel.Kernel, req *Request) (*Response, error) {
	if req.Sender == types.KernelPID || req.Receiver == types.KernelPID {
		return &Response{}, fmt.Errorf("sender and receiver are required: %w", types.ErrInvalidArgument)
	}
	return &Response{}, k.Send(req.Sender, req.Receiver, req.Payload)
}

func receive(k *kernel.Kernel, req *Request) (*Response, error) {
	if req.PID == types.KernelPID {
		return &Response{}, fmt.Errorf("pid is required: %w", types.ErrInvalidArgument)
	}
	msg, err := k.Receive(req.PID)
	return &Response{Message: msg}, err
}

func yield(k *kernel.Kernel, _ *Request) (*Response, error) {
	k.Yield()
	return &Response{}, nil
}

func (d *Dispatcher) record(call, outcome string) {
	if d.metrics != nil {
		d.metrics.RecordSyscall(call, outcome)
	}
}

// errKind maps the error taxonomy to a stable outcome label
func errKind(err error) string {
	switch {
	case errors.Is(err, types.ErrNoSuchProcess):
		return "no_such_process"
	case errors.Is(err, types.ErrResourceExhausted):
		return "resource_exhausted"
	case errors.Is(err, types.ErrOutOfMemory):
		return "out_of_memory"
	case errors.Is(err, types.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "error"
	}
}
