package http

import (
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/syscall"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// Handlers exposes the syscall surface and kernel introspection over HTTP
type Handlers struct {
	k          *kernel.Kernel
	dispatcher *syscall.Dispatcher
	metrics    *monitoring.Metrics
	log        *logging.Logger
}

// NewHandlers creates the HTTP handlers
func NewHandlers(k *kernel.Kernel, dispatcher *syscall.Dispatcher, metrics *monitoring.Metrics, log *logging.Logger) *Handlers {
	return &Handlers{k: k, dispatcher: dispatcher, metrics: metrics, log: log}
}

// Health reports service liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"boot_id": h.k.BootID(),
	})
}

// Syscall is the trap boundary: one endpoint, a fixed dispatch table behind it
func (h *Handlers) Syscall(c *gin.Context) {
	var req syscall.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request: " + err.Error(),
		})
		return
	}

	resp := h.dispatcher.Dispatch(&req)
	c.JSON(statusFor(resp), resp)
}

// CreateProcess spawns a process from an entry point
func (h *Handlers) CreateProcess(c *gin.Context) {
	var req struct {
		Entry uint64 `json:"entry"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	resp := h.dispatcher.Dispatch(&syscall.Request{Call: syscall.CallCreateProcess, Entry: req.Entry})
	c.JSON(statusFor(resp), resp)
}

// TerminateProcess ends a process
func (h *Handlers) TerminateProcess(c *gin.Context) {
	pid, ok := h.pidParam(c)
	if !ok {
		return
	}
	resp := h.dispatcher.Dispatch(&syscall.Request{Call: syscall.CallTerminateProcess, PID: pid})
	c.JSON(statusFor(resp), resp)
}

// ListProcesses returns every process table entry
func (h *Handlers) ListProcesses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processes": h.k.Processes(),
	})
}

// GetProcess returns one process table entry with its mailbox view
func (h *Handlers) GetProcess(c *gin.Context) {
	pid, ok := h.pidParam(c)
	if !ok {
		return
	}

	info, found := h.k.Process(pid)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no such process"})
		return
	}

	out := gin.H{"success": true, "process": info}
	if box, haveBox := h.k.Mailbox(pid); haveBox {
		out["mailbox"] = box
	}
	c.JSON(http.StatusOK, out)
}

// Yield relinquishes the CPU on behalf of the running process
func (h *Handlers) Yield(c *gin.Context) {
	resp := h.dispatcher.Dispatch(&syscall.Request{Call: syscall.CallYield})
	c.JSON(statusFor(resp), resp)
}

// GetScheduler returns the running PID and the ready queue order
func (h *Handlers) GetScheduler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"scheduler": h.k.Scheduler(),
		"memory":    h.k.Memory(),
	})
}

// Send passes a message between processes
func (h *Handlers) Send(c *gin.Context) {
	var req struct {
		Sender   types.PID `json:"sender" binding:"required"`
		Receiver types.PID `json:"receiver" binding:"required"`
		Payload  []byte    `json:"payload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	resp := h.dispatcher.Dispatch(&syscall.Request{
		Call:     syscall.CallSend,
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Payload:  req.Payload,
	})
	c.JSON(statusFor(resp), resp)
}

// Receive returns the next message for a process
func (h *Handlers) Receive(c *gin.Context) {
	pid, ok := h.pidParam(c)
	if !ok {
		return
	}
	resp := h.dispatcher.Dispatch(&syscall.Request{Call: syscall.CallReceive, PID: pid})
	c.JSON(statusFor(resp), resp)
}

// DispatchInterrupt simulates a hardware interrupt on a line
func (h *Handlers) DispatchInterrupt(c *gin.Context) {
	line, ok := h.lineParam(c)
	if !ok {
		return
	}

	var req struct {
		Payload []byte `json:"payload"`
	}
	// The body is optional: a bare line fire carries no payload
	_ = c.ShouldBindJSON(&req)

	h.k.DispatchInterrupt(line, req.Payload)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterHandler binds an interrupt line to a driver process
func (h *Handlers) RegisterHandler(c *gin.Context) {
	line, ok := h.lineParam(c)
	if !ok {
		return
	}

	var req struct {
		PID types.PID `json:"pid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	if err := h.k.RegisterHandler(line, req.PID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MaskLine suppresses delivery on a line until unmasked
func (h *Handlers) MaskLine(c *gin.Context) {
	line, ok := h.lineParam(c)
	if !ok {
		return
	}
	h.k.MaskLine(line)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UnmaskLine re-enables delivery on a line
func (h *Handlers) UnmaskLine(c *gin.Context) {
	line, ok := h.lineParam(c)
	if !ok {
		return
	}
	h.k.UnmaskLine(line)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListInterrupts returns bound lines with drop counts
func (h *Handlers) ListInterrupts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"lines":   h.k.InterruptLines(),
	})
}

func (h *Handlers) pidParam(c *gin.Context) (types.PID, bool) {
	raw, err := strconv.ParseUint(c.Param("pid"), 10, 32)
	if err != nil || raw == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pid"})
		return 0, false
	}
	return types.PID(raw), true
}

func (h *Handlers) lineParam(c *gin.Context) (uint32, bool) {
	raw, err := strconv.ParseUint(c.Param("line"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid line"})
		return 0, false
	}
	return uint32(raw), true
}

// statusFor maps the syscall error taxonomy onto HTTP statuses
func statusFor(resp *syscall.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	return http.StatusConflict
}
