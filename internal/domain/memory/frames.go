package memory

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
	"go.uber.org/zap"
)

// FrameID identifies one fixed-size unit of physical memory
type FrameID uint32

// Perms describes mapping permissions
type Perms uint8

const (
	PermRead Perms = 1 << iota
	PermWrite
	PermExec
)

// Allocator is the frame interface the rest of the core consumes
type Allocator interface {
	AllocFrame() (FrameID, error)
	FreeFrame(id FrameID) error
}

// Manager owns frame accounting with a free-list allocator
type Manager struct {
	mu      sync.Mutex
	free    []FrameID // Protected by mu, LIFO free list
	inUse   map[FrameID]bool
	total   int
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a frame manager over a fixed number of frames
func NewManager(frames int, log *logging.Logger) *Manager {
	m := &Manager{
		free:  make([]FrameID, 0, frames),
		inUse: make(map[FrameID]bool, frames),
		total: frames,
		log:   log,
	}
	// Push in reverse so frame 0 comes off the list first
	for i := frames - 1; i >= 0; i-- {
		m.free = append(m.free, FrameID(i))
	}
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// AllocFrame hands out one free frame
func (m *Manager) AllocFrame() (FrameID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.free) == 0 {
		m.log.Warn("frame allocation failed", zap.Int("total", m.total))
		return 0, fmt.Errorf("no free frames of %d: %w", m.total, types.ErrOutOfMemory)
	}

	id := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]
	m.inUse[id] = true

	if m.metrics != nil {
		m.metrics.FramesInUse.Set(float64(len(m.inUse)))
	}
	return id, nil
}

// FreeFrame returns a frame to the free list. Freeing a frame that is not
// allocated is a kernel bug, not a caller error.
func (m *Manager) FreeFrame(id FrameID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.inUse[id] {
		panic(fmt.Sprintf("memory: double free of frame %d", id))
	}
	delete(m.inUse, id)
	m.free = append(m.free, id)

	if m.metrics != nil {
		m.metrics.FramesInUse.Set(float64(len(m.inUse)))
	}
	return nil
}

// InUse reports how many frames are currently allocated
func (m *Manager) InUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inUse)
}

// Total reports the configured frame count
func (m *Manager) Total() int {
	return m.total
}
