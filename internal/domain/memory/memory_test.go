package memory

import (
	"errors"
	"testing"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

func TestAllocFree(t *testing.T) {
	m := NewManager(4, logging.NewNop())

	seen := map[FrameID]bool{}
	for i := 0; i < 4; i++ {
		id, err := m.AllocFrame()
		if err != nil {
			t.Fatalf("AllocFrame %d failed: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("frame %d handed out twice", id)
		}
		seen[id] = true
	}

	if _, err := m.AllocFrame(); !errors.Is(err, types.ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory, got %v", err)
	}

	for id := range seen {
		if err := m.FreeFrame(id); err != nil {
			t.Fatalf("FreeFrame(%d) failed: %v", id, err)
		}
	}

	if m.InUse() != 0 {
		t.Errorf("expected 0 frames in use, got %d", m.InUse())
	}
	if _, err := m.AllocFrame(); err != nil {
		t.Errorf("alloc after free failed: %v", err)
	}
}

func TestDoubleFreePanics(t *testing.T) {
	m := NewManager(1, logging.NewNop())
	id, _ := m.AllocFrame()
	_ = m.FreeFrame(id)

	defer func() {
		if recover() == nil {
			t.Error("double free should panic")
		}
	}()
	_ = m.FreeFrame(id)
}

func TestNewSpace(t *testing.T) {
	m := NewManager(8, logging.NewNop())

	s, err := m.NewSpace(4)
	if err != nil {
		t.Fatalf("NewSpace failed: %v", err)
	}
	if s.Size() != 4 {
		t.Errorf("expected 4 mappings, got %d", s.Size())
	}
	if m.InUse() != 4 {
		t.Errorf("expected 4 frames in use, got %d", m.InUse())
	}

	m.ReleaseSpace(s)
	if m.InUse() != 0 {
		t.Errorf("release leaked frames: %d still in use", m.InUse())
	}
}

func TestNewSpaceRollsBackOnExhaustion(t *testing.T) {
	m := NewManager(2, logging.NewNop())

	if _, err := m.NewSpace(4); !errors.Is(err, types.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	// Partial allocation must have been rolled back
	if m.InUse() != 0 {
		t.Errorf("failed NewSpace leaked %d frames", m.InUse())
	}
}

func TestMapUnmap(t *testing.T) {
	m := NewManager(4, logging.NewNop())
	s, _ := m.NewSpace(1)

	frame, _ := m.AllocFrame()
	if err := m.Map(s, frame, 0x4000, PermRead); err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if err := m.Map(s, frame, 0x4000, PermRead); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("remap of same vaddr should fail, got %v", err)
	}
	if err := m.Unmap(s, 0x4000); err != nil {
		t.Fatalf("Unmap failed: %v", err)
	}
	if err := m.Unmap(s, 0x4000); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("unmap of unmapped vaddr should fail, got %v", err)
	}
}
