package memory

import (
	"fmt"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

// StackBase is the virtual address where process stacks are mapped
const StackBase uint64 = 0x7fff_0000

// FrameSize is the size of one frame in bytes
const FrameSize uint64 = 4096

// Space is the set of virtual-to-physical mappings owned exclusively by one
// process. It is never shared; IPC copies payloads instead of aliasing pages.
type Space struct {
	mappings map[uint64]mapping // vaddr -> frame, owned by this space
}

type mapping struct {
	frame FrameID
	perms Perms
}

// NewSpace allocates an address space with stackFrames frames mapped
// read-write under StackBase. On any allocation failure the partial space is
// released and no frames leak.
func (m *Manager) NewSpace(stackFrames int) (*Space, error) {
	s := &Space{mappings: make(map[uint64]mapping, stackFrames)}

	for i := 0; i < stackFrames; i++ {
		frame, err := m.AllocFrame()
		if err != nil {
			m.ReleaseSpace(s)
			return nil, fmt.Errorf("stack frame %d of %d: %w", i+1, stackFrames, err)
		}
		vaddr := StackBase - uint64(i+1)*FrameSize
		s.mappings[vaddr] = mapping{frame: frame, perms: PermRead | PermWrite}
	}
	return s, nil
}

// Map binds a frame into the space at vaddr
func (m *Manager) Map(s *Space, frame FrameID, vaddr uint64, perms Perms) error {
	if _, ok := s.mappings[vaddr]; ok {
		return fmt.Errorf("vaddr %#x already mapped: %w", vaddr, types.ErrInvalidArgument)
	}
	s.mappings[vaddr] = mapping{frame: frame, perms: perms}
	return nil
}

// Unmap removes the mapping at vaddr without freeing the frame; the caller
// keeps frame ownership.
func (m *Manager) Unmap(s *Space, vaddr uint64) error {
	if _, ok := s.mappings[vaddr]; !ok {
		return fmt.Errorf("vaddr %#x not mapped: %w", vaddr, types.ErrInvalidArgument)
	}
	delete(s.mappings, vaddr)
	return nil
}

// ReleaseSpace frees every frame the space owns. Called exactly once, at
// process termination.
func (m *Manager) ReleaseSpace(s *Space) {
	for vaddr, mp := range s.mappings {
		_ = m.FreeFrame(mp.frame)
		delete(s.mappings, vaddr)
	}
}

// Size reports the number of live mappings
func (s *Space) Size() int {
	return len(s.mappings)
}
