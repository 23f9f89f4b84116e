package soc

import (
	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// PLIC register offsets
const (
	plicPriorityBase  = 0x000000
	plicPendingBase   = 0x001000
	plicEnableBase    = 0x002000
	plicEnableStride  = 0x80
	plicContextBase   = 0x200000
	plicContextStride = 0x1000
)

// PLICSize is the register window size.
const PLICSize = 0x4000000

// plicMaxSources bounds the model's register arrays.
const plicMaxSources = 1024

// PLIC models a Platform Level Interrupt Controller with two contexts
// per hart (machine and supervisor).
type PLIC struct {
	numContexts uint32

	priority [plicMaxSources]uint32
	pending  [plicMaxSources / 32]uint32

	enable    map[uint32][]uint32
	threshold map[uint32]uint32

	// Contexts a threshold write has touched, in order.
	touched []uint32
}

// NewPLIC creates a PLIC model with 2*hartCount contexts.
func NewPLIC(hartCount uint32) *PLIC {
	return &PLIC{
		numContexts: hartCount * 2,
		enable:      make(map[uint32][]uint32),
		threshold:   make(map[uint32]uint32),
	}
}

// Size implements mmio.Device
func (p *PLIC) Size() uint64 {
	return PLICSize
}

// Read implements mmio.Device
func (p *PLIC) Read(offset uint64, size int) (uint64, error) {
	switch {
	case offset < plicPendingBase:
		source := offset / 4
		if source < plicMaxSources {
			return uint64(p.priority[source]), nil
		}

	case offset >= plicPendingBase && offset < plicEnableBase:
		word := (offset - plicPendingBase) / 4
		if word < uint64(len(p.pending)) {
			return uint64(p.pending[word]), nil
		}

	case offset >= plicEnableBase && offset < plicContextBase:
		rel := offset - plicEnableBase
		ctx := uint32(rel / plicEnableStride)
		word := (rel % plicEnableStride) / 4
		if ctx < p.numContexts && int(word) < len(p.enableWords(ctx)) {
			return uint64(p.enableWords(ctx)[word]), nil
		}

	case offset >= plicContextBase:
		rel := offset - plicContextBase
		ctx := uint32(rel / plicContextStride)
		if ctx < p.numContexts && rel%plicContextStride == 0 {
			return uint64(p.threshold[ctx]), nil
		}
	}

	return 0, nil
}

// Write implements mmio.Device
func (p *PLIC) Write(offset uint64, size int, value uint64) error {
	switch {
	case offset < plicPendingBase:
		source := offset / 4
		if source > 0 && source < plicMaxSources { // source 0 is reserved
			p.priority[source] = uint32(value) & 7
		}

	case offset >= plicEnableBase && offset < plicContextBase:
		rel := offset - plicEnableBase
		ctx := uint32(rel / plicEnableStride)
		word := (rel % plicEnableStride) / 4
		if ctx < p.numContexts && int(word) < len(p.enableWords(ctx)) {
			p.enableWords(ctx)[word] = uint32(value)
		}

	case offset >= plicContextBase:
		rel := offset - plicContextBase
		ctx := uint32(rel / plicContextStride)
		if ctx < p.numContexts && rel%plicContextStride == 0 {
			p.threshold[ctx] = uint32(value) & 7
			p.touched = append(p.touched, ctx)
		}
	}

	return nil
}

func (p *PLIC) enableWords(ctx uint32) []uint32 {
	if _, ok := p.enable[ctx]; !ok {
		p.enable[ctx] = make([]uint32, plicMaxSources/32)
	}
	return p.enable[ctx]
}

// Priority returns a source's programmed priority.
func (p *PLIC) Priority(source uint32) uint32 {
	return p.priority[source]
}

// Threshold returns a context's programmed threshold.
func (p *PLIC) Threshold(ctx uint32) uint32 {
	return p.threshold[ctx]
}

// EnableWord returns a context's enable word.
func (p *PLIC) EnableWord(ctx, word uint32) uint32 {
	return p.enableWords(ctx)[word]
}

// TouchedContexts returns the contexts whose threshold has been
// written, in write order.
func (p *PLIC) TouchedContexts() []uint32 {
	return p.touched
}

var _ mmio.Device = (*PLIC)(nil)
