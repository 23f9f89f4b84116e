// Package plic drives a Platform Level Interrupt Controller.
package plic

import (
	"fmt"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// PLIC register layout
const (
	priorityBase  = 0x000000
	enableBase    = 0x002000
	enableStride  = 0x80
	contextBase   = 0x200000
	contextStride = 0x1000
)

// maskedThreshold masks every priority level for a context
const maskedThreshold = 0x7

// Data describes a PLIC instance. The source count is fixed at build
// time; only the address is subject to discovery.
type Data struct {
	Addr       uint64
	NumSources uint32
}

// ColdInit masks every interrupt source. Runs once, before any hart
// configures its own contexts.
func (d *Data) ColdInit(b mmio.Bus) error {
	if d.Addr == 0 || d.NumSources == 0 {
		return fmt.Errorf("plic: incomplete data %+v", d)
	}

	// Source 0 does not exist.
	for src := uint32(1); src <= d.NumSources; src++ {
		if err := mmio.Write32(b, d.Addr+priorityBase+uint64(src)*4, 0); err != nil {
			return err
		}
	}
	return nil
}

// WarmInit prepares a hart's machine and supervisor contexts: all
// enable bits cleared, threshold masked. The supervisor payload
// unmasks what it wants later.
func (d *Data) WarmInit(b mmio.Bus, mContext, sContext uint32) error {
	for _, ctx := range []uint32{mContext, sContext} {
		if err := d.initContext(b, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Data) initContext(b mmio.Bus, ctx uint32) error {
	ieWords := d.NumSources/32 + 1
	for word := uint32(0); word < ieWords; word++ {
		addr := d.Addr + enableBase + uint64(ctx)*enableStride + uint64(word)*4
		if err := mmio.Write32(b, addr, 0); err != nil {
			return err
		}
	}
	thresholdAddr := d.Addr + contextBase + uint64(ctx)*contextStride
	return mmio.Write32(b, thresholdAddr, maskedThreshold)
}
