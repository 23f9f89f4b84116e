package aclint

import (
	"fmt"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// MTIMER layout constants.
const (
	MTimeOffset    = 0x7ff8
	MTimeSize      = 8
	MTimeCmpOffset = 0x0000
	MTimeCmpSize   = 0x7ff8
)

// TimeProvider supplies the current timer value when the block's
// mtime register is not writable. Unused on this platform.
type TimeProvider func() uint64

// MTimerData describes an MTIMER block. The mtime and mtimecmp
// addresses are both derived from the same base; overrides must move
// them together.
type MTimerData struct {
	Freq         uint64
	MTimeAddr    uint64
	MTimeSize    uint64
	MTimeCmpAddr uint64
	MTimeCmpSize uint64
	FirstHart    uint32
	HartCount    uint32
	Has64BitMMIO bool
}

// mtimecmpAddr returns the compare register address for a hart
func (d *MTimerData) mtimecmpAddr(hart uint32) uint64 {
	return d.MTimeCmpAddr + uint64(hart-d.FirstHart)*8
}

// ColdInit validates the block and zeroes the time counter. The
// optional time provider takes the counter's place when the register
// is absent; it is nil in this configuration.
func (d *MTimerData) ColdInit(b mmio.Bus, tp TimeProvider) error {
	if d.Freq == 0 || d.HartCount == 0 {
		return fmt.Errorf("aclint: incomplete mtimer data %+v", d)
	}
	if d.MTimeCmpSize < uint64(d.HartCount)*8 {
		return fmt.Errorf("aclint: mtimecmp region 0x%x too small for %d harts", d.MTimeCmpSize, d.HartCount)
	}

	if tp != nil || d.MTimeAddr == 0 {
		return nil
	}
	return d.write64(b, d.MTimeAddr, 0)
}

// WarmInit parks the calling hart's compare register at the maximum
// value so no timer interrupt fires until one is armed.
func (d *MTimerData) WarmInit(b mmio.Bus, hart uint32) error {
	if hart < d.FirstHart || hart >= d.FirstHart+d.HartCount {
		return fmt.Errorf("aclint: hart %d outside mtimer range [%d, %d)", hart, d.FirstHart, d.FirstHart+d.HartCount)
	}
	return d.write64(b, d.mtimecmpAddr(hart), ^uint64(0))
}

// SetTimer arms the calling hart's compare register.
func (d *MTimerData) SetTimer(b mmio.Bus, hart uint32, value uint64) error {
	if hart < d.FirstHart || hart >= d.FirstHart+d.HartCount {
		return fmt.Errorf("aclint: hart %d outside mtimer range [%d, %d)", hart, d.FirstHart, d.FirstHart+d.HartCount)
	}
	return d.write64(b, d.mtimecmpAddr(hart), value)
}

// write64 respects the block's register access width: a single 64-bit
// store, or low word then high word on 32-bit-only buses.
func (d *MTimerData) write64(b mmio.Bus, addr, value uint64) error {
	if d.Has64BitMMIO {
		return mmio.Write64(b, addr, value)
	}
	if err := mmio.Write32(b, addr, uint32(value)); err != nil {
		return err
	}
	return mmio.Write32(b, addr+4, uint32(value>>32))
}
