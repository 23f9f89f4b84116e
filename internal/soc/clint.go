package soc

import (
	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// CLINT register offsets
const (
	clintMsip     = 0x0000 // software interrupt pending, 4 bytes per hart
	clintMtimecmp = 0x4000 // timer compare, 8 bytes per hart
	clintMtime    = 0xbff8 // machine time counter
)

// CLINTSize is the register window size.
const CLINTSize = 0x10000

// CLINT models a Core Local Interruptor with per-hart software
// interrupt and timer compare registers.
type CLINT struct {
	hartCount uint32

	msip     []uint32
	mtimecmp []uint64
	mtime    uint64
}

// NewCLINT creates a CLINT model for hartCount harts. Compare
// registers come up at all-ones, matching hardware reset.
func NewCLINT(hartCount uint32) *CLINT {
	c := &CLINT{
		hartCount: hartCount,
		msip:      make([]uint32, hartCount),
		mtimecmp:  make([]uint64, hartCount),
	}
	for i := range c.mtimecmp {
		c.mtimecmp[i] = ^uint64(0)
	}
	return c
}

// Size implements mmio.Device
func (c *CLINT) Size() uint64 {
	return CLINTSize
}

// Read implements mmio.Device
func (c *CLINT) Read(offset uint64, size int) (uint64, error) {
	switch {
	case offset >= clintMsip && offset < clintMsip+uint64(c.hartCount)*4:
		return uint64(c.msip[(offset-clintMsip)/4]), nil

	case offset >= clintMtimecmp && offset < clintMtimecmp+uint64(c.hartCount)*8:
		hart := (offset - clintMtimecmp) / 8
		if size == 4 {
			if (offset-clintMtimecmp)%8 == 0 {
				return uint64(uint32(c.mtimecmp[hart])), nil
			}
			return c.mtimecmp[hart] >> 32, nil
		}
		return c.mtimecmp[hart], nil

	case offset >= clintMtime && offset < clintMtime+8:
		if size == 4 {
			if offset == clintMtime {
				return uint64(uint32(c.mtime)), nil
			}
			return c.mtime >> 32, nil
		}
		return c.mtime, nil
	}

	return 0, nil
}

// Write implements mmio.Device
func (c *CLINT) Write(offset uint64, size int, value uint64) error {
	switch {
	case offset >= clintMsip && offset < clintMsip+uint64(c.hartCount)*4:
		c.msip[(offset-clintMsip)/4] = uint32(value) & 1

	case offset >= clintMtimecmp && offset < clintMtimecmp+uint64(c.hartCount)*8:
		hart := (offset - clintMtimecmp) / 8
		c.mtimecmp[hart] = c.write64(c.mtimecmp[hart], (offset-clintMtimecmp)%8, size, value)

	case offset >= clintMtime && offset < clintMtime+8:
		c.mtime = c.write64(c.mtime, offset-clintMtime, size, value)
	}

	return nil
}

// write64 merges a 4- or 8-byte store into a 64-bit register
func (c *CLINT) write64(old, byteOff uint64, size int, value uint64) uint64 {
	if size == 4 {
		if byteOff == 0 {
			return old&^0xffffffff | value&0xffffffff
		}
		return old&0xffffffff | value<<32
	}
	return value
}

// MSIP returns a hart's software interrupt pending bit.
func (c *CLINT) MSIP(hart uint32) uint32 {
	return c.msip[hart]
}

// MTimeCmp returns a hart's timer compare value.
func (c *CLINT) MTimeCmp(hart uint32) uint64 {
	return c.mtimecmp[hart]
}

// MTime returns the time counter value.
func (c *CLINT) MTime() uint64 {
	return c.mtime
}

var _ mmio.Device = (*CLINT)(nil)
