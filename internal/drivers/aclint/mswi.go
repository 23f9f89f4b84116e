// Package aclint drives the ACLINT MSWI (inter-hart software
// interrupt) and MTIMER (machine timer) blocks.
package aclint

import (
	"fmt"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// MSWISize is the fixed size of an MSWI register block.
const MSWISize = 0x4000

// MSWIData describes an MSWI block. The hart range must match the
// platform's actual hart set.
type MSWIData struct {
	Addr      uint64
	Size      uint64
	FirstHart uint32
	HartCount uint32
}

// msipAddr returns the MSIP register address for a hart
func (d *MSWIData) msipAddr(hart uint32) uint64 {
	return d.Addr + uint64(hart-d.FirstHart)*4
}

// ColdInit clears the software-interrupt pending bit of every hart in
// the block's range.
func (d *MSWIData) ColdInit(b mmio.Bus) error {
	if d.Addr == 0 || d.HartCount == 0 {
		return fmt.Errorf("aclint: incomplete mswi data %+v", d)
	}
	if d.Size < uint64(d.HartCount)*4 {
		return fmt.Errorf("aclint: mswi block size 0x%x too small for %d harts", d.Size, d.HartCount)
	}

	for h := d.FirstHart; h < d.FirstHart+d.HartCount; h++ {
		if err := mmio.Write32(b, d.msipAddr(h), 0); err != nil {
			return err
		}
	}
	return nil
}

// WarmInit clears the calling hart's own pending bit.
func (d *MSWIData) WarmInit(b mmio.Bus, hart uint32) error {
	if hart < d.FirstHart || hart >= d.FirstHart+d.HartCount {
		return fmt.Errorf("aclint: hart %d outside mswi range [%d, %d)", hart, d.FirstHart, d.FirstHart+d.HartCount)
	}
	return mmio.Write32(b, d.msipAddr(hart), 0)
}

// SendIPI raises the software interrupt of a target hart.
func (d *MSWIData) SendIPI(b mmio.Bus, hart uint32) error {
	if hart < d.FirstHart || hart >= d.FirstHart+d.HartCount {
		return fmt.Errorf("aclint: hart %d outside mswi range [%d, %d)", hart, d.FirstHart, d.FirstHart+d.HartCount)
	}
	return mmio.Write32(b, d.msipAddr(hart), 1)
}
