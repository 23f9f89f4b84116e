// Package uart8250 drives a 16550-compatible serial console over MMIO.
package uart8250

import (
	"fmt"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// Register offsets, before reg-shift scaling.
const (
	regRBR = 0 // Receive Buffer Register (read)
	regTHR = 0 // Transmit Holding Register (write)
	regIER = 1 // Interrupt Enable Register
	regFCR = 2 // FIFO Control Register (write)
	regLCR = 3 // Line Control Register
	regMCR = 4 // Modem Control Register
	regLSR = 5 // Line Status Register
	regSCR = 7 // Scratch Register
)

// LCR bits
const (
	lcrWordLen8 = 0x03
	lcrDLAB     = 0x80
)

// LSR bits
const (
	lsrTHREmpty = 1 << 5
)

// Parity selects the line parity mode programmed into the LCR.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// lcrBits returns the parity field of the LCR
func (p Parity) lcrBits() uint8 {
	switch p {
	case ParityOdd:
		return 0x08
	case ParityEven:
		return 0x18
	default:
		return 0
	}
}

// Config describes a console UART. All three line parameters
// participate in the divisor computation; none is defaulted
// individually.
type Config struct {
	Addr uint64
	Freq uint64
	Baud uint32
}

// ColdInit programs the device line parameters. The same register
// sequence may be issued again with an unchanged Config; the device
// ends up in the same state.
func ColdInit(b mmio.Bus, cfg Config, regShift uint32, parity Parity) error {
	if cfg.Addr == 0 || cfg.Freq == 0 || cfg.Baud == 0 {
		return fmt.Errorf("uart8250: incomplete config %+v", cfg)
	}

	reg := func(off uint64) uint64 {
		return cfg.Addr + off<<regShift
	}

	divisor := (cfg.Freq + 8*uint64(cfg.Baud)) / (16 * uint64(cfg.Baud))

	// Interrupts off while the line is reprogrammed.
	if err := mmio.Write8(b, reg(regIER), 0x00); err != nil {
		return err
	}
	if err := mmio.Write8(b, reg(regLCR), lcrDLAB); err != nil {
		return err
	}
	if err := mmio.Write8(b, reg(regTHR), uint8(divisor)); err != nil {
		return err
	}
	if err := mmio.Write8(b, reg(regIER), uint8(divisor>>8)); err != nil {
		return err
	}
	if err := mmio.Write8(b, reg(regLCR), lcrWordLen8|parity.lcrBits()); err != nil {
		return err
	}
	if err := mmio.Write8(b, reg(regFCR), 0x01); err != nil {
		return err
	}
	if err := mmio.Write8(b, reg(regMCR), 0x00); err != nil {
		return err
	}

	// Drain stale status and data.
	if _, err := mmio.Read8(b, reg(regLSR)); err != nil {
		return err
	}
	if _, err := mmio.Read8(b, reg(regRBR)); err != nil {
		return err
	}
	return mmio.Write8(b, reg(regSCR), 0x00)
}

// Putc blocks until the transmitter is ready, then sends one byte.
func Putc(b mmio.Bus, cfg Config, regShift uint32, ch byte) error {
	reg := func(off uint64) uint64 {
		return cfg.Addr + off<<regShift
	}
	for {
		lsr, err := mmio.Read8(b, reg(regLSR))
		if err != nil {
			return err
		}
		if lsr&lsrTHREmpty != 0 {
			break
		}
	}
	return mmio.Write8(b, reg(regTHR), ch)
}
