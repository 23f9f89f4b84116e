// Package soc models the IOb-SoC peripherals behind mmio.Device so the
// bring-up sequence can be exercised without hardware.
package soc

import (
	"io"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// UART register offsets (16550 compatible)
const (
	uartRegRBR = 0 // Receive Buffer Register (read)
	uartRegTHR = 0 // Transmit Holding Register (write)
	uartRegIER = 1 // Interrupt Enable Register
	uartRegIIR = 2 // Interrupt Identification Register (read)
	uartRegFCR = 2 // FIFO Control Register (write)
	uartRegLCR = 3 // Line Control Register
	uartRegMCR = 4 // Modem Control Register
	uartRegLSR = 5 // Line Status Register
	uartRegMSR = 6 // Modem Status Register
	uartRegSCR = 7 // Scratch Register
)

// LSR bits
const (
	uartLSRDataReady = 1 << 0
	uartLSRTHREmpty  = 1 << 5
	uartLSRTxEmpty   = 1 << 6
)

// UARTSize is the register window size.
const UARTSize = 0x1000

// UART implements a 16550-compatible UART model.
type UART struct {
	Output io.Writer

	// Registers
	IER uint8
	IIR uint8
	FCR uint8
	LCR uint8
	MCR uint8
	SCR uint8

	// Divisor latch
	DLL uint8
	DLH uint8

	input []byte
}

// NewUART creates a UART whose transmit side writes to output.
func NewUART(output io.Writer) *UART {
	return &UART{
		Output: output,
		IIR:    0x01, // no interrupt pending
	}
}

// Divisor returns the programmed baud divisor latch value.
func (u *UART) Divisor() uint16 {
	return uint16(u.DLH)<<8 | uint16(u.DLL)
}

// Size implements mmio.Device
func (u *UART) Size() uint64 {
	return UARTSize
}

// Read implements mmio.Device
func (u *UART) Read(offset uint64, size int) (uint64, error) {
	if size != 1 {
		return 0, nil
	}

	dlab := u.LCR&0x80 != 0

	switch offset {
	case uartRegRBR:
		if dlab {
			return uint64(u.DLL), nil
		}
		if len(u.input) > 0 {
			ch := u.input[0]
			u.input = u.input[1:]
			return uint64(ch), nil
		}
		return 0, nil

	case uartRegIER:
		if dlab {
			return uint64(u.DLH), nil
		}
		return uint64(u.IER), nil

	case uartRegIIR:
		return uint64(u.IIR), nil

	case uartRegLCR:
		return uint64(u.LCR), nil

	case uartRegMCR:
		return uint64(u.MCR), nil

	case uartRegLSR:
		lsr := uint64(uartLSRTHREmpty | uartLSRTxEmpty)
		if len(u.input) > 0 {
			lsr |= uartLSRDataReady
		}
		return lsr, nil

	case uartRegMSR:
		return 0, nil

	case uartRegSCR:
		return uint64(u.SCR), nil
	}

	return 0, nil
}

// Write implements mmio.Device
func (u *UART) Write(offset uint64, size int, value uint64) error {
	if size != 1 {
		return nil
	}

	data := uint8(value)
	dlab := u.LCR&0x80 != 0

	switch offset {
	case uartRegTHR:
		if dlab {
			u.DLL = data
			return nil
		}
		if u.Output != nil {
			u.Output.Write([]byte{data})
		}

	case uartRegIER:
		if dlab {
			u.DLH = data
			return nil
		}
		u.IER = data

	case uartRegFCR:
		u.FCR = data
		if data&0x02 != 0 {
			u.input = nil
		}

	case uartRegLCR:
		u.LCR = data

	case uartRegMCR:
		u.MCR = data

	case uartRegSCR:
		u.SCR = data
	}

	return nil
}

// EnqueueInput adds receive-side bytes for the guest to read.
func (u *UART) EnqueueInput(data []byte) {
	u.input = append(u.input, data...)
}

var _ mmio.Device = (*UART)(nil)
