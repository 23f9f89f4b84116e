package platform

import (
	"github.com/PedroAntunes178/iob-linux/internal/drivers/aclint"
	"github.com/PedroAntunes178/iob-linux/internal/drivers/plic"
	"github.com/PedroAntunes178/iob-linux/internal/drivers/uart8250"
)

// Build-time defaults for the IOb-SoC reference bitstream.
const (
	DefaultHartCount = 1

	defaultUARTAddr = 0xF4000000
	defaultUARTFreq = 100000000
	defaultUARTBaud = 115200

	defaultPLICAddr    = 0xFC000000
	defaultPLICSources = 32

	defaultCLINTAddr  = 0xF8000000
	defaultMTimerFreq = 100000000
)

// CLINT internal layout: the MSWI and MTIMER blocks sit at fixed
// offsets from the shared base, so an override of that base moves all
// derived addresses together.
const (
	clintMSWIOffset   = 0x0000
	clintMTimerOffset = 0x4000
)

// Device-tree match keys.
const (
	compatUART  = "ns16550"
	compatPLIC  = "riscv,plic0"
	compatCLINT = "riscv,clint0"
)

// Config holds the four device descriptors. It is populated once with
// build-time defaults, overridden at most once during discovery on the
// cold boot hart, and read-only afterwards.
type Config struct {
	UART   uart8250.Config
	PLIC   plic.Data
	MSWI   aclint.MSWIData
	MTimer aclint.MTimerData
}

// DefaultConfig returns the build-time descriptors for a machine with
// the given hart count.
func DefaultConfig(hartCount uint32) Config {
	cfg := Config{
		UART: uart8250.Config{
			Addr: defaultUARTAddr,
			Freq: defaultUARTFreq,
			Baud: defaultUARTBaud,
		},
		PLIC: plic.Data{
			Addr:       defaultPLICAddr,
			NumSources: defaultPLICSources,
		},
		MSWI: aclint.MSWIData{
			Size:      aclint.MSWISize,
			FirstHart: 0,
			HartCount: hartCount,
		},
		MTimer: aclint.MTimerData{
			Freq:         defaultMTimerFreq,
			MTimeSize:    aclint.MTimeSize,
			MTimeCmpSize: aclint.MTimeCmpSize,
			FirstHart:    0,
			HartCount:    hartCount,
			Has64BitMMIO: true,
		},
	}
	cfg.ApplySharedBase(defaultCLINTAddr)
	return cfg
}

// ApplySharedBase rebases every descriptor address derived from the
// shared interruptor base. The IPI block and both timer registers are
// updated together; they must never drift apart.
func (c *Config) ApplySharedBase(base uint64) {
	c.MSWI.Addr = base + clintMSWIOffset
	c.MTimer.MTimeAddr = base + clintMTimerOffset + aclint.MTimeOffset
	c.MTimer.MTimeCmpAddr = base + clintMTimerOffset + aclint.MTimeCmpOffset
}
