package soc

import (
	"fmt"
	"io"

	"github.com/PedroAntunes178/iob-linux/internal/fdt"
	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// MemoryMap places the peripherals in the physical address space.
type MemoryMap struct {
	UART  uint64
	PLIC  uint64
	CLINT uint64
}

// DefaultMemoryMap returns the IOb-SoC peripheral placement.
func DefaultMemoryMap() MemoryMap {
	return MemoryMap{
		UART:  0xF4000000,
		PLIC:  0xFC000000,
		CLINT: 0xF8000000,
	}
}

// UART line defaults of the reference bitstream.
const (
	UARTClockHz = 100000000
	UARTBaud    = 115200
)

// TimebaseHz is the time counter frequency.
const TimebaseHz = 100000000

// PLICSources is the wired interrupt source count.
const PLICSources = 32

// SoC bundles the simulated peripherals behind one bus.
type SoC struct {
	Bus   *mmio.Map
	Map   MemoryMap
	UART  *UART
	PLIC  *PLIC
	CLINT *CLINT

	hartCount uint32
}

// New assembles a simulated SoC with the given hart count. Console
// transmit bytes go to output.
func New(hartCount uint32, mm MemoryMap, output io.Writer) *SoC {
	s := &SoC{
		Bus:       mmio.NewMap(),
		Map:       mm,
		UART:      NewUART(output),
		PLIC:      NewPLIC(hartCount),
		CLINT:     NewCLINT(hartCount),
		hartCount: hartCount,
	}
	s.Bus.AddDevice(mm.UART, s.UART)
	s.Bus.AddDevice(mm.PLIC, s.PLIC)
	s.Bus.AddDevice(mm.CLINT, s.CLINT)
	return s
}

// DeviceTree describes the simulated SoC as a device tree, the way the
// synthesis flow would hand it to the firmware.
func (s *SoC) DeviceTree(bootargs string) *fdt.Node {
	root := &fdt.Node{Name: ""}
	root.SetProp(fdt.PropU32s("#address-cells", 2))
	root.SetProp(fdt.PropU32s("#size-cells", 2))
	root.SetProp(fdt.PropString("compatible", "iobundle,iob-soc"))
	root.SetProp(fdt.PropString("model", "IOb-SoC"))

	chosen := root.AddChild(&fdt.Node{Name: "chosen"})
	chosen.SetProp(fdt.PropString("bootargs", bootargs))
	chosen.SetProp(fdt.PropString("stdout-path", fmt.Sprintf("/soc/serial@%x", s.Map.UART)))

	cpus := root.AddChild(&fdt.Node{Name: "cpus"})
	cpus.SetProp(fdt.PropU32s("#address-cells", 1))
	cpus.SetProp(fdt.PropU32s("#size-cells", 0))
	cpus.SetProp(fdt.PropU32s("timebase-frequency", TimebaseHz))

	for h := uint32(0); h < s.hartCount; h++ {
		cpu := cpus.AddChild(&fdt.Node{Name: fmt.Sprintf("cpu@%d", h)})
		cpu.SetProp(fdt.PropString("device_type", "cpu"))
		cpu.SetProp(fdt.PropU32s("reg", h))
		cpu.SetProp(fdt.PropString("status", "okay"))
		cpu.SetProp(fdt.PropString("compatible", "riscv"))
		cpu.SetProp(fdt.PropString("riscv,isa", "rv32imac"))

		intc := cpu.AddChild(&fdt.Node{Name: "interrupt-controller"})
		intc.SetProp(fdt.PropU32s("#interrupt-cells", 1))
		intc.SetProp(fdt.PropEmpty("interrupt-controller"))
		intc.SetProp(fdt.PropString("compatible", "riscv,cpu-intc"))
		intc.SetProp(fdt.PropU32s("phandle", 1+h))
	}

	memory := root.AddChild(&fdt.Node{Name: "memory@80000000"})
	memory.SetProp(fdt.PropString("device_type", "memory"))
	memory.SetProp(fdt.PropU32s("reg", 0, 0x80000000, 0, 0x10000000))

	socNode := root.AddChild(&fdt.Node{Name: "soc"})
	socNode.SetProp(fdt.PropU32s("#address-cells", 2))
	socNode.SetProp(fdt.PropU32s("#size-cells", 2))
	socNode.SetProp(fdt.PropStrings("compatible", "simple-bus"))
	socNode.SetProp(fdt.PropEmpty("ranges"))

	clint := socNode.AddChild(&fdt.Node{Name: fmt.Sprintf("clint@%x", s.Map.CLINT)})
	clint.SetProp(fdt.PropStrings("compatible", "sifive,clint0", "riscv,clint0"))
	clint.SetProp(fdt.PropU32s("reg",
		uint32(s.Map.CLINT>>32), uint32(s.Map.CLINT),
		uint32(CLINTSize>>32), uint32(CLINTSize)))
	clint.SetProp(fdt.PropU32s("interrupts-extended", s.clintIrqCells()...))

	plic := socNode.AddChild(&fdt.Node{Name: fmt.Sprintf("plic@%x", s.Map.PLIC)})
	plic.SetProp(fdt.PropStrings("compatible", "sifive,plic-1.0.0", "riscv,plic0"))
	plic.SetProp(fdt.PropU32s("#interrupt-cells", 1))
	plic.SetProp(fdt.PropEmpty("interrupt-controller"))
	plic.SetProp(fdt.PropU32s("reg",
		uint32(s.Map.PLIC>>32), uint32(s.Map.PLIC),
		uint32(PLICSize>>32), uint32(PLICSize)))
	plic.SetProp(fdt.PropU32s("riscv,ndev", PLICSources))
	plic.SetProp(fdt.PropU32s("interrupts-extended", s.plicIrqCells()...))
	plic.SetProp(fdt.PropU32s("phandle", 100))

	serial := socNode.AddChild(&fdt.Node{Name: fmt.Sprintf("serial@%x", s.Map.UART)})
	serial.SetProp(fdt.PropString("compatible", "ns16550"))
	serial.SetProp(fdt.PropU32s("reg",
		uint32(s.Map.UART>>32), uint32(s.Map.UART),
		0, UARTSize))
	serial.SetProp(fdt.PropU32s("clock-frequency", UARTClockHz))
	serial.SetProp(fdt.PropU32s("current-speed", UARTBaud))
	serial.SetProp(fdt.PropU32s("interrupts", 1))
	serial.SetProp(fdt.PropU32s("interrupt-parent", 100))

	return root
}

// clintIrqCells wires each hart's M-mode software (3) and timer (7)
// interrupts to the CLINT.
func (s *SoC) clintIrqCells() []uint32 {
	var cells []uint32
	for h := uint32(0); h < s.hartCount; h++ {
		cells = append(cells, 1+h, 3, 1+h, 7)
	}
	return cells
}

// plicIrqCells wires each hart's M-mode (11) and S-mode (9) external
// interrupts to the PLIC.
func (s *SoC) plicIrqCells() []uint32 {
	var cells []uint32
	for h := uint32(0); h < s.hartCount; h++ {
		cells = append(cells, 1+h, 11, 1+h, 9)
	}
	return cells
}
