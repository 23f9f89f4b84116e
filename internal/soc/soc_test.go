package soc

import (
	"bytes"
	"testing"

	"github.com/PedroAntunes178/iob-linux/internal/fdt"
)

func TestDeviceTreeDescribesPeripherals(t *testing.T) {
	mm := MemoryMap{UART: 0x90000000, PLIC: 0x94000000, CLINT: 0x92000000}
	machine := New(2, mm, nil)

	blob, err := fdt.Build(machine.DeviceTree("console=ttyS0"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tree, err := fdt.Parse(blob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	u, err := tree.ParseUART("ns16550")
	if err != nil {
		t.Fatalf("ParseUART: %v", err)
	}
	if u.Addr != mm.UART || u.Freq != UARTClockHz || u.Baud != UARTBaud {
		t.Fatalf("uart = %+v", u)
	}

	ic, err := tree.ParseIrqChip("riscv,plic0")
	if err != nil {
		t.Fatalf("ParseIrqChip: %v", err)
	}
	if ic.Addr != mm.PLIC || ic.NumSources != PLICSources {
		t.Fatalf("irqchip = %+v", ic)
	}

	base, err := tree.CompatibleAddress("riscv,clint0")
	if err != nil {
		t.Fatalf("CompatibleAddress: %v", err)
	}
	if base != mm.CLINT {
		t.Fatalf("clint base = 0x%x, want 0x%x", base, mm.CLINT)
	}

	freq, err := tree.TimebaseFrequency()
	if err != nil {
		t.Fatalf("TimebaseFrequency: %v", err)
	}
	if freq != TimebaseHz {
		t.Fatalf("timebase = %d, want %d", freq, TimebaseHz)
	}
}

func TestUARTTransmit(t *testing.T) {
	var out bytes.Buffer
	machine := New(1, DefaultMemoryMap(), &out)

	for _, b := range []byte("ok\n") {
		if err := machine.Bus.Write(machine.Map.UART, 1, uint64(b)); err != nil {
			t.Fatalf("write THR: %v", err)
		}
	}
	if out.String() != "ok\n" {
		t.Fatalf("transmitted %q", out.String())
	}
}

func TestCLINTSplitCompareWrite(t *testing.T) {
	machine := New(2, DefaultMemoryMap(), nil)
	cmp1 := machine.Map.CLINT + clintMtimecmp + 8

	// Low word then high word, as a 32-bit-bus hart would.
	if err := machine.Bus.Write(cmp1, 4, 0xdeadbeef); err != nil {
		t.Fatalf("write lo: %v", err)
	}
	if err := machine.Bus.Write(cmp1+4, 4, 0x01234567); err != nil {
		t.Fatalf("write hi: %v", err)
	}

	if got := machine.CLINT.MTimeCmp(1); got != 0x01234567deadbeef {
		t.Fatalf("mtimecmp[1] = 0x%x", got)
	}
	if machine.CLINT.MTimeCmp(0) != ^uint64(0) {
		t.Fatal("write leaked into hart 0's compare register")
	}
}

func TestPLICSourceZeroReserved(t *testing.T) {
	machine := New(1, DefaultMemoryMap(), nil)

	if err := machine.Bus.Write(machine.Map.PLIC, 4, 7); err != nil {
		t.Fatalf("write priority 0: %v", err)
	}
	if machine.PLIC.Priority(0) != 0 {
		t.Fatal("priority for reserved source 0 latched a value")
	}
}
