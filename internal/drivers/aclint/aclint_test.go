package aclint

import (
	"testing"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
	"github.com/PedroAntunes178/iob-linux/internal/soc"
)

const clintBase = 0xF8000000

func testBus(harts uint32) (*mmio.Map, *soc.CLINT) {
	c := soc.NewCLINT(harts)
	m := mmio.NewMap()
	m.AddDevice(clintBase, c)
	return m, c
}

func testMSWI(harts uint32) MSWIData {
	return MSWIData{
		Addr:      clintBase,
		Size:      MSWISize,
		FirstHart: 0,
		HartCount: harts,
	}
}

func testMTimer(harts uint32, wide bool) MTimerData {
	return MTimerData{
		Freq:         100000000,
		MTimeAddr:    clintBase + 0x4000 + MTimeOffset,
		MTimeSize:    MTimeSize,
		MTimeCmpAddr: clintBase + 0x4000 + MTimeCmpOffset,
		MTimeCmpSize: MTimeCmpSize,
		FirstHart:    0,
		HartCount:    harts,
		Has64BitMMIO: wide,
	}
}

func TestMSWIColdInitClearsAllHarts(t *testing.T) {
	b, model := testBus(4)
	d := testMSWI(4)

	for h := uint32(0); h < 4; h++ {
		if err := d.SendIPI(b, h); err != nil {
			t.Fatalf("SendIPI: %v", err)
		}
	}

	if err := d.ColdInit(b); err != nil {
		t.Fatalf("ColdInit: %v", err)
	}
	for h := uint32(0); h < 4; h++ {
		if model.MSIP(h) != 0 {
			t.Fatalf("hart %d msip still pending", h)
		}
	}
}

func TestMSWIWarmInitOwnHartOnly(t *testing.T) {
	b, model := testBus(2)
	d := testMSWI(2)

	if err := d.SendIPI(b, 0); err != nil {
		t.Fatalf("SendIPI: %v", err)
	}
	if err := d.SendIPI(b, 1); err != nil {
		t.Fatalf("SendIPI: %v", err)
	}

	if err := d.WarmInit(b, 1); err != nil {
		t.Fatalf("WarmInit: %v", err)
	}
	if model.MSIP(1) != 0 {
		t.Fatal("hart 1 msip not cleared")
	}
	if model.MSIP(0) != 1 {
		t.Fatal("hart 0 msip disturbed by hart 1 warm init")
	}
}

func TestMSWIHartRange(t *testing.T) {
	b, _ := testBus(2)
	d := testMSWI(2)

	if err := d.WarmInit(b, 2); err == nil {
		t.Fatal("WarmInit accepted a hart outside the block range")
	}
	if err := d.SendIPI(b, 7); err == nil {
		t.Fatal("SendIPI accepted a hart outside the block range")
	}
}

func TestMSWIColdInitValidation(t *testing.T) {
	b, _ := testBus(1)
	bad := testMSWI(1)
	bad.Size = 2 // cannot hold even one MSIP register
	if err := bad.ColdInit(b); err == nil {
		t.Fatal("ColdInit accepted an undersized block")
	}
}

func TestMTimerColdInitZeroesCounter(t *testing.T) {
	b, model := testBus(1)
	d := testMTimer(1, true)

	if err := mmio.Write64(b, d.MTimeAddr, 12345); err != nil {
		t.Fatalf("seed mtime: %v", err)
	}
	if err := d.ColdInit(b, nil); err != nil {
		t.Fatalf("ColdInit: %v", err)
	}
	if model.MTime() != 0 {
		t.Fatalf("mtime = %d, want 0", model.MTime())
	}
}

func TestMTimerColdInitWithProvider(t *testing.T) {
	b, model := testBus(1)
	d := testMTimer(1, true)

	if err := mmio.Write64(b, d.MTimeAddr, 777); err != nil {
		t.Fatalf("seed mtime: %v", err)
	}
	// An external time provider owns the counter; cold init must not
	// touch it.
	if err := d.ColdInit(b, func() uint64 { return 0 }); err != nil {
		t.Fatalf("ColdInit: %v", err)
	}
	if model.MTime() != 777 {
		t.Fatalf("mtime = %d, counter should be untouched", model.MTime())
	}
}

func TestMTimerWarmInitParksCompare(t *testing.T) {
	for _, wide := range []bool{true, false} {
		b, model := testBus(2)
		d := testMTimer(2, wide)

		if err := d.SetTimer(b, 1, 1000); err != nil {
			t.Fatalf("SetTimer: %v", err)
		}
		if err := d.WarmInit(b, 1); err != nil {
			t.Fatalf("WarmInit(wide=%v): %v", wide, err)
		}
		if got := model.MTimeCmp(1); got != ^uint64(0) {
			t.Fatalf("wide=%v: mtimecmp = 0x%x, want all ones", wide, got)
		}
	}
}

func TestMTimerValidation(t *testing.T) {
	b, _ := testBus(1)

	bad := testMTimer(1, true)
	bad.Freq = 0
	if err := bad.ColdInit(b, nil); err == nil {
		t.Fatal("ColdInit accepted a zero frequency")
	}

	d := testMTimer(1, true)
	if err := d.WarmInit(b, 5); err == nil {
		t.Fatal("WarmInit accepted a hart outside the block range")
	}
}
