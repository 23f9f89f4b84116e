package uart8250

import (
	"bytes"
	"testing"

	"github.com/PedroAntunes178/iob-linux/internal/mmio"
	"github.com/PedroAntunes178/iob-linux/internal/soc"
)

func testBus(out *bytes.Buffer) (*mmio.Map, *soc.UART) {
	u := soc.NewUART(out)
	m := mmio.NewMap()
	m.AddDevice(0xF4000000, u)
	return m, u
}

func TestColdInitDivisor(t *testing.T) {
	tests := []struct {
		freq uint64
		baud uint32
		want uint16
	}{
		{100000000, 115200, 54},
		{50000000, 57600, 54},
		{3686400, 115200, 2},
		{1843200, 115200, 1},
	}

	for _, tt := range tests {
		b, u := testBus(nil)
		cfg := Config{Addr: 0xF4000000, Freq: tt.freq, Baud: tt.baud}
		if err := ColdInit(b, cfg, 0, ParityNone); err != nil {
			t.Fatalf("ColdInit(%d, %d): %v", tt.freq, tt.baud, err)
		}
		if got := u.Divisor(); got != tt.want {
			t.Fatalf("ColdInit(%d, %d): divisor = %d, want %d", tt.freq, tt.baud, got, tt.want)
		}
		// DLAB must be left clear so data registers are reachable.
		if u.LCR&0x80 != 0 {
			t.Fatalf("ColdInit(%d, %d): DLAB still set", tt.freq, tt.baud)
		}
	}
}

func TestColdInitLineControl(t *testing.T) {
	b, u := testBus(nil)
	cfg := Config{Addr: 0xF4000000, Freq: 100000000, Baud: 115200}

	if err := ColdInit(b, cfg, 0, ParityEven); err != nil {
		t.Fatalf("ColdInit: %v", err)
	}
	if u.LCR != 0x1b {
		t.Fatalf("LCR = 0x%x, want 0x1b (8 bits, even parity)", u.LCR)
	}
	if u.IER != 0 {
		t.Fatalf("IER = 0x%x, interrupts should be off after init", u.IER)
	}
}

func TestColdInitIncompleteConfig(t *testing.T) {
	b, _ := testBus(nil)
	for _, cfg := range []Config{
		{Freq: 100000000, Baud: 115200},
		{Addr: 0xF4000000, Baud: 115200},
		{Addr: 0xF4000000, Freq: 100000000},
	} {
		if err := ColdInit(b, cfg, 0, ParityNone); err == nil {
			t.Fatalf("ColdInit(%+v) succeeded, want error", cfg)
		}
	}
}

func TestPutc(t *testing.T) {
	var out bytes.Buffer
	b, _ := testBus(&out)
	cfg := Config{Addr: 0xF4000000, Freq: 100000000, Baud: 115200}

	if err := ColdInit(b, cfg, 0, ParityNone); err != nil {
		t.Fatalf("ColdInit: %v", err)
	}
	for _, ch := range []byte("ok\n") {
		if err := Putc(b, cfg, 0, ch); err != nil {
			t.Fatalf("Putc: %v", err)
		}
	}
	if out.String() != "ok\n" {
		t.Fatalf("output = %q", out.String())
	}
}
