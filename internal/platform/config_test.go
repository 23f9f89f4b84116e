package platform

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(1)

	if cfg.UART.Addr != 0xF4000000 || cfg.UART.Freq != 100000000 || cfg.UART.Baud != 115200 {
		t.Fatalf("uart defaults: %+v", cfg.UART)
	}
	if cfg.PLIC.Addr != 0xFC000000 || cfg.PLIC.NumSources != 32 {
		t.Fatalf("plic defaults: %+v", cfg.PLIC)
	}
	if cfg.MSWI.Addr != 0xF8000000 {
		t.Fatalf("mswi addr = 0x%x", cfg.MSWI.Addr)
	}
	if cfg.MTimer.MTimeAddr != 0xF800BFF8 {
		t.Fatalf("mtime addr = 0x%x", cfg.MTimer.MTimeAddr)
	}
	if cfg.MTimer.MTimeCmpAddr != 0xF8004000 {
		t.Fatalf("mtimecmp addr = 0x%x", cfg.MTimer.MTimeCmpAddr)
	}
	if cfg.MTimer.Freq != 100000000 {
		t.Fatalf("timer freq = %d", cfg.MTimer.Freq)
	}
	if !cfg.MTimer.Has64BitMMIO {
		t.Fatal("64-bit timer access not enabled")
	}
}

func TestApplySharedBase(t *testing.T) {
	cfg := DefaultConfig(1)
	cfg.ApplySharedBase(0xF0000000)

	if cfg.MSWI.Addr != 0xF0000000 {
		t.Fatalf("mswi addr = 0x%x", cfg.MSWI.Addr)
	}
	if cfg.MTimer.MTimeAddr != 0xF000BFF8 {
		t.Fatalf("mtime addr = 0x%x", cfg.MTimer.MTimeAddr)
	}
	if cfg.MTimer.MTimeCmpAddr != 0xF0004000 {
		t.Fatalf("mtimecmp addr = 0x%x", cfg.MTimer.MTimeCmpAddr)
	}
}

func TestDefaultInfo(t *testing.T) {
	info := DefaultInfo(2)

	if info.Name != "iob-soc" || info.HartCount != 2 {
		t.Fatalf("info = %+v", info)
	}
	if info.HartStackSize != 8192 {
		t.Fatalf("stack size = %d", info.HartStackSize)
	}
	if info.FirmwareVersion != (Version{Major: 0, Minor: 9}) {
		t.Fatalf("firmware version = %+v", info.FirmwareVersion)
	}
	if info.PlatformVersion != (Version{Major: 0, Minor: 1}) {
		t.Fatalf("platform version = %+v", info.PlatformVersion)
	}
}
