// Command iobsbi runs the IOb-SoC firmware bring-up sequence against
// the simulated SoC, reporting what discovery found and what the
// drivers programmed. Useful for checking a board definition or a
// device tree blob before flashing anything.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/PedroAntunes178/iob-linux/internal/board"
	"github.com/PedroAntunes178/iob-linux/internal/fdt"
	"github.com/PedroAntunes178/iob-linux/internal/platform"
	"github.com/PedroAntunes178/iob-linux/internal/soc"
)

func main() {
	boardPath := flag.String("board", "", "YAML board definition")
	dtbPath := flag.String("dtb", "", "device tree blob to discover from (default: generated from the simulated SoC)")
	noDTB := flag.Bool("no-dtb", false, "boot without a device tree, using build-time defaults only")
	harts := flag.Uint("harts", 0, "hart count override")
	outPath := flag.String("out", "", "write the next-stage device tree blob to this file (- for stdout)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*boardPath, *dtbPath, *noDTB, uint32(*harts), *outPath); err != nil {
		slog.Error("boot failed", "err", err)
		os.Exit(1)
	}
}

func run(boardPath, dtbPath string, noDTB bool, harts uint32, outPath string) error {
	cfg := platform.DefaultConfig(platform.DefaultHartCount)
	info := platform.DefaultInfo(platform.DefaultHartCount)

	if boardPath != "" {
		def, err := board.Load(boardPath)
		if err != nil {
			return err
		}
		cfg = def.Config()
		info = def.Info()
		slog.Debug("loaded board definition", "path", boardPath, "name", info.Name)
	}
	if harts != 0 {
		cfg.MSWI.HartCount = harts
		cfg.MTimer.HartCount = harts
		info.HartCount = harts
	}

	machine := soc.New(info.HartCount, soc.DefaultMemoryMap(), os.Stdout)

	blob, err := bootBlob(machine, dtbPath, noDTB)
	if err != nil {
		return err
	}

	currentHart := uint32(0)
	p := platform.New(machine.Bus,
		platform.WithConfig(cfg),
		platform.WithInfo(info),
		platform.WithDeviceTree(func() []byte { return blob }),
		platform.WithHartID(func() uint32 { return currentHart }),
	)

	slog.Info("platform", "name", p.Info.Name,
		"harts", p.Info.HartCount,
		"stack", p.Info.HartStackSize,
		"fw", fmt.Sprintf("%d.%d", p.Info.FirmwareVersion.Major, p.Info.FirmwareVersion.Minor),
		"rev", fmt.Sprintf("%d.%d", p.Info.PlatformVersion.Major, p.Info.PlatformVersion.Minor))

	for hart := uint32(0); hart < p.Info.HartCount; hart++ {
		currentHart = hart
		cold := hart == 0

		if err := p.EarlyInit(cold); err != nil {
			return fmt.Errorf("early init, hart %d: %w", hart, err)
		}
		if err := p.FinalInit(cold); err != nil {
			return fmt.Errorf("final init, hart %d: %w", hart, err)
		}
		if err := p.ConsoleInit(); err != nil {
			return fmt.Errorf("console init, hart %d: %w", hart, err)
		}
		if err := p.IrqchipInit(cold); err != nil {
			return fmt.Errorf("irqchip init, hart %d: %w", hart, err)
		}
		if err := p.IpiInit(cold); err != nil {
			return fmt.Errorf("ipi init, hart %d: %w", hart, err)
		}
		if err := p.TimerInit(cold); err != nil {
			return fmt.Errorf("timer init, hart %d: %w", hart, err)
		}
		slog.Debug("hart up", "hart", hart, "cold", cold)
	}

	report(p, machine)

	if outPath != "" {
		if err := writeBlob(outPath, p.NextStageBlob()); err != nil {
			return err
		}
	}
	return nil
}

// bootBlob returns the device tree handed to discovery: a file, a tree
// generated from the simulated SoC, or nothing at all.
func bootBlob(machine *soc.SoC, dtbPath string, noDTB bool) ([]byte, error) {
	if noDTB {
		return nil, nil
	}
	if dtbPath != "" {
		blob, err := os.ReadFile(dtbPath)
		if err != nil {
			return nil, fmt.Errorf("read dtb: %w", err)
		}
		return blob, nil
	}
	return fdt.Build(machine.DeviceTree("console=ttyS0"))
}

func report(p *platform.Platform, machine *soc.SoC) {
	cfg := p.Config()
	slog.Info("console",
		"addr", hex(cfg.UART.Addr), "freq", cfg.UART.Freq, "baud", cfg.UART.Baud,
		"divisor", machine.UART.Divisor())
	slog.Info("irqchip",
		"addr", hex(cfg.PLIC.Addr), "sources", cfg.PLIC.NumSources,
		"contexts", fmt.Sprint(machine.PLIC.TouchedContexts()))
	slog.Info("ipi",
		"addr", hex(cfg.MSWI.Addr), "harts", cfg.MSWI.HartCount)
	slog.Info("timer",
		"freq", cfg.MTimer.Freq,
		"mtime", hex(cfg.MTimer.MTimeAddr), "mtimecmp", hex(cfg.MTimer.MTimeCmpAddr),
		"armed", hex(machine.CLINT.MTimeCmp(0)))
}

// writeBlob writes the next-stage tree, refusing to splat a binary
// blob onto an interactive terminal.
func writeBlob(path string, blob []byte) error {
	if blob == nil {
		return fmt.Errorf("no device tree to write")
	}
	if path == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write a binary blob to a terminal, redirect stdout or use a file path")
		}
		_, err := os.Stdout.Write(blob)
		return err
	}
	return os.WriteFile(path, blob, 0644)
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
