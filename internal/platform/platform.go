// Package platform sequences the IOb-SoC bring-up: device discovery
// from the device tree, tree fixups for the next boot stage, and the
// per-device cold/warm initialization phases the boot orchestrator
// drives on every hart.
package platform

import (
	"github.com/PedroAntunes178/iob-linux/internal/drivers/plic"
	"github.com/PedroAntunes178/iob-linux/internal/drivers/uart8250"
	"github.com/PedroAntunes178/iob-linux/internal/fdt"
	"github.com/PedroAntunes178/iob-linux/internal/mmio"
)

// Feature flags advertised in the platform descriptor.
type Feature uint32

const (
	FeatureTimerValue Feature = 1 << iota
	FeatureSCounterEn
	FeatureMCounterEn
	FeatureMFaultsDelegation
)

// DefaultFeatures is the standard feature set for this platform.
const DefaultFeatures = FeatureTimerValue | FeatureSCounterEn |
	FeatureMCounterEn | FeatureMFaultsDelegation

// Has reports whether all given flags are set.
func (f Feature) Has(flags Feature) bool {
	return f&flags == flags
}

// Version is a major/minor pair.
type Version struct {
	Major uint16
	Minor uint16
}

// Info is the static platform descriptor handed to the boot
// orchestrator.
type Info struct {
	Name            string
	HartCount       uint32
	HartStackSize   uint32
	Features        Feature
	FirmwareVersion Version
	PlatformVersion Version
}

// DefaultInfo returns the IOb-SoC platform descriptor.
func DefaultInfo(hartCount uint32) Info {
	return Info{
		Name:            "iob-soc",
		HartCount:       hartCount,
		HartStackSize:   8192,
		Features:        DefaultFeatures,
		FirmwareVersion: Version{Major: 0, Minor: 9},
		PlatformVersion: Version{Major: 0, Minor: 1},
	}
}

// Console structural parameters fixed by the SoC wiring, not subject
// to discovery.
const (
	consoleRegShift = 0
	consoleParity   = uart8250.ParityNone
)

// Firmware image region reserved from the supervisor payload.
const (
	firmwareBase = 0x80000000
	firmwareSize = 0x80000
)

// Platform carries the bring-up state: the descriptor set, the MMIO
// bus the drivers program, and the collaborator accessors.
type Platform struct {
	Info Info

	cfg    Config
	bus    mmio.Bus
	dtb    func() []byte
	hartID func() uint32

	nextBlob []byte
}

// Option configures a Platform.
type Option func(*Platform)

// WithConfig replaces the build-time default descriptors.
func WithConfig(cfg Config) Option {
	return func(p *Platform) { p.cfg = cfg }
}

// WithInfo replaces the platform descriptor.
func WithInfo(info Info) Option {
	return func(p *Platform) { p.Info = info }
}

// WithDeviceTree installs the hardware-description blob accessor. A
// nil accessor, or one returning an empty blob, means no device tree
// and leaves every default in place.
func WithDeviceTree(fn func() []byte) Option {
	return func(p *Platform) { p.dtb = fn }
}

// WithHartID installs the current-hart accessor used by the per-hart
// phases.
func WithHartID(fn func() uint32) Option {
	return func(p *Platform) { p.hartID = fn }
}

// New creates a Platform over the given bus with IOb-SoC defaults.
func New(bus mmio.Bus, opts ...Option) *Platform {
	p := &Platform{
		Info:   DefaultInfo(DefaultHartCount),
		cfg:    DefaultConfig(DefaultHartCount),
		bus:    bus,
		hartID: func() uint32 { return 0 },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the current descriptor set. After EarlyInit on the
// cold boot hart the value no longer changes.
func (p *Platform) Config() Config {
	return p.cfg
}

// NextStageBlob returns the device tree handed to the supervisor
// payload: the fixed-up blob when FinalInit produced one, otherwise
// the original.
func (p *Platform) NextStageBlob() []byte {
	if p.nextBlob != nil {
		return p.nextBlob
	}
	if p.dtb == nil {
		return nil
	}
	return p.dtb()
}

// deviceTree parses the blob accessor's current value. Any failure is
// treated as "no device tree"; the blob is advisory.
func (p *Platform) deviceTree() *fdt.Tree {
	if p.dtb == nil {
		return nil
	}
	blob := p.dtb()
	if len(blob) == 0 {
		return nil
	}
	tree, err := fdt.Parse(blob)
	if err != nil {
		return nil
	}
	return tree
}

// EarlyInit discovers device addresses and parameters from the device
// tree, overriding the static defaults where a lookup succeeds. Runs
// once, on the cold boot hart only; a failed lookup keeps the
// corresponding default and is not an error.
func (p *Platform) EarlyInit(coldBoot bool) error {
	if !coldBoot {
		return nil
	}

	tree := p.deviceTree()
	if tree == nil {
		return nil
	}

	if u, err := tree.ParseUART(compatUART); err == nil {
		p.cfg.UART = uart8250.Config{Addr: u.Addr, Freq: u.Freq, Baud: u.Baud}
	}

	if ic, err := tree.ParseIrqChip(compatPLIC); err == nil {
		p.cfg.PLIC = plic.Data{Addr: ic.Addr, NumSources: ic.NumSources}
	}

	if freq, err := tree.TimebaseFrequency(); err == nil {
		p.cfg.MTimer.Freq = freq
	}

	if base, err := tree.CompatibleAddress(compatCLINT); err == nil {
		p.cfg.ApplySharedBase(base)
	}

	return nil
}

// FinalInit applies the platform fixups to the device tree passed on
// to the supervisor payload. Fixups are best effort; a payload booted
// with a partially fixed tree beats no boot at all.
func (p *Platform) FinalInit(coldBoot bool) error {
	if !coldBoot {
		return nil
	}

	tree := p.deviceTree()
	if tree == nil {
		return nil
	}

	_ = tree.FixupReservedMemory(firmwareBase, firmwareSize)
	_ = tree.FixupIrqChip(compatPLIC)

	if blob, err := fdt.Build(tree.Root); err == nil {
		p.nextBlob = blob
	}
	return nil
}

// ConsoleInit programs the console UART from the current descriptor.
// A failure here is fatal; there is no fallback console.
func (p *Platform) ConsoleInit() error {
	return uart8250.ColdInit(p.bus, p.cfg.UART, consoleRegShift, consoleParity)
}

// IrqchipInit brings up the interrupt controller: shared setup on the
// cold boot hart, then the calling hart's machine context 2*hartid and
// supervisor context 2*hartid+1, per the platform-wide numbering.
func (p *Platform) IrqchipInit(coldBoot bool) error {
	hart := p.hartID()
	return sharedThenLocal(coldBoot,
		func() error { return p.cfg.PLIC.ColdInit(p.bus) },
		func() error { return p.cfg.PLIC.WarmInit(p.bus, 2*hart, 2*hart+1) },
	)
}

// IpiInit brings up the inter-hart software interrupt block: shared
// setup on the cold boot hart, then the calling hart's own enablement.
func (p *Platform) IpiInit(coldBoot bool) error {
	return sharedThenLocal(coldBoot,
		func() error { return p.cfg.MSWI.ColdInit(p.bus) },
		func() error { return p.cfg.MSWI.WarmInit(p.bus, p.hartID()) },
	)
}

// TimerInit brings up the machine timer: shared setup on the cold boot
// hart, then parking the calling hart's compare register.
func (p *Platform) TimerInit(coldBoot bool) error {
	return sharedThenLocal(coldBoot,
		func() error { return p.cfg.MTimer.ColdInit(p.bus, nil) },
		func() error { return p.cfg.MTimer.WarmInit(p.bus, p.hartID()) },
	)
}
