// Package board loads YAML board definitions that override the
// build-time platform defaults for a particular bitstream.
package board

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PedroAntunes178/iob-linux/internal/platform"
)

// Definition describes one board build. Zero fields fall back to the
// platform defaults.
type Definition struct {
	Name  string `yaml:"name"`
	Harts uint32 `yaml:"harts"`

	UART struct {
		Addr uint64 `yaml:"addr"`
		Freq uint64 `yaml:"freq"`
		Baud uint32 `yaml:"baud"`
	} `yaml:"uart"`

	PLIC struct {
		Addr    uint64 `yaml:"addr"`
		Sources uint32 `yaml:"sources"`
	} `yaml:"plic"`

	CLINT struct {
		Addr uint64 `yaml:"addr"`
	} `yaml:"clint"`

	TimerFreq uint64 `yaml:"timerFreq"`
}

// Load reads and validates a board definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board: read %s: %w", path, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("board: parse %s: %w", path, err)
	}
	def.normalize()

	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("board: %s: %w", path, err)
	}
	return &def, nil
}

func (d *Definition) normalize() {
	if d.Name == "" {
		d.Name = "iob-soc"
	}
	if d.Harts == 0 {
		d.Harts = platform.DefaultHartCount
	}
}

func (d *Definition) validate() error {
	// The UART line parameters feed one divisor computation; a board
	// may override all three or none.
	u := d.UART
	set := 0
	for _, v := range []uint64{u.Addr, u.Freq, uint64(u.Baud)} {
		if v != 0 {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("uart overrides must set addr, freq and baud together")
	}
	return nil
}

// Config converts the definition into a descriptor set.
func (d *Definition) Config() platform.Config {
	cfg := platform.DefaultConfig(d.Harts)

	if d.UART.Addr != 0 {
		cfg.UART.Addr = d.UART.Addr
		cfg.UART.Freq = d.UART.Freq
		cfg.UART.Baud = d.UART.Baud
	}
	if d.PLIC.Addr != 0 {
		cfg.PLIC.Addr = d.PLIC.Addr
	}
	if d.PLIC.Sources != 0 {
		cfg.PLIC.NumSources = d.PLIC.Sources
	}
	if d.CLINT.Addr != 0 {
		cfg.ApplySharedBase(d.CLINT.Addr)
	}
	if d.TimerFreq != 0 {
		cfg.MTimer.Freq = d.TimerFreq
	}
	return cfg
}

// Info converts the definition into a platform descriptor.
func (d *Definition) Info() platform.Info {
	info := platform.DefaultInfo(d.Harts)
	info.Name = d.Name
	return info
}
