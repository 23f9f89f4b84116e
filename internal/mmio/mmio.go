// Package mmio models memory-mapped I/O for the simulated SoC: devices
// expose offset-based register access and a Map dispatches absolute
// physical addresses to them.
package mmio

import (
	"fmt"
	"sort"
)

// Device represents a memory-mapped device
type Device interface {
	// Read reads from the device at the given offset
	Read(offset uint64, size int) (uint64, error)
	// Write writes to the device at the given offset
	Write(offset uint64, size int, value uint64) error
	// Size returns the size of the device's address space
	Size() uint64
}

// Bus provides sized access to physical addresses.
type Bus interface {
	Read(addr uint64, size int) (uint64, error)
	Write(addr uint64, size int, value uint64) error
}

// mapping binds a device to a base physical address
type mapping struct {
	base uint64
	dev  Device
}

// Map dispatches physical addresses to registered devices.
type Map struct {
	mappings []mapping
}

// NewMap creates an empty address map.
func NewMap() *Map {
	return &Map{}
}

// AddDevice registers a device at the given base address.
func (m *Map) AddDevice(base uint64, dev Device) {
	m.mappings = append(m.mappings, mapping{base: base, dev: dev})
	sort.Slice(m.mappings, func(i, j int) bool {
		return m.mappings[i].base < m.mappings[j].base
	})
}

// find returns the device covering addr, or nil
func (m *Map) find(addr uint64) (Device, uint64) {
	for _, entry := range m.mappings {
		if addr >= entry.base && addr < entry.base+entry.dev.Size() {
			return entry.dev, addr - entry.base
		}
	}
	return nil, 0
}

// Read implements Bus
func (m *Map) Read(addr uint64, size int) (uint64, error) {
	dev, offset := m.find(addr)
	if dev == nil {
		return 0, fmt.Errorf("mmio: read of unmapped address 0x%x", addr)
	}
	return dev.Read(offset, size)
}

// Write implements Bus
func (m *Map) Write(addr uint64, size int, value uint64) error {
	dev, offset := m.find(addr)
	if dev == nil {
		return fmt.Errorf("mmio: write of unmapped address 0x%x", addr)
	}
	return dev.Write(offset, size, value)
}

var _ Bus = (*Map)(nil)

// Read8 reads a byte register.
func Read8(b Bus, addr uint64) (uint8, error) {
	v, err := b.Read(addr, 1)
	return uint8(v), err
}

// Read32 reads a 32-bit register.
func Read32(b Bus, addr uint64) (uint32, error) {
	v, err := b.Read(addr, 4)
	return uint32(v), err
}

// Read64 reads a 64-bit register.
func Read64(b Bus, addr uint64) (uint64, error) {
	return b.Read(addr, 8)
}

// Write8 writes a byte register.
func Write8(b Bus, addr uint64, value uint8) error {
	return b.Write(addr, 1, uint64(value))
}

// Write32 writes a 32-bit register.
func Write32(b Bus, addr uint64, value uint32) error {
	return b.Write(addr, 4, uint64(value))
}

// Write64 writes a 64-bit register.
func Write64(b Bus, addr uint64, value uint64) error {
	return b.Write(addr, 8, value)
}
