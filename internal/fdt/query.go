package fdt

import (
	"fmt"
)

// UART describes a serial device discovered from the tree.
type UART struct {
	Addr      uint64
	Freq      uint64
	Baud      uint32
	RegShift  uint32
	RegOffset uint32
}

// IrqChip describes an interrupt controller discovered from the tree.
type IrqChip struct {
	Addr       uint64
	NumSources uint32
}

// FindCompatible returns the first node whose compatible list contains
// the match string.
func (t *Tree) FindCompatible(compat string) (*Node, error) {
	var found *Node
	t.Root.Walk(func(n *Node) bool {
		if n.Compatible(compat) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: compatible %q", ErrNotFound, compat)
	}
	return found, nil
}

// RegAddr decodes the first entry of a node's reg property using the
// parent's cell sizes.
func RegAddr(n *Node) (addr, size uint64, err error) {
	reg, ok := n.Prop("reg")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s has no reg property", ErrNotFound, n.Name)
	}
	cells := reg.AsU32s()

	ac, sc := cellSizes(n.Parent())
	if ac == 0 || ac > 2 || sc > 2 || len(cells) < ac+sc {
		return 0, 0, fmt.Errorf("%w: %s has an invalid reg encoding", ErrMalformed, n.Name)
	}

	for i := 0; i < ac; i++ {
		addr = addr<<32 | uint64(cells[i])
	}
	for i := 0; i < sc; i++ {
		size = size<<32 | uint64(cells[ac+i])
	}
	return addr, size, nil
}

// cellSizes returns the #address-cells/#size-cells in effect for
// children of n, with device-tree defaults when unspecified.
func cellSizes(n *Node) (ac, sc int) {
	ac, sc = 2, 1
	if n == nil {
		return ac, sc
	}
	if p, ok := n.Prop("#address-cells"); ok {
		if v, ok := p.AsU32(); ok {
			ac = int(v)
		}
	}
	if p, ok := n.Prop("#size-cells"); ok {
		if v, ok := p.AsU32(); ok {
			sc = int(v)
		}
	}
	return ac, sc
}

// ParseUART locates a serial device by compatible string and decodes
// its address and line parameters. Every field must decode; a node
// with a missing clock or baud rate is reported as malformed rather
// than partially filled in.
func (t *Tree) ParseUART(compat string) (UART, error) {
	n, err := t.FindCompatible(compat)
	if err != nil {
		return UART{}, err
	}

	addr, _, err := RegAddr(n)
	if err != nil {
		return UART{}, err
	}

	freq, ok := propU32(n, "clock-frequency")
	if !ok {
		return UART{}, fmt.Errorf("%w: %s has no clock-frequency", ErrMalformed, n.Name)
	}
	baud, ok := propU32(n, "current-speed")
	if !ok {
		return UART{}, fmt.Errorf("%w: %s has no current-speed", ErrMalformed, n.Name)
	}

	out := UART{Addr: addr, Freq: uint64(freq), Baud: baud}
	if v, ok := propU32(n, "reg-shift"); ok {
		out.RegShift = v
	}
	if v, ok := propU32(n, "reg-offset"); ok {
		out.RegOffset = v
	}
	return out, nil
}

// ParseIrqChip locates an interrupt controller by compatible string
// and decodes its address and source count.
func (t *Tree) ParseIrqChip(compat string) (IrqChip, error) {
	n, err := t.FindCompatible(compat)
	if err != nil {
		return IrqChip{}, err
	}

	addr, _, err := RegAddr(n)
	if err != nil {
		return IrqChip{}, err
	}

	ndev, ok := propU32(n, "riscv,ndev")
	if !ok {
		return IrqChip{}, fmt.Errorf("%w: %s has no riscv,ndev", ErrMalformed, n.Name)
	}
	return IrqChip{Addr: addr, NumSources: ndev}, nil
}

// TimebaseFrequency returns the cpus node's timebase-frequency.
func (t *Tree) TimebaseFrequency() (uint64, error) {
	cpus := t.Root.Child("cpus")
	if cpus == nil {
		return 0, fmt.Errorf("%w: cpus node", ErrNotFound)
	}
	freq, ok := propU32(cpus, "timebase-frequency")
	if !ok {
		return 0, fmt.Errorf("%w: cpus has no timebase-frequency", ErrNotFound)
	}
	return uint64(freq), nil
}

// CompatibleAddress returns the base address of the first node
// matching the compatible string.
func (t *Tree) CompatibleAddress(compat string) (uint64, error) {
	n, err := t.FindCompatible(compat)
	if err != nil {
		return 0, err
	}
	addr, _, err := RegAddr(n)
	return addr, err
}

func propU32(n *Node, name string) (uint32, bool) {
	p, ok := n.Prop(name)
	if !ok {
		return 0, false
	}
	return p.AsU32()
}
