package fdt

import (
	"fmt"
)

// Machine-mode external interrupt cause, as used in
// interrupts-extended specifiers.
const irqMachineExternal = 11

// FixupReservedMemory records the firmware image region in the tree's
// reserved-memory node so the next stage keeps its hands off it.
func (t *Tree) FixupReservedMemory(addr, size uint64) error {
	root := t.Root
	ac, sc := cellSizes(root)

	resv := root.Child("reserved-memory")
	if resv == nil {
		resv = root.AddChild(&Node{Name: "reserved-memory"})
		resv.SetProp(PropU32s("#address-cells", uint32(ac)))
		resv.SetProp(PropU32s("#size-cells", uint32(sc)))
		resv.SetProp(PropEmpty("ranges"))
	}

	name := fmt.Sprintf("mmode_resv@%x", addr)
	if resv.Child(name) != nil {
		return nil
	}

	region := resv.AddChild(&Node{Name: name})
	region.SetProp(PropEmpty("no-map"))
	region.SetProp(regProperty(ac, sc, addr, size))
	return nil
}

// regProperty encodes a single reg entry for the given cell sizes.
func regProperty(ac, sc int, addr, size uint64) Property {
	var cells []uint32
	if ac == 2 {
		cells = append(cells, uint32(addr>>32))
	}
	cells = append(cells, uint32(addr))
	if sc == 2 {
		cells = append(cells, uint32(size>>32))
	}
	cells = append(cells, uint32(size))
	return PropU32s("reg", cells...)
}

// FixupIrqChip masks machine-mode entries in the interrupt
// controller's interrupts-extended list, hiding contexts the firmware
// keeps for itself from the supervisor payload.
func (t *Tree) FixupIrqChip(compat string) error {
	n, err := t.FindCompatible(compat)
	if err != nil {
		return err
	}

	p, ok := n.Prop("interrupts-extended")
	if !ok {
		return fmt.Errorf("%w: %s has no interrupts-extended", ErrNotFound, n.Name)
	}
	cells := p.AsU32s()
	if len(cells)%2 != 0 {
		return fmt.Errorf("%w: %s interrupts-extended is not phandle/irq pairs", ErrMalformed, n.Name)
	}

	for i := 1; i < len(cells); i += 2 {
		if cells[i] == irqMachineExternal {
			cells[i] = 0xffffffff
		}
	}
	n.SetProp(PropU32s("interrupts-extended", cells...))
	return nil
}
