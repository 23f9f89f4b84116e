// Package fdt reads, edits and writes Flattened Device Tree blobs.
package fdt

import (
	"bytes"
	"encoding/binary"
)

// Property holds a single device-tree property. Values are kept in
// their wire encoding; typed accessors interpret them on demand since
// the blob itself does not distinguish strings from cells.
type Property struct {
	Name string
	Data []byte
}

// AsString interprets the value as a single NUL-terminated string.
func (p Property) AsString() (string, bool) {
	if len(p.Data) == 0 || p.Data[len(p.Data)-1] != 0 {
		return "", false
	}
	s := p.Data[:len(p.Data)-1]
	if bytes.IndexByte(s, 0) >= 0 {
		return "", false
	}
	return string(s), true
}

// AsStrings interprets the value as a NUL-separated string list.
func (p Property) AsStrings() []string {
	if len(p.Data) == 0 || p.Data[len(p.Data)-1] != 0 {
		return nil
	}
	parts := bytes.Split(p.Data[:len(p.Data)-1], []byte{0})
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = string(part)
	}
	return out
}

// AsU32 interprets the value as a single 32-bit cell.
func (p Property) AsU32() (uint32, bool) {
	if len(p.Data) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(p.Data), true
}

// AsU32s interprets the value as an array of 32-bit cells.
func (p Property) AsU32s() []uint32 {
	if len(p.Data)%4 != 0 {
		return nil
	}
	out := make([]uint32, len(p.Data)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(p.Data[i*4:])
	}
	return out
}

// PropString encodes a string property.
func PropString(name, value string) Property {
	return Property{Name: name, Data: append([]byte(value), 0)}
}

// PropStrings encodes a string list property.
func PropStrings(name string, values ...string) Property {
	var buf bytes.Buffer
	for _, v := range values {
		buf.WriteString(v)
		buf.WriteByte(0)
	}
	return Property{Name: name, Data: buf.Bytes()}
}

// PropU32s encodes an array of 32-bit cells.
func PropU32s(name string, values ...uint32) Property {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.BigEndian.PutUint32(data[i*4:], v)
	}
	return Property{Name: name, Data: data}
}

// PropU64 encodes a 64-bit value as two cells.
func PropU64(name string, value uint64) Property {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, value)
	return Property{Name: name, Data: data}
}

// PropEmpty encodes a zero-length marker property.
func PropEmpty(name string) Property {
	return Property{Name: name}
}

// Node is a device-tree node. Property and child order follows the
// blob so an edited tree serializes back without gratuitous churn.
type Node struct {
	Name     string
	Props    []Property
	Children []*Node

	parent *Node
}

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Prop returns the named property, or false if absent.
func (n *Node) Prop(name string) (Property, bool) {
	for _, p := range n.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// SetProp adds or replaces a property.
func (n *Node) SetProp(p Property) {
	for i := range n.Props {
		if n.Props[i].Name == p.Name {
			n.Props[i] = p
			return
		}
	}
	n.Props = append(n.Props, p)
}

// Child returns the named child node, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddChild appends a child node and links it to the receiver.
func (n *Node) AddChild(c *Node) *Node {
	c.parent = n
	n.Children = append(n.Children, c)
	return c
}

// Walk visits n and every descendant in blob order until fn returns
// false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Compatible reports whether the node's compatible list contains the
// given match string.
func (n *Node) Compatible(compat string) bool {
	p, ok := n.Prop("compatible")
	if !ok {
		return false
	}
	for _, s := range p.AsStrings() {
		if s == compat {
			return true
		}
	}
	return false
}
