package fdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a blob fails structural validation.
var ErrMalformed = errors.New("fdt: malformed blob")

// ErrNotFound is returned by lookups when no node or property matches.
var ErrNotFound = errors.New("fdt: not found")

// Tree is a parsed device tree.
type Tree struct {
	Root *Node
}

// Parse decodes an FDT blob into a node tree.
func Parse(blob []byte) (*Tree, error) {
	if len(blob) < fdtHeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrMalformed)
	}
	if binary.BigEndian.Uint32(blob[0:4]) != fdtMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}

	totalSize := binary.BigEndian.Uint32(blob[4:8])
	offStruct := binary.BigEndian.Uint32(blob[8:12])
	offStrings := binary.BigEndian.Uint32(blob[12:16])
	sizeStrings := binary.BigEndian.Uint32(blob[32:36])
	sizeStruct := binary.BigEndian.Uint32(blob[36:40])

	if uint64(totalSize) > uint64(len(blob)) ||
		uint64(offStruct)+uint64(sizeStruct) > uint64(totalSize) ||
		uint64(offStrings)+uint64(sizeStrings) > uint64(totalSize) {
		return nil, fmt.Errorf("%w: block offsets exceed blob", ErrMalformed)
	}

	p := &parser{
		structBuf: blob[offStruct : offStruct+sizeStruct],
		strings:   blob[offStrings : offStrings+sizeStrings],
	}

	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root}, nil
}

type parser struct {
	structBuf []byte
	strings   []byte
	off       int
}

func (p *parser) parse() (*Node, error) {
	token, err := p.token()
	if err != nil {
		return nil, err
	}
	if token != fdtBeginNodeToken {
		return nil, fmt.Errorf("%w: tree does not begin with a node", ErrMalformed)
	}

	root, err := p.node()
	if err != nil {
		return nil, err
	}

	token, err = p.token()
	if err != nil {
		return nil, err
	}
	if token != fdtEndToken {
		return nil, fmt.Errorf("%w: trailing data after root node", ErrMalformed)
	}
	return root, nil
}

// node parses a node body after its begin token has been consumed
func (p *parser) node() (*Node, error) {
	name, err := p.nodeName()
	if err != nil {
		return nil, err
	}
	n := &Node{Name: name}

	for {
		token, err := p.token()
		if err != nil {
			return nil, err
		}

		switch token {
		case fdtPropToken:
			prop, err := p.property()
			if err != nil {
				return nil, err
			}
			n.Props = append(n.Props, prop)

		case fdtBeginNodeToken:
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			n.AddChild(child)

		case fdtEndNodeToken:
			return n, nil

		case fdtNopToken:

		default:
			return nil, fmt.Errorf("%w: unexpected token 0x%x", ErrMalformed, token)
		}
	}
}

func (p *parser) token() (uint32, error) {
	if p.off+4 > len(p.structBuf) {
		return 0, fmt.Errorf("%w: truncated structure block", ErrMalformed)
	}
	token := binary.BigEndian.Uint32(p.structBuf[p.off:])
	p.off += 4
	return token, nil
}

func (p *parser) nodeName() (string, error) {
	end := bytes.IndexByte(p.structBuf[p.off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated node name", ErrMalformed)
	}
	name := string(p.structBuf[p.off : p.off+end])
	p.off += end + 1
	p.align()
	return name, nil
}

func (p *parser) property() (Property, error) {
	if p.off+8 > len(p.structBuf) {
		return Property{}, fmt.Errorf("%w: truncated property header", ErrMalformed)
	}
	length := int(binary.BigEndian.Uint32(p.structBuf[p.off:]))
	nameOff := int(binary.BigEndian.Uint32(p.structBuf[p.off+4:]))
	p.off += 8

	if p.off+length > len(p.structBuf) {
		return Property{}, fmt.Errorf("%w: truncated property value", ErrMalformed)
	}
	data := make([]byte, length)
	copy(data, p.structBuf[p.off:p.off+length])
	p.off += length
	p.align()

	if nameOff >= len(p.strings) {
		return Property{}, fmt.Errorf("%w: property name offset out of range", ErrMalformed)
	}
	end := bytes.IndexByte(p.strings[nameOff:], 0)
	if end < 0 {
		return Property{}, fmt.Errorf("%w: unterminated property name", ErrMalformed)
	}

	return Property{Name: string(p.strings[nameOff : nameOff+end]), Data: data}, nil
}

func (p *parser) align() {
	for p.off%4 != 0 {
		p.off++
	}
}
