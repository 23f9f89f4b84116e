package mmio

import (
	"testing"
)

// ram is a simple byte-backed device for tests
type ram struct {
	data []byte
}

func (r *ram) Size() uint64 { return uint64(len(r.data)) }

func (r *ram) Read(offset uint64, size int) (uint64, error) {
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(r.data[offset+uint64(i)])
	}
	return v, nil
}

func (r *ram) Write(offset uint64, size int, value uint64) error {
	for i := 0; i < size; i++ {
		r.data[offset+uint64(i)] = byte(value >> (8 * i))
	}
	return nil
}

func TestMapDispatch(t *testing.T) {
	m := NewMap()
	a := &ram{data: make([]byte, 0x100)}
	b := &ram{data: make([]byte, 0x100)}
	m.AddDevice(0x1000, a)
	m.AddDevice(0x2000, b)

	if err := Write32(m, 0x1004, 0xdeadbeef); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write8(m, 0x20ff, 0x42); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := Read32(m, 0x1004)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0xdeadbeef {
		t.Fatalf("got 0x%x, want 0xdeadbeef", v)
	}

	if b.data[0xff] != 0x42 {
		t.Fatalf("second device not written, got 0x%x", b.data[0xff])
	}
}

func TestMapUnmapped(t *testing.T) {
	m := NewMap()
	m.AddDevice(0x1000, &ram{data: make([]byte, 0x100)})

	if _, err := m.Read(0x0, 4); err == nil {
		t.Fatal("expected error reading below the mapped range")
	}
	if err := m.Write(0x1100, 4, 0); err == nil {
		t.Fatal("expected error writing past the device end")
	}
}

func TestWrite64RoundTrip(t *testing.T) {
	m := NewMap()
	m.AddDevice(0, &ram{data: make([]byte, 16)})

	want := uint64(0x0123456789abcdef)
	if err := Write64(m, 8, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read64(m, 8)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Fatalf("got 0x%x, want 0x%x", got, want)
	}
}
