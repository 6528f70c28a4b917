package runtime

import "encoding/binary"

// PageSize is the size in bytes of one linear-memory page (64KiB).
// See https://www.w3.org/TR/wasm-core-1/#page-size
const PageSize = 65536

// Memory is a module's linear memory: an owned, growable byte buffer whose
// every access is bounds-checked against the current size. Multi-byte values
// are always little-endian, independent of the host byte order.
//
// A Memory belongs to exactly one execution; concurrent use of one instance
// is not supported.
type Memory struct {
	buffer   []byte
	maxPages uint32
}

// NewMemory returns a zero-initialized memory of initialPages, growable up to
// maxPages.
func NewMemory(initialPages, maxPages uint32) *Memory {
	if maxPages < initialPages {
		maxPages = initialPages
	}
	return &Memory{
		buffer:   make([]byte, uint64(initialPages)*PageSize),
		maxPages: maxPages,
	}
}

// Pages returns the current size in 64KiB pages, the value of `memory.size`.
func (m *Memory) Pages() uint32 {
	return uint32(len(m.buffer) / PageSize)
}

// Size returns the current size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.buffer))
}

// Grow extends the memory by delta pages, returning the previous page count,
// or -1 when the result would exceed the maximum. New pages are
// zero-initialized. This is the value semantics of `memory.grow`.
func (m *Memory) Grow(delta uint32) int32 {
	old := m.Pages()
	if uint64(old)+uint64(delta) > uint64(m.maxPages) {
		return -1
	}
	m.buffer = append(m.buffer, make([]byte, uint64(delta)*PageSize)...)
	return int32(old)
}

// Initialize copies an active data segment into memory. Unlike loads and
// stores this happens before execution; an out-of-range segment is still a
// trap per instantiation semantics.
func (m *Memory) Initialize(offset uint32, init []byte) error {
	if !m.hasSize(offset, uint32(len(init))) {
		return trapMemOutOfRange
	}
	copy(m.buffer[offset:], init)
	return nil
}

// hasSize is the single bounds condition every accessor goes through:
// addr+n must not extend past the current size. The addition is performed in
// 64 bits so it cannot wrap.
func (m *Memory) hasSize(addr uint32, n uint32) bool {
	return uint64(addr)+uint64(n) <= uint64(len(m.buffer))
}

// ReadUint8 returns the byte at addr.
func (m *Memory) ReadUint8(addr uint32) (byte, error) {
	if !m.hasSize(addr, 1) {
		return 0, trapMemOutOfRange
	}
	return m.buffer[addr], nil
}

// ReadUint16 returns the little-endian 16-bit value at addr.
func (m *Memory) ReadUint16(addr uint32) (uint16, error) {
	if !m.hasSize(addr, 2) {
		return 0, trapMemOutOfRange
	}
	return binary.LittleEndian.Uint16(m.buffer[addr:]), nil
}

// ReadUint32 returns the little-endian 32-bit value at addr.
func (m *Memory) ReadUint32(addr uint32) (uint32, error) {
	if !m.hasSize(addr, 4) {
		return 0, trapMemOutOfRange
	}
	return binary.LittleEndian.Uint32(m.buffer[addr:]), nil
}

// ReadUint64 returns the little-endian 64-bit value at addr.
func (m *Memory) ReadUint64(addr uint32) (uint64, error) {
	if !m.hasSize(addr, 8) {
		return 0, trapMemOutOfRange
	}
	return binary.LittleEndian.Uint64(m.buffer[addr:]), nil
}

// WriteUint8 stores one byte at addr.
func (m *Memory) WriteUint8(addr uint32, v byte) error {
	if !m.hasSize(addr, 1) {
		return trapMemOutOfRange
	}
	m.buffer[addr] = v
	return nil
}

// WriteUint16 stores a little-endian 16-bit value at addr.
func (m *Memory) WriteUint16(addr uint32, v uint16) error {
	if !m.hasSize(addr, 2) {
		return trapMemOutOfRange
	}
	binary.LittleEndian.PutUint16(m.buffer[addr:], v)
	return nil
}

// WriteUint32 stores a little-endian 32-bit value at addr.
func (m *Memory) WriteUint32(addr uint32, v uint32) error {
	if !m.hasSize(addr, 4) {
		return trapMemOutOfRange
	}
	binary.LittleEndian.PutUint32(m.buffer[addr:], v)
	return nil
}

// WriteUint64 stores a little-endian 64-bit value at addr.
func (m *Memory) WriteUint64(addr uint32, v uint64) error {
	if !m.hasSize(addr, 8) {
		return trapMemOutOfRange
	}
	binary.LittleEndian.PutUint64(m.buffer[addr:], v)
	return nil
}
