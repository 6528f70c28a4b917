// Package leb128 implements the variable-length integer encoding used
// throughout the WebAssembly binary format.
//
// See https://www.w3.org/TR/wasm-core-1/#integers%E2%91%A4
package leb128

import (
	"errors"
	"fmt"
	"io"
)

var errOverflow32 = errors.New("overflows a 32-bit integer")

// DecodeUint32 reads an unsigned 32-bit LEB128 value, returning the value and
// the number of bytes consumed.
func DecodeUint32(r io.Reader) (ret uint32, num uint64, err error) {
	const (
		mask  uint32 = 1 << 7
		mask2        = ^mask
	)
	for shift := 0; shift < 35; shift += 7 {
		b, err := readByteAsUint32(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		num++
		ret |= (b & mask2) << shift
		if b&mask == 0 {
			break
		}
		// A fifth byte with the continuation bit set cannot fit in 32 bits.
		if shift == 28 {
			return 0, 0, errOverflow32
		}
	}
	return
}

// DecodeInt32 reads a signed 32-bit LEB128 value.
func DecodeInt32(r io.Reader) (ret int32, num uint64, err error) {
	const (
		mask  int32 = 1 << 7
		mask2       = ^mask
		mask3       = 1 << 6
		mask4       = ^0
	)
	var shift int
	var b int32
	for shift < 35 {
		b, err = readByteAsInt32(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		num++
		ret |= (b & mask2) << shift
		shift += 7
		if b&mask == 0 {
			break
		}
	}

	if shift < 32 && (b&mask3) == mask3 {
		ret |= mask4 << shift
	}
	return
}

// DecodeInt64 reads a signed 64-bit LEB128 value.
func DecodeInt64(r io.Reader) (ret int64, num uint64, err error) {
	const (
		mask  int64 = 1 << 7
		mask2       = ^mask
		mask3       = 1 << 6
		mask4       = ^0
	)
	var shift int
	var b int64
	for shift < 64 {
		b, err = readByteAsInt64(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		num++
		ret |= (b & mask2) << shift
		shift += 7
		if b&mask == 0 {
			break
		}
	}

	if shift < 64 && (b&mask3) == mask3 {
		ret |= mask4 << shift
	}
	return
}

// DecodeInt33AsInt64 reads the signed 33-bit block-type field as an int64.
// Negative values encode the single-byte block types (e.g. -64 is the empty
// block type 0x40); non-negative values are type-section indices.
func DecodeInt33AsInt64(r io.Reader) (ret int64, num uint64, err error) {
	const (
		mask  int64 = 1 << 7
		mask2       = ^mask
		mask3       = 1 << 6
		mask4       = 8589934591 // 2^33-1
		mask5       = 1 << 32
		mask6       = mask4 + 1 // 2^33
	)
	var shift int
	var b int64
	for shift < 35 {
		b, err = readByteAsInt64(r)
		num++
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		ret |= (b & mask2) << shift
		shift += 7
		if b&mask == 0 {
			break
		}
	}

	if shift < 33 && (b&mask3) == mask3 {
		ret |= mask4 << shift
	}
	ret = ret & mask4

	// if the 33rd bit is set, translate to the corresponding signed-33bit
	// negative value.
	if ret&mask5 > 0 {
		ret = ret - mask6
	}
	return ret, num, nil
}

// EncodeUint32 encodes the value into a buffer in unsigned LEB128 format.
func EncodeUint32(v uint32) (buf []byte) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return
		}
	}
}

// EncodeInt32 encodes the value into a buffer in signed LEB128 format.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes the value into a buffer in signed LEB128 format.
func EncodeInt64(v int64) (buf []byte) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		buf = append(buf, b)
		if done {
			return
		}
	}
}

func readByteAsUint32(r io.Reader) (uint32, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r, b)
	return uint32(b[0]), err
}

func readByteAsInt32(r io.Reader) (int32, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r, b)
	return int32(b[0]), err
}

func readByteAsInt64(r io.Reader) (int64, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r, b)
	return int64(b[0]), err
}
