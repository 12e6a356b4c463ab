// Package buffer implements the zero-copy primitive accessors that every
// generated SBE decoder/encoder is built on.
//
// Design Decisions:
//
// 1. No reflection, no allocation on the hot path: every reader/writer is a
//    direct slice index plus a manual little-endian decode/encode, the same
//    shape as encoding/binary.LittleEndian but inlined against a borrowed
//    []byte rather than a Buffer interface, so the compiler can devirtualize
//    the common case.
//
// 2. Read vs ReadWrite is a capability split, not a type hierarchy: a
//    Reader only needs get; an encoder needs get and put. Keeping both as
//    small interfaces lets generated code accept whichever it needs without
//    importing unsafe or doing type assertions.
package buffer

import (
	"fmt"
	"unicode/utf8"
)

// OutOfRangeError reports an access outside the buffer's bounds. Generated
// code is not expected to encounter this in correct programs — offsets are
// computed from the schema at generation time — but it is surfaced rather
// than panicking so a malformed wire message cannot crash a decoder.
type OutOfRangeError struct {
	Offset, Length, Capacity int
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("buffer: access [%d:%d] out of range for capacity %d", e.Offset, e.Offset+e.Length, e.Capacity)
}

// Reader is the read-only primitive surface used by decoders.
type Reader interface {
	Len() int
	GetUint8(offset int) (uint8, error)
	GetInt8(offset int) (int8, error)
	GetUint16(offset int) (uint16, error)
	GetInt16(offset int) (int16, error)
	GetUint32(offset int) (uint32, error)
	GetInt32(offset int) (int32, error)
	GetUint64(offset int) (uint64, error)
	GetInt64(offset int) (int64, error)
	GetFloat32(offset int) (float32, error)
	GetFloat64(offset int) (float64, error)
	GetChar(offset int) (byte, error)
	// Slice returns a borrowed sub-range; callers must not retain it past
	// the owning buffer's lifetime.
	Slice(offset, length int) ([]byte, error)
	GetString(offset, maxLen int) (string, error)
}

// Writer is the read-write primitive surface used by encoders. It embeds
// Reader because an encoder is frequently asked to read back what it just
// wrote (chainable setters that also validate).
type Writer interface {
	Reader
	PutUint8(offset int, v uint8) error
	PutInt8(offset int, v int8) error
	PutUint16(offset int, v uint16) error
	PutInt16(offset int, v int16) error
	PutUint32(offset int, v uint32) error
	PutInt32(offset int, v int32) error
	PutUint64(offset int, v uint64) error
	PutInt64(offset int, v int64) error
	PutFloat32(offset int, v float32) error
	PutFloat64(offset int, v float64) error
	PutChar(offset int, v byte) error
	PutString(offset int, value string, maxLen int) error
	Zero(offset, length int) error
}

// Buffer is a plain, unaligned implementation of Writer over a borrowed
// []byte. AlignedBuffer (aligned.go) wraps the same logic with a
// guaranteed-aligned backing array.
type Buffer struct {
	data []byte
}

// Wrap returns a Buffer over data without copying it.
func Wrap(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the full backing slice. Callers in generated code use this
// only to hand a fresh range to a nested decoder/encoder (e.g. a group
// entry); it is not part of the Reader/Writer contract.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) checkRange(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return OutOfRangeError{Offset: offset, Length: length, Capacity: len(b.data)}
	}
	return nil
}

func (b *Buffer) GetUint8(offset int) (uint8, error) {
	if err := b.checkRange(offset, 1); err != nil {
		return 0, err
	}
	return b.data[offset], nil
}

func (b *Buffer) GetInt8(offset int) (int8, error) {
	v, err := b.GetUint8(offset)
	return int8(v), err
}

func (b *Buffer) GetUint16(offset int) (uint16, error) {
	if err := b.checkRange(offset, 2); err != nil {
		return 0, err
	}
	return uint16(b.data[offset]) | uint16(b.data[offset+1])<<8, nil
}

func (b *Buffer) GetInt16(offset int) (int16, error) {
	v, err := b.GetUint16(offset)
	return int16(v), err
}

func (b *Buffer) GetUint32(offset int) (uint32, error) {
	if err := b.checkRange(offset, 4); err != nil {
		return 0, err
	}
	d := b.data[offset : offset+4]
	return uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16 | uint32(d[3])<<24, nil
}

func (b *Buffer) GetInt32(offset int) (int32, error) {
	v, err := b.GetUint32(offset)
	return int32(v), err
}

func (b *Buffer) GetUint64(offset int) (uint64, error) {
	if err := b.checkRange(offset, 8); err != nil {
		return 0, err
	}
	d := b.data[offset : offset+8]
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(d[i])
	}
	return v, nil
}

func (b *Buffer) GetInt64(offset int) (int64, error) {
	v, err := b.GetUint64(offset)
	return int64(v), err
}

func (b *Buffer) GetFloat32(offset int) (float32, error) {
	v, err := b.GetUint32(offset)
	if err != nil {
		return 0, err
	}
	return uint32ToFloat32(v), nil
}

func (b *Buffer) GetFloat64(offset int) (float64, error) {
	v, err := b.GetUint64(offset)
	if err != nil {
		return 0, err
	}
	return uint64ToFloat64(v), nil
}

func (b *Buffer) GetChar(offset int) (byte, error) {
	return b.GetUint8(offset)
}

func (b *Buffer) Slice(offset, length int) ([]byte, error) {
	if err := b.checkRange(offset, length); err != nil {
		return nil, err
	}
	return b.data[offset : offset+length : offset+length], nil
}

// GetString returns the longest valid UTF-8 prefix of bytes[offset:offset+maxLen],
// truncated at the first zero byte. An invalid-UTF-8 prefix yields ""
// rather than an error.
func (b *Buffer) GetString(offset, maxLen int) (string, error) {
	raw, err := b.Slice(offset, maxLen)
	if err != nil {
		return "", err
	}
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	trimmed := raw[:n]
	if !validUTF8(trimmed) {
		return "", nil
	}
	return string(trimmed), nil
}

func (b *Buffer) PutUint8(offset int, v uint8) error {
	if err := b.checkRange(offset, 1); err != nil {
		return err
	}
	b.data[offset] = v
	return nil
}

func (b *Buffer) PutInt8(offset int, v int8) error { return b.PutUint8(offset, uint8(v)) }

func (b *Buffer) PutUint16(offset int, v uint16) error {
	if err := b.checkRange(offset, 2); err != nil {
		return err
	}
	b.data[offset] = byte(v)
	b.data[offset+1] = byte(v >> 8)
	return nil
}

func (b *Buffer) PutInt16(offset int, v int16) error { return b.PutUint16(offset, uint16(v)) }

func (b *Buffer) PutUint32(offset int, v uint32) error {
	if err := b.checkRange(offset, 4); err != nil {
		return err
	}
	d := b.data[offset : offset+4]
	d[0] = byte(v)
	d[1] = byte(v >> 8)
	d[2] = byte(v >> 16)
	d[3] = byte(v >> 24)
	return nil
}

func (b *Buffer) PutInt32(offset int, v int32) error { return b.PutUint32(offset, uint32(v)) }

func (b *Buffer) PutUint64(offset int, v uint64) error {
	if err := b.checkRange(offset, 8); err != nil {
		return err
	}
	d := b.data[offset : offset+8]
	for i := 0; i < 8; i++ {
		d[i] = byte(v >> (8 * uint(i)))
	}
	return nil
}

func (b *Buffer) PutInt64(offset int, v int64) error { return b.PutUint64(offset, uint64(v)) }

func (b *Buffer) PutFloat32(offset int, v float32) error {
	return b.PutUint32(offset, float32ToUint32(v))
}

func (b *Buffer) PutFloat64(offset int, v float64) error {
	return b.PutUint64(offset, float64ToUint64(v))
}

func (b *Buffer) PutChar(offset int, v byte) error { return b.PutUint8(offset, v) }

// PutString writes min(len(value), maxLen) bytes and zero-fills the rest.
func (b *Buffer) PutString(offset int, value string, maxLen int) error {
	if err := b.checkRange(offset, maxLen); err != nil {
		return err
	}
	n := len(value)
	if n > maxLen {
		n = maxLen
	}
	copy(b.data[offset:offset+n], value[:n])
	for i := offset + n; i < offset+maxLen; i++ {
		b.data[i] = 0
	}
	return nil
}

func (b *Buffer) Zero(offset, length int) error {
	if err := b.checkRange(offset, length); err != nil {
		return err
	}
	d := b.data[offset : offset+length]
	for i := range d {
		d[i] = 0
	}
	return nil
}

func validUTF8(b []byte) bool {
	return utf8.Valid(b)
}
