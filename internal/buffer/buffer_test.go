package buffer

import (
	"math"
	"testing"
)

func TestEndianness(t *testing.T) {
	b := Wrap(make([]byte, 16))

	if err := b.PutUint32(0, 0x04030201); err != nil {
		t.Fatalf("PutUint32: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	got, _ := b.Slice(0, 4)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: got %#x, want %#x", i, got[i], want[i])
		}
	}

	v, err := b.GetUint32(0)
	if err != nil || v != 0x04030201 {
		t.Errorf("GetUint32 round-trip: got (%d, %v), want 0x04030201", v, err)
	}
}

func TestRoundTripAllPrimitives(t *testing.T) {
	b := Wrap(make([]byte, 64))

	if err := b.PutInt8(0, -5); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.GetInt8(0); v != -5 {
		t.Errorf("int8 round-trip: got %d", v)
	}

	if err := b.PutUint64(8, 0xDEADBEEFCAFEBABE); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.GetUint64(8); v != 0xDEADBEEFCAFEBABE {
		t.Errorf("uint64 round-trip: got %#x", v)
	}

	if err := b.PutFloat64(16, math.Pi); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.GetFloat64(16); v != math.Pi {
		t.Errorf("float64 round-trip: got %v", v)
	}
}

func TestOutOfRange(t *testing.T) {
	b := Wrap(make([]byte, 4))
	if _, err := b.GetUint64(0); err == nil {
		t.Fatal("expected OutOfRangeError reading 8 bytes from a 4-byte buffer")
	}
	var rangeErr OutOfRangeError
	if _, err := b.GetUint32(2); err == nil {
		t.Fatal("expected OutOfRangeError for offset 2, length 4, capacity 4")
	} else if !errorsAs(err, &rangeErr) {
		t.Fatalf("expected OutOfRangeError, got %T", err)
	}
}

func TestStringAccessors(t *testing.T) {
	b := Wrap(make([]byte, 16))
	if err := b.PutString(0, "AAPL", 8); err != nil {
		t.Fatal(err)
	}
	s, err := b.GetString(0, 8)
	if err != nil || s != "AAPL" {
		t.Errorf("GetString: got (%q, %v), want AAPL", s, err)
	}
	// Zero-fill beyond the written value.
	raw, _ := b.Slice(0, 8)
	for i := 4; i < 8; i++ {
		if raw[i] != 0 {
			t.Errorf("byte %d not zero-filled: %d", i, raw[i])
		}
	}
}

func TestStringTruncatesAtFirstZero(t *testing.T) {
	b := Wrap(make([]byte, 8))
	copy(b.data, []byte{'A', 'B', 0, 'C', 'D'})
	s, err := b.GetString(0, 8)
	if err != nil || s != "AB" {
		t.Errorf("GetString: got (%q, %v), want AB", s, err)
	}
}

func TestAlignedBufferAlignment(t *testing.T) {
	ab := NewAlignedBuffer(256)
	addr := sliceAddr(ab.Buffer.data)
	if addr%CacheLineSize != 0 {
		t.Errorf("aligned buffer address %#x is not %d-byte aligned", addr, CacheLineSize)
	}
}

func TestPoolAtMostOneBorrower(t *testing.T) {
	p := NewPool(2, 128)
	b1, err := p.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	b2, err := p.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Acquire(); err != ErrPoolExhausted {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}

	b1.PutUint8(0, 0xFF)
	p.Release(b1)

	b3, err := p.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := b3.GetUint8(0); v != 0 {
		t.Errorf("released buffer not zeroed on re-issue: got %d", v)
	}
	_ = b2
}

// errorsAs is a tiny local shim so this file doesn't need to import errors
// just for As in a single test.
func errorsAs(err error, target *OutOfRangeError) bool {
	e, ok := err.(OutOfRangeError)
	if ok {
		*target = e
	}
	return ok
}
