package wire

import "testing"

type mockBuf struct{ data []byte }

func newMockBuf(n int) *mockBuf { return &mockBuf{data: make([]byte, n)} }

func (m *mockBuf) Len() int { return len(m.data) }
func (m *mockBuf) GetUint8(offset int) (uint8, error) {
	if offset < 0 || offset >= len(m.data) {
		return 0, BufferTooShortError{Required: offset + 1, Available: len(m.data)}
	}
	return m.data[offset], nil
}
func (m *mockBuf) GetUint16(offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(m.data) {
		return 0, BufferTooShortError{Required: offset + 2, Available: len(m.data)}
	}
	return uint16(m.data[offset]) | uint16(m.data[offset+1])<<8, nil
}
func (m *mockBuf) PutUint16(offset int, v uint16) error {
	if offset < 0 || offset+2 > len(m.data) {
		return BufferTooShortError{Required: offset + 2, Available: len(m.data)}
	}
	m.data[offset] = byte(v)
	m.data[offset+1] = byte(v >> 8)
	return nil
}

// TestHeaderRoundTrip checks that an encoded MessageHeader decodes back
// byte-for-byte identical.
func TestHeaderRoundTrip(t *testing.T) {
	buf := newMockBuf(8)
	h := MessageHeader{BlockLength: 0x0102, TemplateID: 0x0304, SchemaID: 0x0506, Version: 0x0708}
	if err := EncodeMessageHeader(buf, h); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}
	for i, w := range want {
		if buf.data[i] != w {
			t.Errorf("byte %d: got %#x, want %#x", i, buf.data[i], w)
		}
	}

	got, err := DecodeMessageHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, h)
	}
}

// TestDecoderGate checks ValidateHeader's length and template checks.
func TestDecoderGate(t *testing.T) {
	short := newMockBuf(7)
	if _, err := ValidateHeader(short, 1, 1); err == nil {
		t.Fatal("expected BufferTooShortError for a 7-byte buffer")
	} else if bts, ok := err.(BufferTooShortError); !ok || bts.Required != 8 || bts.Available != 7 {
		t.Fatalf("expected BufferTooShortError{8,7}, got %#v", err)
	}

	buf := newMockBuf(8)
	h := MessageHeader{BlockLength: 0, TemplateID: 99, SchemaID: 1, Version: 0}
	EncodeMessageHeader(buf, h)
	if _, err := ValidateHeader(buf, 1, 1); err == nil {
		t.Fatal("expected TemplateMismatchError")
	} else if tm, ok := err.(TemplateMismatchError); !ok || tm.Expected != 1 || tm.Actual != 99 {
		t.Fatalf("expected TemplateMismatchError{1,99}, got %#v", err)
	}
}

func TestGroupHeaderRoundTrip(t *testing.T) {
	buf := newMockBuf(12)
	gh := GroupHeader{BlockLength: 16, NumInGroup: 3}
	if err := EncodeGroupHeader(buf, 4, gh); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeGroupHeader(buf, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != gh {
		t.Errorf("group header round-trip: got %+v, want %+v", got, gh)
	}
}

func TestVarDataLengthWidths(t *testing.T) {
	buf := newMockBuf(8)
	buf.data[0] = 200 // width-1 length
	n, dataOff, err := DecodeVarDataLength(buf, 0, VarDataWidth1)
	if err != nil || n != 200 || dataOff != 1 {
		t.Errorf("width1: got (%d, %d, %v), want (200, 1, nil)", n, dataOff, err)
	}

	buf2 := newMockBuf(8)
	buf2.PutUint16(0, 1000)
	n, dataOff, err = DecodeVarDataLength(buf2, 0, VarDataWidth2)
	if err != nil || n != 1000 || dataOff != 2 {
		t.Errorf("width2: got (%d, %d, %v), want (1000, 2, nil)", n, dataOff, err)
	}
}

func TestDispatcherRoutesByTemplateID(t *testing.T) {
	d := NewDispatcher(7)
	var gotVersion uint16
	var gotBody []byte
	d.Register(42, func(actingVersion uint16, body []byte) error {
		gotVersion = actingVersion
		gotBody = body
		return nil
	})

	msg := make([]byte, 10)
	mb := &mockBuf{data: msg}
	EncodeMessageHeader(mb, MessageHeader{BlockLength: 2, TemplateID: 42, SchemaID: 7, Version: 1})
	msg[8], msg[9] = 0xAB, 0xCD

	if err := d.Dispatch(msg); err != nil {
		t.Fatal(err)
	}
	if gotVersion != 1 {
		t.Errorf("actingVersion: got %d, want 1", gotVersion)
	}
	if len(gotBody) != 2 || gotBody[0] != 0xAB || gotBody[1] != 0xCD {
		t.Errorf("body: got %v, want [0xAB 0xCD]", gotBody)
	}
}
