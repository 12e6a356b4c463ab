// Package wire implements the three fixed binary layouts every generated
// SBE message is built from: MessageHeader, GroupHeader, and VarDataHeader.
// These are hand-written, not generated — they never change shape
// regardless of schema — while per-message field accessors are produced
// by package codegen.
package wire

import "fmt"

// HeaderLen is the fixed, little-endian-encoded size of a MessageHeader.
const HeaderLen = 8

// GroupHeaderLen is the fixed size of a GroupHeader.
const GroupHeaderLen = 4

// MessageHeader precedes every SBE message. Fields are laid out in
// declaration order with no padding: blockLength, templateId, schemaId,
// version, each a little-endian uint16.
type MessageHeader struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// Reader is the minimal buffer surface header decoding needs, satisfied by
// *buffer.Buffer without creating an import cycle back to package buffer.
type Reader interface {
	Len() int
	GetUint8(offset int) (uint8, error)
	GetUint16(offset int) (uint16, error)
}

// Writer is the minimal buffer surface header encoding needs.
type Writer interface {
	Reader
	PutUint16(offset int, v uint16) error
}

// DecodeMessageHeader reads a MessageHeader at offset 0 of buf. It does not
// perform the full decode gate (template/schema validation, block-length
// bounds) — that is ValidateHeader's job. This function only requires
// that HeaderLen bytes be present.
func DecodeMessageHeader(buf Reader) (MessageHeader, error) {
	var h MessageHeader
	if buf.Len() < HeaderLen {
		return h, BufferTooShortError{Required: HeaderLen, Available: buf.Len()}
	}
	blockLength, _ := buf.GetUint16(0)
	templateID, _ := buf.GetUint16(2)
	schemaID, _ := buf.GetUint16(4)
	version, _ := buf.GetUint16(6)
	h = MessageHeader{BlockLength: blockLength, TemplateID: templateID, SchemaID: schemaID, Version: version}
	return h, nil
}

// EncodeMessageHeader writes h at offset 0 of buf.
func EncodeMessageHeader(buf Writer, h MessageHeader) error {
	if buf.Len() < HeaderLen {
		return BufferTooShortError{Required: HeaderLen, Available: buf.Len()}
	}
	if err := buf.PutUint16(0, h.BlockLength); err != nil {
		return err
	}
	if err := buf.PutUint16(2, h.TemplateID); err != nil {
		return err
	}
	if err := buf.PutUint16(4, h.SchemaID); err != nil {
		return err
	}
	return buf.PutUint16(6, h.Version)
}

// ValidateHeader implements the decoder gate: length check, template/schema
// match, and block-length bounds. It returns the decoded header; the
// message body always begins at HeaderLen.
func ValidateHeader(buf Reader, expectedTemplateID, expectedSchemaID uint16) (MessageHeader, error) {
	if buf.Len() < HeaderLen {
		return MessageHeader{}, BufferTooShortError{Required: HeaderLen, Available: buf.Len()}
	}
	h, err := DecodeMessageHeader(buf)
	if err != nil {
		return h, err
	}
	if h.TemplateID != expectedTemplateID {
		return h, TemplateMismatchError{Expected: expectedTemplateID, Actual: h.TemplateID}
	}
	if h.SchemaID != expectedSchemaID {
		return h, SchemaMismatchError{Expected: expectedSchemaID, Actual: h.SchemaID}
	}
	required := HeaderLen + int(h.BlockLength)
	if buf.Len() < required {
		return h, BufferTooShortError{Required: required, Available: buf.Len()}
	}
	return h, nil
}

// GroupHeader precedes each repeating group instance: blockLength,
// numInGroup, each a little-endian uint16.
type GroupHeader struct {
	BlockLength uint16
	NumInGroup  uint16
}

func DecodeGroupHeader(buf Reader, offset int) (GroupHeader, error) {
	if buf.Len() < offset+GroupHeaderLen {
		return GroupHeader{}, BufferTooShortError{Required: offset + GroupHeaderLen, Available: buf.Len()}
	}
	blockLength, _ := buf.GetUint16(offset)
	numInGroup, _ := buf.GetUint16(offset + 2)
	return GroupHeader{BlockLength: blockLength, NumInGroup: numInGroup}, nil
}

func EncodeGroupHeader(buf Writer, offset int, h GroupHeader) error {
	if err := buf.PutUint16(offset, h.BlockLength); err != nil {
		return err
	}
	return buf.PutUint16(offset+2, h.NumInGroup)
}

// VarDataHeaderWidth is the width, in bytes, of a VarDataHeader's length
// field. SBE schemas declare this per var-data field (1, 2, or 4 bytes).
type VarDataHeaderWidth int

const (
	VarDataWidth1 VarDataHeaderWidth = 1
	VarDataWidth2 VarDataHeaderWidth = 2
	VarDataWidth4 VarDataHeaderWidth = 4
)

// DecodeVarDataLength reads the length prefix of a VarDataHeader at offset,
// according to width, and returns the length plus the offset of the data
// that follows.
func DecodeVarDataLength(buf Reader, offset int, width VarDataHeaderWidth) (length, dataOffset int, err error) {
	switch width {
	case VarDataWidth1:
		if buf.Len() < offset+1 {
			return 0, 0, BufferTooShortError{Required: offset + 1, Available: buf.Len()}
		}
		v, _ := buf.GetUint8(offset)
		return int(v), offset + 1, nil
	case VarDataWidth2:
		if buf.Len() < offset+2 {
			return 0, 0, BufferTooShortError{Required: offset + 2, Available: buf.Len()}
		}
		v, _ := buf.GetUint16(offset)
		return int(v), offset + 2, nil
	case VarDataWidth4:
		if buf.Len() < offset+4 {
			return 0, 0, BufferTooShortError{Required: offset + 4, Available: buf.Len()}
		}
		// GetUint16 is the only primitive in Reader; a 4-byte width reads two
		// uint16 halves and recombines them little-endian.
		lo, _ := buf.GetUint16(offset)
		hi, _ := buf.GetUint16(offset + 2)
		return int(uint32(lo) | uint32(hi)<<16), offset + 4, nil
	default:
		return 0, 0, fmt.Errorf("wire: unsupported var-data header width %d", width)
	}
}
