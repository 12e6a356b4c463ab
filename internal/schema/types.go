// Package schema models an SBE schema after parsing (package types.go) and
// message definitions (messages.go), then resolves both into a flattened
// intermediate representation (ir.go) that the codegen package consumes.
//
// Parsing targets the FIX SBE 2016 XML dialect (sbe:messageSchema,
// sbe:types, sbe:message) and follows encoding/xml's streaming Decoder
// directly — no third-party XML library appears anywhere in the
// retrieved pack, so the standard library's is the only grounded choice.
package schema

import "fmt"

// PrimitiveKind is one of the SBE scalar encodings.
type PrimitiveKind int

const (
	Char PrimitiveKind = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
)

func (k PrimitiveKind) String() string {
	switch k {
	case Char:
		return "char"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("PrimitiveKind(%d)", int(k))
	}
}

// EncodedLength returns the on-wire width in bytes of a single element of
// this primitive kind.
func (k PrimitiveKind) EncodedLength() int {
	switch k {
	case Char, Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

// ParsePrimitiveKind maps an SBE schema primitiveType/encodingType string
// to a PrimitiveKind. It accepts both "float"/"double" (the names used by
// the FIX SBE dialect) and "float32"/"float64" (seen in some schemas).
func ParsePrimitiveKind(s string) (PrimitiveKind, bool) {
	switch s {
	case "char":
		return Char, true
	case "int8":
		return Int8, true
	case "int16":
		return Int16, true
	case "int32":
		return Int32, true
	case "int64":
		return Int64, true
	case "uint8":
		return UInt8, true
	case "uint16":
		return UInt16, true
	case "uint32":
		return UInt32, true
	case "uint64":
		return UInt64, true
	case "float", "float32":
		return Float32, true
	case "double", "float64":
		return Float64, true
	default:
		return 0, false
	}
}

// ByteOrder is the wire byte order declared on messageSchema.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// ParseByteOrder maps the byteOrder attribute value. Unrecognized values
// are rejected by the caller via InvalidAttributeError.
func ParseByteOrder(s string) (ByteOrder, bool) {
	switch s {
	case "littleEndian", "":
		return LittleEndian, true
	case "bigEndian":
		return BigEndian, true
	default:
		return 0, false
	}
}

// TypeKind discriminates the four shapes a <types> entry can take.
type TypeKind int

const (
	PrimitiveTypeKind TypeKind = iota
	CompositeTypeKind
	EnumTypeKind
	SetTypeKind
)

// CompositeMember is one named sub-field of a composite type, e.g. the
// mantissa/exponent pair of a decimal composite.
type CompositeMember struct {
	Name      string
	TypeName  string
	Offset    int
	HasOffset bool
}

// EnumValidValue is one <validValue> of an enum type.
type EnumValidValue struct {
	Name  string
	Value int64
}

// SetChoice is one <choice> of a set (bitset) type.
type SetChoice struct {
	Name        string
	BitPosition int
}

// Type is a single entry from the schema's <types> block.
type Type struct {
	Name        string
	Kind        TypeKind
	Primitive   PrimitiveKind // element kind for PrimitiveTypeKind; underlying encoding for Enum/Set
	ArrayLength int           // >1 for a fixed-length character/byte array; 0 or 1 otherwise
	Composite   []CompositeMember
	ValidValues []EnumValidValue
	Choices     []SetChoice
}

// EncodedLength returns the on-wire size of this type in bytes. Composite
// length is the sum of its members' encoded lengths (computed by the
// caller during resolution, since a composite member's length may itself
// be another named type); this method only handles the two leaf cases.
func (t *Type) EncodedLength() int {
	switch t.Kind {
	case PrimitiveTypeKind, EnumTypeKind, SetTypeKind:
		n := t.Primitive.EncodedLength()
		if t.ArrayLength > 1 {
			n *= t.ArrayLength
		}
		return n
	default:
		return 0
	}
}

// Schema is the fully parsed, but not yet validated or resolved, in-memory
// tree of an SBE schema document.
type Schema struct {
	Package         string
	SchemaID        uint16
	Version         uint16
	SemanticVersion string
	ByteOrder       ByteOrder
	HeaderType      string

	// Types preserves declaration order; TypeByName is a convenience index
	// built by the parser as each type is appended.
	Types      []*Type
	TypeByName map[string]*Type

	Messages []*Message
}

func newSchema() *Schema {
	return &Schema{TypeByName: make(map[string]*Type)}
}

func (s *Schema) addType(t *Type) error {
	if _, exists := s.TypeByName[t.Name]; exists {
		return DuplicateDefinitionError{Kind: "type", Name: t.Name}
	}
	s.TypeByName[t.Name] = t
	s.Types = append(s.Types, t)
	return nil
}
