package schema

import "testing"

func TestValidateSampleSchema(t *testing.T) {
	s := loadTestSchema(t)
	if err := Validate(s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func buildSchemaWithType(t *testing.T, typ *Type) *Schema {
	t.Helper()
	s := newSchema()
	if err := s.addType(typ); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestValidateSetBitPositionOutOfRange(t *testing.T) {
	s := buildSchemaWithType(t, &Type{
		Name:      "Flags",
		Kind:      SetTypeKind,
		Primitive: UInt8,
		Choices:   []SetChoice{{Name: "A", BitPosition: 9}},
	})
	err := Validate(s)
	if _, ok := err.(InvalidEnumValueError); !ok {
		t.Fatalf("got %v, want InvalidEnumValueError", err)
	}
}

func TestValidateSetDuplicateBitPosition(t *testing.T) {
	s := buildSchemaWithType(t, &Type{
		Name:      "Flags",
		Kind:      SetTypeKind,
		Primitive: UInt8,
		Choices: []SetChoice{
			{Name: "A", BitPosition: 0},
			{Name: "B", BitPosition: 0},
		},
	})
	err := Validate(s)
	if _, ok := err.(InvalidEnumValueError); !ok {
		t.Fatalf("got %v, want InvalidEnumValueError", err)
	}
}

func TestValidateCompositeOverlappingOffsets(t *testing.T) {
	s := newSchema()
	s.addType(&Type{Name: "Leg", Kind: PrimitiveTypeKind, Primitive: UInt32})
	composite := &Type{
		Name: "Bad",
		Kind: CompositeTypeKind,
		Composite: []CompositeMember{
			{Name: "a", TypeName: "Leg", Offset: 0, HasOffset: true},
			{Name: "b", TypeName: "Leg", Offset: 2, HasOffset: true}, // overlaps a (needs offset 4)
		},
	}
	s.addType(composite)
	err := Validate(s)
	if _, ok := err.(InvalidOffsetError); !ok {
		t.Fatalf("got %v, want InvalidOffsetError", err)
	}
}

func TestValidateCircularComposite(t *testing.T) {
	s := newSchema()
	s.addType(&Type{
		Name: "A",
		Kind: CompositeTypeKind,
		Composite: []CompositeMember{
			{Name: "b", TypeName: "B"},
		},
	})
	s.addType(&Type{
		Name: "B",
		Kind: CompositeTypeKind,
		Composite: []CompositeMember{
			{Name: "a", TypeName: "A"},
		},
	})
	err := Validate(s)
	if _, ok := err.(CircularReferenceError); !ok {
		t.Fatalf("got %v, want CircularReferenceError", err)
	}
}

func TestValidateUnresolvedFieldType(t *testing.T) {
	s := newSchema()
	s.Messages = []*Message{{
		Name:           "M",
		TemplateID:     1,
		HasBlockLength: true,
		BlockLength:    4,
		Fields: []*Field{
			{Name: "x", ID: 1, TypeName: "Missing"},
		},
	}}
	err := Validate(s)
	if _, ok := err.(TypeNotFoundError); !ok {
		t.Fatalf("got %v, want TypeNotFoundError", err)
	}
}

func TestValidateBlockLengthMismatch(t *testing.T) {
	s := newSchema()
	s.addType(&Type{Name: "U32", Kind: PrimitiveTypeKind, Primitive: UInt32})
	s.Messages = []*Message{{
		Name:           "M",
		TemplateID:     1,
		HasBlockLength: true,
		BlockLength:    2,
		Fields: []*Field{
			{Name: "x", ID: 1, TypeName: "U32"},
		},
	}}
	err := Validate(s)
	if _, ok := err.(InvalidOffsetError); !ok {
		t.Fatalf("got %v, want InvalidOffsetError", err)
	}
}
