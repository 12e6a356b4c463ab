package schema

import "fmt"

// Validate enforces the schema's structural invariants. Type-name,
// message-id, and message-name uniqueness, and enum valid-value
// uniqueness, are already enforced incrementally by the parser (via
// DuplicateDefinitionError) — Validate covers what can only be checked
// once the whole schema is in hand: type references resolving, composite
// member layout, set bit-position range/uniqueness, field ordering within
// a block, and acyclic type dependencies.
func Validate(s *Schema) error {
	if err := validateAcyclic(s); err != nil {
		return err
	}
	for _, t := range s.Types {
		switch t.Kind {
		case CompositeTypeKind:
			if err := validateComposite(s, t); err != nil {
				return err
			}
		case SetTypeKind:
			if err := validateSet(t); err != nil {
				return err
			}
		}
	}
	for _, m := range s.Messages {
		if err := validateFieldList(s, fmt.Sprintf("message %s", m.Name), m.Fields, m.BlockLength, m.HasBlockLength); err != nil {
			return err
		}
		if err := validateGroups(s, m.Name, m.Groups); err != nil {
			return err
		}
		if err := validateDataList(s, m.Name, m.Data); err != nil {
			return err
		}
	}
	return nil
}

func validateGroups(s *Schema, context string, groups []*Group) error {
	for _, g := range groups {
		ctx := fmt.Sprintf("%s/%s", context, g.Name)
		if err := validateFieldList(s, ctx, g.Fields, g.BlockLength, g.HasBlockLength); err != nil {
			return err
		}
		if err := validateGroups(s, ctx, g.Groups); err != nil {
			return err
		}
		if err := validateDataList(s, ctx, g.Data); err != nil {
			return err
		}
	}
	return nil
}

func validateDataList(s *Schema, context string, data []*DataField) error {
	for _, d := range data {
		if _, ok := s.TypeByName[d.TypeName]; !ok {
			return TypeNotFoundError{TypeName: d.TypeName}
		}
		_ = context
	}
	return nil
}

// validateFieldList checks invariant 2: within a block, fields are ordered
// by non-decreasing offset, and each field's offset+encoded_length does
// not exceed the block length (when one is declared).
func validateFieldList(s *Schema, context string, fields []*Field, blockLength int, hasBlockLength bool) error {
	prevOffset := -1
	running := 0
	for _, f := range fields {
		if _, ok := s.TypeByName[f.TypeName]; !ok {
			return TypeNotFoundError{TypeName: f.TypeName}
		}
		length, err := resolveTypeLength(s, f.TypeName)
		if err != nil {
			return err
		}
		offset := running
		if f.HasOffset {
			offset = f.Offset
			if offset < prevOffset {
				return InvalidOffsetError{Context: context + "/" + f.Name, Offset: offset, Length: length, Bound: prevOffset}
			}
		}
		if hasBlockLength && offset+length > blockLength {
			return InvalidOffsetError{Context: context + "/" + f.Name, Offset: offset, Length: length, Bound: blockLength}
		}
		prevOffset = offset
		running = offset + length
	}
	if hasBlockLength && running > blockLength {
		return BlockLengthMismatchError{Context: context, Declared: blockLength, Computed: running}
	}
	return nil
}

// validateComposite checks invariant 5: composite sub-field offsets are
// ordered and non-overlapping, and every member's type reference resolves.
func validateComposite(s *Schema, t *Type) error {
	prevEnd := 0
	running := 0
	for _, m := range t.Composite {
		length, err := resolveTypeLength(s, m.TypeName)
		if err != nil {
			return err
		}
		offset := running
		if m.HasOffset {
			offset = m.Offset
			if offset < prevEnd {
				return InvalidOffsetError{Context: "composite " + t.Name + "/" + m.Name, Offset: offset, Length: length, Bound: prevEnd}
			}
		}
		prevEnd = offset + length
		running = prevEnd
	}
	return nil
}

// validateSet checks invariant 4: bit positions lie in
// [0, 8*encoding_size) and are unique.
func validateSet(t *Type) error {
	maxBit := 8 * t.Primitive.EncodedLength()
	seen := make(map[int]bool, len(t.Choices))
	seenName := make(map[string]bool, len(t.Choices))
	for _, c := range t.Choices {
		if c.BitPosition < 0 || c.BitPosition >= maxBit {
			return InvalidEnumValueError{EnumName: t.Name, Detail: fmt.Sprintf("choice %q bit position %d out of range [0,%d)", c.Name, c.BitPosition, maxBit)}
		}
		if seen[c.BitPosition] {
			return InvalidEnumValueError{EnumName: t.Name, Detail: fmt.Sprintf("duplicate bit position %d", c.BitPosition)}
		}
		if seenName[c.Name] {
			return DuplicateDefinitionError{Kind: "set choice", Name: t.Name + "." + c.Name}
		}
		seen[c.BitPosition] = true
		seenName[c.Name] = true
	}
	return nil
}

// validateAcyclic walks the composite-member dependency graph via
// path-tracking DFS and rejects any cycle (a composite referencing
// itself, directly or transitively, through its members).
func validateAcyclic(s *Schema) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(s.Types))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		if state[name] == done {
			return nil
		}
		if state[name] == visiting {
			return CircularReferenceError{Path: append(append([]string{}, path...), name)}
		}
		t, ok := s.TypeByName[name]
		if !ok || t.Kind != CompositeTypeKind {
			state[name] = done
			return nil
		}
		state[name] = visiting
		path = append(path, name)
		for _, m := range t.Composite {
			if err := visit(m.TypeName); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, t := range s.Types {
		if t.Kind == CompositeTypeKind {
			if err := visit(t.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
