package schema

import (
	"strings"
	"unicode"
)

// SnakeCase converts an identifier to snake_case by inserting '_' before
// every uppercase letter that is not at position 0, then lowercasing the
// whole string. It is used for the operation-name-facing half of a
// resolved field's identifier.
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// PascalCase converts an identifier to PascalCase: the first character and
// every character following '_' or '-' are capitalized, those separators
// are dropped, and the case of every other character is preserved.
func PascalCase(s string) string {
	var b strings.Builder
	capitalizeNext := true
	for _, r := range s {
		if r == '_' || r == '-' {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			b.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FieldKind discriminates how a resolved field should be accessed.
type FieldKind int

const (
	PrimitiveField FieldKind = iota
	EnumField
	SetField
	CompositeField
)

// ResolvedField is a message or group field plus everything the codegen
// template needs: its resolved offset, encoded length, Go-facing name, and
// the underlying Type it refers to.
type ResolvedField struct {
	Source        *Field
	GoName        string
	SnakeName     string
	Kind          FieldKind
	Type          *Type
	Offset        int
	EncodedLength int
	SinceVersion  uint16
}

// ResolvedDataField is a <data> field plus its resolved var-data header
// width (1, 2, or 4 bytes, matching the declared VarDataHeader composite).
type ResolvedDataField struct {
	Source       *DataField
	GoName       string
	SnakeName    string
	HeaderWidth  int
	SinceVersion uint16
}

// ResolvedGroup is a <group> plus its resolved block length and nested
// fields/groups/data, recursively resolved the same way as a message.
type ResolvedGroup struct {
	Source      *Group
	GoName      string
	BlockLength int
	Fields      []*ResolvedField
	Groups      []*ResolvedGroup
	Data        []*ResolvedDataField
}

// ResolvedMessage is the fully resolved, flattened view of one <message>
// that the codegen package's templates consume directly.
type ResolvedMessage struct {
	Source      *Message
	GoName      string
	BlockLength int
	Fields      []*ResolvedField
	Groups      []*ResolvedGroup
	Data        []*ResolvedDataField
}

// Resolve turns every message in a validated schema into its IR form. The
// caller should run Validate first — Resolve re-derives offsets and
// lengths but does not repeat invariant checks.
func Resolve(s *Schema) ([]*ResolvedMessage, error) {
	out := make([]*ResolvedMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		rm, err := resolveMessage(s, m)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, nil
}

func resolveMessage(s *Schema, m *Message) (*ResolvedMessage, error) {
	fields, computed, err := resolveFieldList(s, m.Fields)
	if err != nil {
		return nil, err
	}
	groups, err := resolveGroups(s, m.Groups)
	if err != nil {
		return nil, err
	}
	data, err := resolveDataList(s, m.Data)
	if err != nil {
		return nil, err
	}
	blockLength := computed
	if m.HasBlockLength {
		blockLength = m.BlockLength
	}
	return &ResolvedMessage{
		Source:      m,
		GoName:      PascalCase(m.Name),
		BlockLength: blockLength,
		Fields:      fields,
		Groups:      groups,
		Data:        data,
	}, nil
}

func resolveGroups(s *Schema, groups []*Group) ([]*ResolvedGroup, error) {
	out := make([]*ResolvedGroup, 0, len(groups))
	for _, g := range groups {
		fields, computed, err := resolveFieldList(s, g.Fields)
		if err != nil {
			return nil, err
		}
		nested, err := resolveGroups(s, g.Groups)
		if err != nil {
			return nil, err
		}
		data, err := resolveDataList(s, g.Data)
		if err != nil {
			return nil, err
		}
		blockLength := computed
		if g.HasBlockLength {
			blockLength = g.BlockLength
		}
		out = append(out, &ResolvedGroup{
			Source:      g,
			GoName:      PascalCase(g.Name),
			BlockLength: blockLength,
			Fields:      fields,
			Groups:      nested,
			Data:        data,
		})
	}
	return out, nil
}

// resolveFieldList resolves a flat list of fields, assigning each a
// concrete offset — the schema's declared offset if present, otherwise
// the running sum of preceding encoded lengths — and returns the computed
// total block size (the offset one past the last field).
func resolveFieldList(s *Schema, fields []*Field) ([]*ResolvedField, int, error) {
	out := make([]*ResolvedField, 0, len(fields))
	running := 0
	for _, f := range fields {
		t, ok := s.TypeByName[f.TypeName]
		if !ok {
			return nil, 0, TypeNotFoundError{TypeName: f.TypeName}
		}
		length, err := resolveTypeLength(s, f.TypeName)
		if err != nil {
			return nil, 0, err
		}
		offset := running
		if f.HasOffset {
			offset = f.Offset
		}
		var kind FieldKind
		switch t.Kind {
		case EnumTypeKind:
			kind = EnumField
		case SetTypeKind:
			kind = SetField
		case CompositeTypeKind:
			kind = CompositeField
		default:
			kind = PrimitiveField
		}
		out = append(out, &ResolvedField{
			Source:        f,
			GoName:        PascalCase(f.Name),
			SnakeName:     SnakeCase(f.Name),
			Kind:          kind,
			Type:          t,
			Offset:        offset,
			EncodedLength: length,
			SinceVersion:  f.SinceVersion,
		})
		running = offset + length
	}
	return out, running, nil
}

func resolveDataList(s *Schema, data []*DataField) ([]*ResolvedDataField, error) {
	out := make([]*ResolvedDataField, 0, len(data))
	for _, d := range data {
		width, err := resolveVarDataWidth(s, d.TypeName)
		if err != nil {
			return nil, err
		}
		out = append(out, &ResolvedDataField{
			Source:       d,
			GoName:       PascalCase(d.Name),
			SnakeName:    SnakeCase(d.Name),
			HeaderWidth:  width,
			SinceVersion: d.SinceVersion,
		})
	}
	return out, nil
}

// resolveTypeLength returns the on-wire size in bytes of a named type,
// recursing through composite members.
func resolveTypeLength(s *Schema, name string) (int, error) {
	if strings.HasPrefix(name, "#inline:") {
		pk, ok := ParsePrimitiveKind(strings.TrimPrefix(name, "#inline:"))
		if !ok {
			return 0, TypeNotFoundError{TypeName: name}
		}
		return pk.EncodedLength(), nil
	}
	t, ok := s.TypeByName[name]
	if !ok {
		return 0, TypeNotFoundError{TypeName: name}
	}
	if t.Kind != CompositeTypeKind {
		return t.EncodedLength(), nil
	}
	total := 0
	for _, m := range t.Composite {
		l, err := resolveTypeLength(s, m.TypeName)
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

// resolveVarDataWidth inspects a var-data composite's "length" member to
// determine its var-data header width (1, 2, or 4 bytes). Schemas that
// don't follow the conventional varDataEncoding shape default to 2 bytes,
// the most common width in practice.
func resolveVarDataWidth(s *Schema, typeName string) (int, error) {
	t, ok := s.TypeByName[typeName]
	if !ok {
		return 0, TypeNotFoundError{TypeName: typeName}
	}
	if t.Kind != CompositeTypeKind {
		return 2, nil
	}
	for _, m := range t.Composite {
		if strings.EqualFold(m.Name, "length") {
			l, err := resolveTypeLength(s, m.TypeName)
			if err != nil {
				return 0, err
			}
			switch l {
			case 1, 2, 4:
				return l, nil
			}
		}
	}
	return 2, nil
}
