package schema

import (
	"encoding/xml"
	"io"
	"strconv"
)

// Parse reads an SBE XML schema document in a streaming fashion, ignoring
// unknown attributes and elements for forward compatibility.
func Parse(r io.Reader) (*Schema, error) {
	dec := xml.NewDecoder(r)

	// Find the root element.
	var root xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, InvalidStructureError{Message: err.Error()}
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = se
			break
		}
	}
	if root.Name.Local != "messageSchema" {
		return nil, InvalidStructureError{Message: "root element must be messageSchema, got " + root.Name.Local}
	}
	return parseSchema(dec, root)
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func requireAttr(start xml.StartElement, element, name string) (string, error) {
	v, ok := attr(start, name)
	if !ok {
		return "", MissingAttributeError{Element: element, Attribute: name}
	}
	return v, nil
}

func parseUint16Attr(start xml.StartElement, element, name string, def uint16, required bool) (uint16, error) {
	v, ok := attr(start, name)
	if !ok {
		if required {
			return 0, MissingAttributeError{Element: element, Attribute: name}
		}
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return 0, InvalidAttributeError{Element: element, Attribute: name, Value: v}
	}
	return uint16(n), nil
}

func parseIntAttr(start xml.StartElement, element, name string) (int, bool, error) {
	v, ok := attr(start, name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, InvalidAttributeError{Element: element, Attribute: name, Value: v}
	}
	return n, true, nil
}

func parseSchema(dec *xml.Decoder, root xml.StartElement) (*Schema, error) {
	s := newSchema()

	pkg, err := requireAttr(root, "messageSchema", "package")
	if err != nil {
		return nil, err
	}
	s.Package = pkg

	if s.SchemaID, err = parseUint16Attr(root, "messageSchema", "id", 0, true); err != nil {
		return nil, err
	}
	if s.Version, err = parseUint16Attr(root, "messageSchema", "version", 0, true); err != nil {
		return nil, err
	}
	s.SemanticVersion, _ = attr(root, "semanticVersion")
	s.HeaderType, _ = attr(root, "headerType")

	if bo, ok := attr(root, "byteOrder"); ok {
		parsed, valid := ParseByteOrder(bo)
		if !valid {
			return nil, InvalidAttributeError{Element: "messageSchema", Attribute: "byteOrder", Value: bo}
		}
		s.ByteOrder = parsed
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, InvalidStructureError{Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "types":
				if err := parseTypes(dec, s); err != nil {
					return nil, err
				}
			case "message":
				msg, err := parseMessage(dec, t, s)
				if err != nil {
					return nil, err
				}
				for _, existing := range s.Messages {
					if existing.TemplateID == msg.TemplateID {
						return nil, DuplicateDefinitionError{Kind: "message id", Name: strconv.Itoa(int(msg.TemplateID))}
					}
					if existing.Name == msg.Name {
						return nil, DuplicateDefinitionError{Kind: "message", Name: msg.Name}
					}
				}
				s.Messages = append(s.Messages, msg)
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == root.Name.Local {
				return s, nil
			}
		}
	}
	return s, nil
}

// skipElement consumes tokens until the matching EndElement for the most
// recently opened StartElement (already consumed by the caller).
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return InvalidStructureError{Message: err.Error()}
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func parseTypes(dec *xml.Decoder, s *Schema) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return InvalidStructureError{Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "type":
				typ, err := parsePrimitiveTypeDef(dec, t)
				if err != nil {
					return err
				}
				if err := s.addType(typ); err != nil {
					return err
				}
			case "composite":
				typ, err := parseComposite(dec, t)
				if err != nil {
					return err
				}
				if err := s.addType(typ); err != nil {
					return err
				}
			case "enum":
				typ, err := parseEnum(dec, t)
				if err != nil {
					return err
				}
				if err := s.addType(typ); err != nil {
					return err
				}
			case "set":
				typ, err := parseSet(dec, t)
				if err != nil {
					return err
				}
				if err := s.addType(typ); err != nil {
					return err
				}
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "types" {
				return nil
			}
		}
	}
}

func readCharData(dec *xml.Decoder, elementLocal string) (string, error) {
	var text string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", InvalidStructureError{Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.CharData:
			text += string(t)
		case xml.EndElement:
			if t.Name.Local == elementLocal {
				return text, nil
			}
		case xml.StartElement:
			// Unexpected nested element inside text content; skip it.
			if err := skipElement(dec); err != nil {
				return "", err
			}
		}
	}
}

func parsePrimitiveTypeDef(dec *xml.Decoder, start xml.StartElement) (*Type, error) {
	name, err := requireAttr(start, "type", "name")
	if err != nil {
		return nil, err
	}
	kindAttr, err := requireAttr(start, "type", "primitiveType")
	if err != nil {
		return nil, err
	}
	kind, ok := ParsePrimitiveKind(kindAttr)
	if !ok {
		return nil, InvalidAttributeError{Element: "type", Attribute: "primitiveType", Value: kindAttr}
	}
	t := &Type{Name: name, Kind: PrimitiveTypeKind, Primitive: kind, ArrayLength: 1}
	if lenAttr, ok := attr(start, "length"); ok {
		n, err := strconv.Atoi(lenAttr)
		if err != nil {
			return nil, InvalidAttributeError{Element: "type", Attribute: "length", Value: lenAttr}
		}
		t.ArrayLength = n
	}
	// <type> elements are typically self-closing/empty; consume to the
	// matching end tag, tolerating stray character data.
	if _, err := readCharData(dec, "type"); err != nil {
		return nil, err
	}
	return t, nil
}

func parseComposite(dec *xml.Decoder, start xml.StartElement) (*Type, error) {
	name, err := requireAttr(start, "composite", "name")
	if err != nil {
		return nil, err
	}
	t := &Type{Name: name, Kind: CompositeTypeKind}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, InvalidStructureError{Message: err.Error()}
		}
		switch mt := tok.(type) {
		case xml.StartElement:
			if mt.Name.Local != "type" && mt.Name.Local != "ref" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			mname, err := requireAttr(mt, mt.Name.Local, "name")
			if err != nil {
				return nil, err
			}
			var typeName string
			if mt.Name.Local == "ref" {
				typeName, err = requireAttr(mt, "ref", "type")
				if err != nil {
					return nil, err
				}
			} else if pt, ok := attr(mt, "primitiveType"); ok {
				typeName = "#inline:" + pt
			} else {
				typeName, err = requireAttr(mt, "type", "type")
				if err != nil {
					return nil, err
				}
			}
			member := CompositeMember{Name: mname, TypeName: typeName}
			if off, present, err := parseIntAttr(mt, mt.Name.Local, "offset"); err != nil {
				return nil, err
			} else if present {
				member.Offset = off
				member.HasOffset = true
			}
			t.Composite = append(t.Composite, member)
			if _, err := readCharData(dec, mt.Name.Local); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if mt.Name.Local == "composite" {
				return t, nil
			}
		}
	}
}

func parseEnum(dec *xml.Decoder, start xml.StartElement) (*Type, error) {
	name, err := requireAttr(start, "enum", "name")
	if err != nil {
		return nil, err
	}
	encAttr, err := requireAttr(start, "enum", "encodingType")
	if err != nil {
		return nil, err
	}
	kind, ok := ParsePrimitiveKind(encAttr)
	if !ok {
		return nil, InvalidAttributeError{Element: "enum", Attribute: "encodingType", Value: encAttr}
	}
	t := &Type{Name: name, Kind: EnumTypeKind, Primitive: kind, ArrayLength: 1}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, InvalidStructureError{Message: err.Error()}
		}
		switch vt := tok.(type) {
		case xml.StartElement:
			if vt.Name.Local != "validValue" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			vname, err := requireAttr(vt, "validValue", "name")
			if err != nil {
				return nil, err
			}
			text, err := readCharData(dec, "validValue")
			if err != nil {
				return nil, err
			}
			n, perr := strconv.ParseInt(text, 10, 64)
			if perr != nil {
				return nil, InvalidAttributeError{Element: "validValue", Attribute: "value", Value: text}
			}
			for _, existing := range t.ValidValues {
				if existing.Name == vname {
					return nil, DuplicateDefinitionError{Kind: "enum value name", Name: name + "." + vname}
				}
				if existing.Value == n {
					return nil, InvalidEnumValueError{EnumName: name, Detail: "duplicate numeric value " + text}
				}
			}
			t.ValidValues = append(t.ValidValues, EnumValidValue{Name: vname, Value: n})
		case xml.EndElement:
			if vt.Name.Local == "enum" {
				return t, nil
			}
		}
	}
}

func parseSet(dec *xml.Decoder, start xml.StartElement) (*Type, error) {
	name, err := requireAttr(start, "set", "name")
	if err != nil {
		return nil, err
	}
	encAttr, err := requireAttr(start, "set", "encodingType")
	if err != nil {
		return nil, err
	}
	kind, ok := ParsePrimitiveKind(encAttr)
	if !ok {
		return nil, InvalidAttributeError{Element: "set", Attribute: "encodingType", Value: encAttr}
	}
	t := &Type{Name: name, Kind: SetTypeKind, Primitive: kind, ArrayLength: 1}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, InvalidStructureError{Message: err.Error()}
		}
		switch ct := tok.(type) {
		case xml.StartElement:
			if ct.Name.Local != "choice" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			cname, err := requireAttr(ct, "choice", "name")
			if err != nil {
				return nil, err
			}
			text, err := readCharData(dec, "choice")
			if err != nil {
				return nil, err
			}
			pos, perr := strconv.Atoi(text)
			if perr != nil {
				return nil, InvalidAttributeError{Element: "choice", Attribute: "value", Value: text}
			}
			t.Choices = append(t.Choices, SetChoice{Name: cname, BitPosition: pos})
		case xml.EndElement:
			if ct.Name.Local == "set" {
				return t, nil
			}
		}
	}
}

func parseMessage(dec *xml.Decoder, start xml.StartElement, s *Schema) (*Message, error) {
	name, err := requireAttr(start, "message", "name")
	if err != nil {
		return nil, err
	}
	templateID, err := parseUint16Attr(start, "message", "id", 0, true)
	if err != nil {
		return nil, err
	}
	m := &Message{Name: name, TemplateID: templateID, SchemaID: s.SchemaID, Version: s.Version}
	if bl, present, err := parseIntAttr(start, "message", "blockLength"); err != nil {
		return nil, err
	} else if present {
		m.BlockLength = bl
		m.HasBlockLength = true
	}
	if sv, err := parseUint16Attr(start, "message", "sinceVersion", 0, false); err != nil {
		return nil, err
	} else {
		m.SinceVersion = sv
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, InvalidStructureError{Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "field":
				f, err := parseField(dec, t)
				if err != nil {
					return nil, err
				}
				m.Fields = append(m.Fields, f)
			case "group":
				g, err := parseGroup(dec, t)
				if err != nil {
					return nil, err
				}
				m.Groups = append(m.Groups, g)
			case "data":
				d, err := parseData(dec, t)
				if err != nil {
					return nil, err
				}
				m.Data = append(m.Data, d)
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "message" {
				return m, nil
			}
		}
	}
}

func parseField(dec *xml.Decoder, start xml.StartElement) (*Field, error) {
	name, err := requireAttr(start, "field", "name")
	if err != nil {
		return nil, err
	}
	id, err := parseUint16Attr(start, "field", "id", 0, true)
	if err != nil {
		return nil, err
	}
	typeName, err := requireAttr(start, "field", "type")
	if err != nil {
		return nil, err
	}
	f := &Field{Name: name, ID: id, TypeName: typeName, SemanticType: mustAttr(start, "semanticType")}
	if off, present, err := parseIntAttr(start, "field", "offset"); err != nil {
		return nil, err
	} else if present {
		f.Offset = off
		f.HasOffset = true
	}
	if p, ok := attr(start, "presence"); ok {
		presence, valid := ParsePresence(p)
		if !valid {
			return nil, InvalidAttributeError{Element: "field", Attribute: "presence", Value: p}
		}
		f.Presence = presence
	}
	if sv, err := parseUint16Attr(start, "field", "sinceVersion", 0, false); err != nil {
		return nil, err
	} else {
		f.SinceVersion = sv
	}
	if _, err := readCharData(dec, "field"); err != nil {
		return nil, err
	}
	return f, nil
}

func mustAttr(start xml.StartElement, name string) string {
	v, _ := attr(start, name)
	return v
}

func parseData(dec *xml.Decoder, start xml.StartElement) (*DataField, error) {
	name, err := requireAttr(start, "data", "name")
	if err != nil {
		return nil, err
	}
	id, err := parseUint16Attr(start, "data", "id", 0, true)
	if err != nil {
		return nil, err
	}
	typeName, err := requireAttr(start, "data", "type")
	if err != nil {
		return nil, err
	}
	d := &DataField{Name: name, ID: id, TypeName: typeName}
	if sv, err := parseUint16Attr(start, "data", "sinceVersion", 0, false); err != nil {
		return nil, err
	} else {
		d.SinceVersion = sv
	}
	if _, err := readCharData(dec, "data"); err != nil {
		return nil, err
	}
	return d, nil
}

func parseGroup(dec *xml.Decoder, start xml.StartElement) (*Group, error) {
	name, err := requireAttr(start, "group", "name")
	if err != nil {
		return nil, err
	}
	id, err := parseUint16Attr(start, "group", "id", 0, true)
	if err != nil {
		return nil, err
	}
	g := &Group{Name: name, ID: id}
	if bl, present, err := parseIntAttr(start, "group", "blockLength"); err != nil {
		return nil, err
	} else if present {
		g.BlockLength = bl
		g.HasBlockLength = true
	}
	if sv, err := parseUint16Attr(start, "group", "sinceVersion", 0, false); err != nil {
		return nil, err
	} else {
		g.SinceVersion = sv
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, InvalidStructureError{Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "field":
				f, err := parseField(dec, t)
				if err != nil {
					return nil, err
				}
				g.Fields = append(g.Fields, f)
			case "group":
				nested, err := parseGroup(dec, t)
				if err != nil {
					return nil, err
				}
				g.Groups = append(g.Groups, nested)
			case "data":
				d, err := parseData(dec, t)
				if err != nil {
					return nil, err
				}
				g.Data = append(g.Data, d)
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "group" {
				return g, nil
			}
		}
	}
}
