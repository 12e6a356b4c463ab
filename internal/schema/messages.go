package schema

// Presence is a field's declared presence attribute.
type Presence int

const (
	Required Presence = iota
	Optional
	Constant
)

// ParsePresence maps the presence attribute value, defaulting to Required
// per the SBE dialect when the attribute is absent.
func ParsePresence(s string) (Presence, bool) {
	switch s {
	case "required", "":
		return Required, true
	case "optional":
		return Optional, true
	case "constant":
		return Constant, true
	default:
		return 0, false
	}
}

// Field is a single block-level field of a message or group.
type Field struct {
	Name         string
	ID           uint16
	TypeName     string
	Offset       int
	HasOffset    bool
	Presence     Presence
	SemanticType string
	SinceVersion uint16
}

// DataField is a variable-length data field (a <data> element), always
// encoded as a var-data length header (VarDataHeader) followed by that
// many bytes.
type DataField struct {
	Name         string
	ID           uint16
	TypeName     string
	SinceVersion uint16
}

// Group is a repeating group: its own block of fields, preceded on the
// wire by a GroupHeader, possibly containing nested groups and data
// fields.
type Group struct {
	Name           string
	ID             uint16
	BlockLength    int
	HasBlockLength bool
	SinceVersion   uint16

	Fields []*Field
	Groups []*Group
	Data   []*DataField
}

// Message is a single top-level <message> definition.
type Message struct {
	Name           string
	TemplateID     uint16
	SchemaID       uint16
	Version        uint16
	BlockLength    int
	HasBlockLength bool
	SinceVersion   uint16

	Fields []*Field
	Groups []*Group
	Data   []*DataField
}
