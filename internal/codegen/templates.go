package codegen

import "text/template"

// Every template below renders into the same buffer as the next, so each
// must begin and end its own braces/newlines cleanly; go/format cleans up
// the whitespace in Generate's final pass.

var messageHeaderTmpl = template.Must(template.New("messageHeader").Parse(`
const (
	{{.GoName}}TemplateID    uint16 = {{.TemplateID}}
	{{.GoName}}SchemaID      uint16 = {{.SchemaID}}
	{{.GoName}}SchemaVersion uint16 = {{.SchemaVersion}}
	{{.GoName}}BlockLength   uint16 = {{.BlockLength}}
)

// {{.GoName}}Decoder decodes a {{.GoName}} message body. Group and
// var-data accessors must be called in declared order; each advances an
// internal cursor past the bytes it read.
type {{.GoName}}Decoder struct {
	buf           *buffer.Buffer
	offset        int
	actingVersion uint16
	cursor        int
}

// Wrap{{.GoName}} positions a decoder at offset in buf, using
// actingVersion to gate fields added after version 0. Most callers decode
// a whole message at once via Decode{{.GoName}}.
func Wrap{{.GoName}}(buf *buffer.Buffer, offset int, actingVersion uint16) *{{.GoName}}Decoder {
	return &{{.GoName}}Decoder{
		buf:           buf,
		offset:        offset,
		actingVersion: actingVersion,
		cursor:        offset + int({{.GoName}}BlockLength),
	}
}

// Decode{{.GoName}} runs the decoder gate against data — length,
// template id, schema id, block-length bounds — and returns a decoder
// positioned at the message body.
func Decode{{.GoName}}(data []byte) (*{{.GoName}}Decoder, error) {
	buf := buffer.Wrap(data)
	hdr, err := wire.ValidateHeader(buf, {{.GoName}}TemplateID, {{.GoName}}SchemaID)
	if err != nil {
		return nil, err
	}
	return Wrap{{.GoName}}(buf, wire.HeaderLen, hdr.Version), nil
}

// {{.GoName}}Encoder encodes a {{.GoName}} message into buf, starting at
// offset. The message header is written immediately on construction.
type {{.GoName}}Encoder struct {
	buf    *buffer.Buffer
	offset int
}

// Wrap{{.GoName}}Encoder writes the message header at offset and returns
// an encoder positioned at the message body.
func Wrap{{.GoName}}Encoder(buf *buffer.Buffer, offset int) (*{{.GoName}}Encoder, error) {
	h := wire.MessageHeader{
		BlockLength: {{.GoName}}BlockLength,
		TemplateID:  {{.GoName}}TemplateID,
		SchemaID:    {{.GoName}}SchemaID,
		Version:     {{.GoName}}SchemaVersion,
	}
	headerBuf := buffer.Wrap(buf.Bytes()[offset:])
	if err := wire.EncodeMessageHeader(headerBuf, h); err != nil {
		return nil, err
	}
	return &{{.GoName}}Encoder{buf: buf, offset: offset + wire.HeaderLen}, nil
}
`))

var scalarFieldTmpl = template.Must(template.New("scalarField").Parse(`
// {{.GoName}} reads the {{.GoName}} field.
func (d *{{.ParentDecoder}}) {{.GoName}}() ({{.GoType}}, error) {
{{- if gt .SinceVersion 0}}
	if d.actingVersion < {{.SinceVersion}} {
		return {{.NullLiteral}}, nil
	}
{{- end}}
	return d.buf.{{.Getter}}(d.offset + {{.Offset}})
}
{{if ne .ParentEncoder ""}}
// {{.GoName}} writes the {{.GoName}} field and returns e for chaining.
func (e *{{.ParentEncoder}}) {{.GoName}}(v {{.GoType}}) (*{{.ParentEncoder}}, error) {
	if err := e.buf.{{.Setter}}(e.offset + {{.Offset}}, v); err != nil {
		return nil, err
	}
	return e, nil
}
{{end}}
`))

var stringFieldTmpl = template.Must(template.New("stringField").Parse(`
// {{.GoName}} reads the fixed-length {{.GoName}} character array,
// truncated at the first zero byte.
func (d *{{.ParentDecoder}}) {{.GoName}}() (string, error) {
{{- if gt .SinceVersion 0}}
	if d.actingVersion < {{.SinceVersion}} {
		return "", nil
	}
{{- end}}
	return d.buf.GetString(d.offset+{{.Offset}}, {{.MaxLen}})
}
{{if ne .ParentEncoder ""}}
// {{.GoName}} writes v into the fixed-length {{.GoName}} array, zero-padding
// the remainder, and returns e for chaining.
func (e *{{.ParentEncoder}}) {{.GoName}}(v string) (*{{.ParentEncoder}}, error) {
	if err := e.buf.PutString(e.offset+{{.Offset}}, v, {{.MaxLen}}); err != nil {
		return nil, err
	}
	return e, nil
}
{{end}}
`))

var rawFieldTmpl = template.Must(template.New("rawField").Parse(`
// {{.GoName}} returns the raw encoded bytes of the {{.GoName}} composite
// field. Callers that need the sub-fields decode them by hand until a
// concrete schema warrants a typed sub-accessor.
func (d *{{.ParentDecoder}}) {{.GoName}}() ([]byte, error) {
{{- if gt .SinceVersion 0}}
	if d.actingVersion < {{.SinceVersion}} {
		return nil, nil
	}
{{- end}}
	return d.buf.Slice(d.offset+{{.Offset}}, {{.EncodedLength}})
}
`))

var enumFieldTmpl = template.Must(template.New("enumField").Parse(`
// {{.GoName}} reads the {{.GoName}} field as a raw {{.TypeGoName}} value;
// use {{.TypeGoName}}FromRaw to validate it against the schema's declared
// variants.
func (d *{{.ParentDecoder}}) {{.GoName}}() ({{.TypeGoName}}, error) {
{{- if gt .SinceVersion 0}}
	if d.actingVersion < {{.SinceVersion}} {
		return {{.NullLiteral}}, nil
	}
{{- end}}
	raw, err := d.buf.{{.Getter}}(d.offset + {{.Offset}})
	if err != nil {
		return 0, err
	}
	return {{.TypeGoName}}(raw), nil
}
{{if ne .ParentEncoder ""}}
// {{.GoName}} writes the {{.GoName}} field and returns e for chaining.
func (e *{{.ParentEncoder}}) {{.GoName}}(v {{.TypeGoName}}) (*{{.ParentEncoder}}, error) {
	if err := e.buf.{{.Setter}}(e.offset+{{.Offset}}, {{.RawGoType}}(v)); err != nil {
		return nil, err
	}
	return e, nil
}
{{end}}
`))

// groupTmpl emits the group accessor on the enclosing decoder, the
// iterator type for the group itself, and the entry decoder struct that
// per-field templates hang their accessors off. Entries are decode-only:
// a group's on-wire span depends on its runtime numInGroup, so there is no
// static offset to encode an entry at ahead of time.
var groupTmpl = template.Must(template.New("group").Parse(`
// {{.AccessorName}} decodes the {{.AccessorName}} repeating group's header
// at the decoder's current cursor and advances the cursor past every
// entry. Calling it again does not re-decode the same header: it decodes
// from the already-advanced cursor.
func (d *{{.ParentType}}) {{.AccessorName}}() (*{{.GroupTypeName}}, error) {
	hdr, err := wire.DecodeGroupHeader(d.buf, d.cursor)
	if err != nil {
		return nil, err
	}
	base := d.cursor + wire.GroupHeaderLen
	d.cursor = base + int(hdr.NumInGroup)*int(hdr.BlockLength)
	return &{{.GroupTypeName}}{
		buf:           d.buf,
		base:          base,
		blockLength:   int(hdr.BlockLength),
		count:         int(hdr.NumInGroup),
		actingVersion: d.actingVersion,
	}, nil
}

// {{.GroupTypeName}} exposes the decoded {{.AccessorName}} entries by
// index; it does not implement an iterator interface since the entry
// count is known up front from the GroupHeader.
type {{.GroupTypeName}} struct {
	buf           *buffer.Buffer
	base          int
	blockLength   int
	count         int
	actingVersion uint16
}

// Count returns the number of entries in this group instance.
func (g *{{.GroupTypeName}}) Count() int { return g.count }

// Entry returns the i'th entry decoder, 0 <= i < Count().
func (g *{{.GroupTypeName}}) Entry(i int) *{{.EntryTypeName}} {
	offset := g.base + i*g.blockLength
	return &{{.EntryTypeName}}{
		buf:           g.buf,
		offset:        offset,
		cursor:        offset + g.blockLength,
		actingVersion: g.actingVersion,
	}
}

// {{.EntryTypeName}} decodes a single {{.AccessorName}} entry.
type {{.EntryTypeName}} struct {
	buf           *buffer.Buffer
	offset        int
	cursor        int
	actingVersion uint16
}
`))

var dataTmpl = template.Must(template.New("data").Parse(`
// {{.AccessorName}} reads this variable-length data field from the
// decoder's current cursor and advances the cursor past it.
func (d *{{.ParentType}}) {{.AccessorName}}() ([]byte, error) {
	length, dataOffset, err := wire.DecodeVarDataLength(d.buf, d.cursor, wire.VarDataHeaderWidth({{.HeaderWidth}}))
	if err != nil {
		return nil, err
	}
	data, err := d.buf.Slice(dataOffset, length)
	if err != nil {
		return nil, err
	}
	d.cursor = dataOffset + length
	return data, nil
}
`))

var enumTmpl = template.Must(template.New("enum").Parse(`
// {{.GoName}} is a populated SBE enum: one named constant per validValue
// declared in the schema.
type {{.GoName}} {{.GoType}}

const (
{{- range .Values}}
	{{$.GoName}}{{.Name}} {{$.GoName}} = {{.Value}}
{{- end}}
)

// {{.GoName}}FromRaw converts a raw wire value into a known {{.GoName}}
// variant, reporting false if it matches none of the schema's validValues.
func {{.GoName}}FromRaw(v {{.GoType}}) ({{.GoName}}, bool) {
	switch {{.GoName}}(v) {
{{- range .Values}}
	case {{$.GoName}}{{.Name}}:
		return {{$.GoName}}{{.Name}}, true
{{- end}}
	default:
		return 0, false
	}
}

// AsPrimitive returns the underlying wire value of e.
func (e {{.GoName}}) AsPrimitive() {{.GoType}} { return {{.GoType}}(e) }
`))

var setTmpl = template.Must(template.New("set").Parse(`
// {{.GoName}} is an SBE bitset; each declared choice is a single bit,
// tested and set via the Has/With methods below.
type {{.GoName}} {{.GoType}}
{{$root := .}}
{{- range .Choices}}
// Has{{.Name}} reports whether bit {{.BitPosition}} is set.
func (s {{$root.GoName}}) Has{{.Name}}() bool { return s&(1<<{{.BitPosition}}) != 0 }

// With{{.Name}} returns s with bit {{.BitPosition}} set.
func (s {{$root.GoName}}) With{{.Name}}() {{$root.GoName}} { return s | (1 << {{.BitPosition}}) }
{{end}}
`))
