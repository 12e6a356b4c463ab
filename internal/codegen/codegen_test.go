package codegen

import (
	"os"
	"strings"
	"testing"

	"github.com/rishav/gosbe/internal/schema"
)

func loadResolved(t *testing.T) (*schema.Schema, []*schema.ResolvedMessage) {
	t.Helper()
	f, err := os.Open("../../testdata/schema/market_data.xml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := schema.Parse(f)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := schema.Validate(s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	resolved, err := schema.Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return s, resolved
}

func TestGenerateProducesFormattedSource(t *testing.T) {
	s, resolved := loadResolved(t)
	out, err := Generate("marketdatav1", s, resolved)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)
	if !strings.HasPrefix(src, "// Code generated by gosbe/internal/codegen. DO NOT EDIT.") {
		t.Errorf("missing generated-code header: %q", src[:60])
	}
	if !strings.Contains(src, "package marketdatav1") {
		t.Error("missing package clause")
	}
}

func TestGenerateMessageHeaderConstants(t *testing.T) {
	s, resolved := loadResolved(t)
	src := generateOrFatal(t, s, resolved)
	normalized := strings.Join(strings.Fields(src), " ")
	for _, want := range []string{
		"BookUpdateTemplateID uint16 = 1",
		"BookUpdateSchemaID uint16 = 1",
		"BookUpdateBlockLength uint16 = 29",
		"func DecodeBookUpdate(data []byte) (*BookUpdateDecoder, error)",
		"func WrapBookUpdateEncoder(buf *buffer.Buffer, offset int) (*BookUpdateEncoder, error)",
	} {
		if !strings.Contains(normalized, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}

func TestGenerateScalarFieldAccessors(t *testing.T) {
	s, resolved := loadResolved(t)
	src := generateOrFatal(t, s, resolved)
	normalized := strings.Join(strings.Fields(src), " ")
	for _, want := range []string{
		"func (d *BookUpdateDecoder) InstrumentId() (uint32, error)",
		"d.buf.GetUint32(d.offset + 0)",
		"func (e *BookUpdateEncoder) InstrumentId(v uint32) (*BookUpdateEncoder, error)",
		"func (d *BookUpdateDecoder) SeqNum() (uint64, error)",
	} {
		if !strings.Contains(normalized, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}

func TestGenerateEnumType(t *testing.T) {
	s, resolved := loadResolved(t)
	src := generateOrFatal(t, s, resolved)
	for _, want := range []string{
		"type Side uint8",
		"SideBid Side = 0",
		"SideAsk Side = 1",
		"func SideFromRaw(v uint8) (Side, bool)",
		"func (d *BookUpdateDecoder) Side() (Side, error)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}

func TestGenerateGroupAndVarData(t *testing.T) {
	s, resolved := loadResolved(t)
	src := generateOrFatal(t, s, resolved)
	for _, want := range []string{
		"func (d *BookUpdateDecoder) Sources() (*BookUpdateSourcesGroup, error)",
		"type BookUpdateSourcesGroup struct",
		"func (g *BookUpdateSourcesGroup) Entry(i int) *BookUpdateSourcesEntry",
		"func (d *BookUpdateSourcesEntry) SourceId() (uint32, error)",
		"func (d *BookUpdateDecoder) Note() ([]byte, error)",
		"wire.VarDataHeaderWidth(2)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}

func generateOrFatal(t *testing.T, s *schema.Schema, resolved []*schema.ResolvedMessage) string {
	t.Helper()
	out, err := Generate("marketdatav1", s, resolved)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return string(out)
}
