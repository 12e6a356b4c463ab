package schema

import "testing"

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"instrumentId": "instrument_id",
		"SeqNum":       "seq_num",
		"price":        "price",
		"ABC":          "a_b_c",
	}
	for in, want := range cases {
		if got := SnakeCase(in); got != want {
			t.Errorf("SnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPascalCase(t *testing.T) {
	cases := map[string]string{
		"instrument_id": "InstrumentId",
		"seq-num":       "SeqNum",
		"Price":         "Price",
		"varData":       "VarData",
	}
	for in, want := range cases {
		if got := PascalCase(in); got != want {
			t.Errorf("PascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveMessage(t *testing.T) {
	s := loadTestSchema(t)
	resolved, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved message, got %d", len(resolved))
	}
	m := resolved[0]
	if m.GoName != "BookUpdate" {
		t.Errorf("GoName: got %q", m.GoName)
	}
	if m.BlockLength != 29 {
		t.Errorf("BlockLength: got %d, want 29", m.BlockLength)
	}
	if len(m.Fields) != 5 {
		t.Fatalf("expected 5 resolved fields, got %d", len(m.Fields))
	}
	seq := m.Fields[1]
	if seq.GoName != "SeqNum" || seq.Offset != 4 || seq.EncodedLength != 8 {
		t.Errorf("seqNum field: got %+v", seq)
	}
	side := m.Fields[2]
	if side.Kind != EnumField || side.Offset != 12 {
		t.Errorf("side field: got %+v", side)
	}
	if len(m.Groups) != 1 || m.Groups[0].GoName != "Sources" {
		t.Fatalf("expected group Sources, got %+v", m.Groups)
	}
	if len(m.Data) != 1 || m.Data[0].HeaderWidth != 2 {
		t.Fatalf("expected var-data width 2, got %+v", m.Data)
	}
}
