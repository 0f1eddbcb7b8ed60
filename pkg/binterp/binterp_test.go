package binterp

import (
	"testing"
)

const packetSchema = `
meta { id: "packet", endian: le }
seq {
  field magic { contents: [0xca, 0xfe] }
  field count { type: u1 }
  field items {
    type: u1
    repeat: count
    repeat-expr: "count"
  }
}`

func TestParseEndToEnd(t *testing.T) {
	obj, err := Parse(packetSchema, []byte{0xca, 0xfe, 0x02, 0x10, 0x20}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := ToTree(obj).(map[string]any)
	count, ok := tree["count"].(int64)
	if !ok || count != 2 {
		t.Fatalf("got count %v, want int64(2)", tree["count"])
	}
	items, ok := tree["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("got items %v, want a 2-element slice", tree["items"])
	}
}

func TestParseValidationFailureBlocksInterpretation(t *testing.T) {
	badSchema := `
seq { field v { type: u1 } }`
	_, err := Parse(badSchema, []byte{0x00}, DefaultOptions())
	if err == nil {
		t.Fatal("expected a validation error for a schema missing meta.id")
	}
}

func TestParseSkipsValidationWhenDisabled(t *testing.T) {
	badSchema := `
seq { field v { type: u1 } }`
	_, err := Parse(badSchema, []byte{0x00}, Options{Validate: false})
	if err != nil {
		t.Fatalf("unexpected error with validation disabled: %v", err)
	}
}

func TestValidateSchemaReportsIssuesWithoutParsingData(t *testing.T) {
	badSchema := `
seq { field v { type: u1 } }`
	res, err := ValidateSchema(badSchema, false)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if res.Valid {
		t.Fatal("expected the schema to be reported invalid")
	}
}

func TestValidateSchemaCleanSchemaIsValid(t *testing.T) {
	res, err := ValidateSchema(packetSchema, false)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if !res.Valid {
		t.Errorf("expected a clean schema to validate, got %v", res.Errors)
	}
}

func TestParseSchemaSyntaxErrorSurfacesAsError(t *testing.T) {
	_, err := Parse("meta { id:", []byte{}, DefaultOptions())
	if err == nil {
		t.Fatal("expected a parse error for malformed schema source")
	}
}

func TestToTreeWideIntegerBecomesDecimalString(t *testing.T) {
	wideSchema := `
meta { id: "wide", endian: le }
seq { field v { type: u8 } }`
	obj, err := Parse(wideSchema, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := ToTree(obj).(map[string]any)
	s, ok := tree["v"].(string)
	if !ok {
		t.Fatalf("got %T, want a decimal string for a value exceeding native int range", tree["v"])
	}
	if s != "18446744073709551615" {
		t.Errorf("got %q, want \"18446744073709551615\"", s)
	}
}

func TestToTreeInstanceErrorIsSurfacedInline(t *testing.T) {
	badInstanceSchema := `
meta { id: "bad_instance", endian: le }
seq { field v { type: u1 } }
instances {
  instance boom {
    value: "1 / 0"
  }
}`
	obj, err := Parse(badInstanceSchema, []byte{0x01}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := ToTree(obj).(map[string]any)
	boom, ok := tree["boom"].(map[string]any)
	if !ok {
		t.Fatalf("got %T, want a map carrying the instance error", tree["boom"])
	}
	if _, ok := boom["_error"]; !ok {
		t.Error("expected an \"_error\" key describing the failed instance")
	}
}
