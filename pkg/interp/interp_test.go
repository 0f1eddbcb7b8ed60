package interp

import (
	"errors"
	"testing"

	"github.com/blockberries/binterp/pkg/expr"
	"github.com/blockberries/binterp/pkg/schema"
)

func mustParseSchema(t *testing.T, src string) *schema.TypeDef {
	t.Helper()
	root, errs := schema.Parse("t", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected schema parse errors: %v", errs)
	}
	return root
}

func TestParseMagicAndFields(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "magic_test", endian: le }
seq {
  field magic { contents: [0xca, 0xfe] }
  field version { type: u2 }
}`)
	obj, err := Parse(root, []byte{0xca, 0xfe, 0x01, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := obj.Fields["version"]
	if !ok {
		t.Fatal("expected \"version\" field to be populated")
	}
	i, _ := v.AsBigInt()
	if i.Int64() != 1 {
		t.Errorf("got version %v, want 1", i)
	}
}

func TestParseConditionalField(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "cond_test", endian: le }
seq {
  field flag { type: u1 }
  field payload {
    type: u1
    if: "flag == 1"
  }
}`)
	present, err := Parse(root, []byte{0x01, 0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := present.Fields["payload"]; !ok {
		t.Error("expected payload to be present when flag == 1")
	}

	absent, err := Parse(root, []byte{0x00, 0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := absent.Fields["payload"]; ok {
		t.Error("expected payload to be absent when flag == 0")
	}
}

func TestParseRepeatCountComputed(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "repeat_count_test", endian: le }
seq {
  field n { type: u1 }
  field items {
    type: u1
    repeat: count
    repeat-expr: "n"
  }
}`)
	obj, err := Parse(root, []byte{0x03, 0x10, 0x20, 0x30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := obj.Fields["items"]
	if items.Kind != expr.KindSeq {
		t.Fatalf("got kind %v, want KindSeq", items.Kind)
	}
	if n, ok := items.Length(); !ok || n != 3 {
		t.Fatalf("got length %d (ok=%v), want 3", n, ok)
	}
	first, _ := items.Seq[0].AsBigInt()
	if first.Int64() != 0x10 {
		t.Errorf("got items[0] = %v, want 0x10", first)
	}
}

func TestParseRepeatUntilSentinel(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "repeat_until_test", endian: le }
seq {
  field items {
    type: u1
    repeat: until
    repeat-expr: "_ == 0"
  }
}`)
	obj, err := Parse(root, []byte{0x01, 0x02, 0x00, 0x99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := obj.Fields["items"]
	n, ok := items.Length()
	if !ok || n != 3 {
		t.Fatalf("got length %d (ok=%v), want 3 (stops after the sentinel, trailing byte untouched)", n, ok)
	}
	last, _ := items.Seq[2].AsBigInt()
	if last.Int64() != 0 {
		t.Errorf("got items[2] = %v, want 0 (the sentinel itself is included)", last)
	}
}

func TestParseSwitchTypeWithDefault(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "switch_test", endian: le }
seq {
  field kind { type: u1 }
  field body {
    type: switch("kind") {
      1: TypeA
      2: TypeB
      default: TypeC
    }
  }
}
types {
  type TypeA { seq { field a { type: u1 } } }
  type TypeB { seq { field b { type: u2 } } }
  type TypeC { seq { field c { type: u1 } } }
}`)
	obj, err := Parse(root, []byte{0x02, 0x34, 0x12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := obj.Fields["body"]
	inner, ok := body.Obj.(*Object)
	if !ok {
		t.Fatalf("got %T, want *Object for the switch-selected body", body.Obj)
	}
	if inner.Type.Name != "TypeB" {
		t.Errorf("got type %q, want TypeB (kind == 2)", inner.Type.Name)
	}
	b, _ := inner.Fields["b"].AsBigInt()
	if b.Int64() != 0x1234 {
		t.Errorf("got b = %v, want 0x1234", b)
	}

	defaultObj, err := Parse(root, []byte{0x99, 0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defBody := defaultObj.Fields["body"]
	defInner := defBody.Obj.(*Object)
	if defInner.Type.Name != "TypeC" {
		t.Errorf("got type %q, want TypeC (no case matches, falls back to default)", defInner.Type.Name)
	}
}

func TestParsePosInstanceRestoresPosition(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "pos_instance_test", endian: le }
seq {
  field header { type: u1 }
  field tail { type: u1 }
}
instances {
  instance peek_at_offset_2 {
    pos: "2"
    type: u1
  }
}`)
	obj, err := Parse(root, []byte{0xaa, 0xbb, 0xcc, 0xdd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tailBefore, _ := obj.Fields["tail"].AsBigInt()
	if tailBefore.Int64() != 0xbb {
		t.Fatalf("got tail = %v, want 0xbb", tailBefore)
	}

	posBefore := obj.ctx.io.Pos()
	v, err := obj.Instance("peek_at_offset_2")
	if err != nil {
		t.Fatalf("unexpected error evaluating the instance: %v", err)
	}
	if posAfter := obj.ctx.io.Pos(); posAfter != posBefore {
		t.Errorf("got stream position %d after the instance read, want %d (restored)", posAfter, posBefore)
	}
	got, _ := v.AsBigInt()
	if got.Int64() != 0xcc {
		t.Errorf("got instance value %v, want 0xcc", got)
	}

	if !obj.InstanceEvaluated("peek_at_offset_2") {
		t.Error("expected the instance to be memoized after evaluation")
	}
}

func TestParseValueInstanceIsComputedNotRead(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "value_instance_test", endian: le }
seq {
  field len { type: u1 }
}
instances {
  instance doubled {
    value: "len * 2"
  }
}`)
	obj, err := Parse(root, []byte{0x05})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := obj.Instance("doubled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := v.AsBigInt()
	if got.Int64() != 10 {
		t.Errorf("got doubled = %v, want 10", got)
	}
}

func TestParseEnumInComparison(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "enum_test", endian: le }
seq {
  field color {
    type: u1
    enum: color
  }
  field is_red {
    type: u1
    if: "color == color::red"
  }
}
enums {
  enum color {
    0: red
    1: green
  }
}`)
	obj, err := Parse(root, []byte{0x00, 0x42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := obj.Fields["is_red"]; !ok {
		t.Error("expected is_red to be read when color == color::red")
	}
}

func TestContentsMismatchIsValidationError(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "contents_test", endian: le }
seq { field magic { contents: [0xde, 0xad] } }`)
	_, err := Parse(root, []byte{0x00, 0x00})
	if err == nil {
		t.Fatal("expected a contents mismatch error")
	}
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("got %T, want *interp.Error", err)
	}
	if ierr.Kind != KindValidation {
		t.Errorf("got kind %v, want KindValidation", ierr.Kind)
	}
}

func TestReadPastEndOfStreamIsEOFError(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "eof_test", endian: le }
seq { field v { type: u4 } }`)
	_, err := Parse(root, []byte{0x01, 0x02})
	if err == nil {
		t.Fatal("expected an end-of-stream error")
	}
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("got %T, want *interp.Error", err)
	}
	if ierr.Kind != KindEOF {
		t.Errorf("got kind %v, want KindEOF", ierr.Kind)
	}
}

func TestRepeatEOSConsumesRemainingBytes(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "repeat_eos_test", endian: le }
seq {
  field items {
    type: u1
    repeat: eos
  }
}`)
	obj, err := Parse(root, []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := obj.Fields["items"].Length()
	if !ok || n != 3 {
		t.Fatalf("got length %d (ok=%v), want 3", n, ok)
	}
}

func TestRepeatEOSOnEmptyStreamYieldsEmptySeq(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "repeat_eos_empty_test", endian: le }
seq {
  field items {
    type: u1
    repeat: eos
  }
}`)
	obj, err := Parse(root, []byte{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := obj.Fields["items"].Length()
	if !ok || n != 0 {
		t.Fatalf("got length %d (ok=%v), want 0", n, ok)
	}
}

func TestNestedTypeParentLinkage(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "nested_test", endian: le }
seq {
  field child { type: Child }
}
types {
  type Child {
    seq { field v { type: u1 } }
  }
}`)
	obj, err := Parse(root, []byte{0x07})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child, ok := obj.Fields["child"].Obj.(*Object)
	if !ok {
		t.Fatalf("got %T, want *Object", obj.Fields["child"].Obj)
	}
	if child.Parent != obj {
		t.Error("expected the nested object's Parent to be the enclosing object")
	}
}

func TestSizedFieldReadsRawBytesWhenUntyped(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "sized_test", endian: le }
seq {
  field blob { size: "3" }
}`)
	obj, err := Parse(root, []byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blob := obj.Fields["blob"]
	if len(blob.Bytes) != 3 {
		t.Fatalf("got %d bytes, want 3", len(blob.Bytes))
	}
}

func TestTypeParamsBindInDeclarationOrder(t *testing.T) {
	root := mustParseSchema(t, `
meta { id: "params_test", endian: le }
params {
  param scale: u4
}
seq {
  field v { type: u1 }
}`)
	obj, err := Parse(root, []byte{0x09}, expr.IntFromInt64(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scale, ok := obj.Fields["scale"]
	if !ok {
		t.Fatal("expected the type parameter \"scale\" to be bound")
	}
	i, _ := scale.AsBigInt()
	if i.Int64() != 3 {
		t.Errorf("got scale = %v, want 3", i)
	}
}
