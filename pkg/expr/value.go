package expr

import (
	"fmt"
	"math/big"
)

// Kind tags a Value's representation.
type Kind int

const (
	KindUndefined Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindBytes
	KindSeq
	KindObject
)

// Value is the dynamically-typed result of evaluating an expression.
// Integers are always arbitrary-precision internally so that u8/s8 fields
// never lose range; narrower widths are just small big.Ints.
type Value struct {
	Kind  Kind
	Int   *big.Int
	Float float64
	Bool  bool
	Str   string
	Bytes []byte
	Seq   []Value
	Obj   any // resolver-owned object; opaque to the evaluator
}

// Undefined is the "nullish" value produced by a miss in identifier or
// index resolution.
var Undefined = Value{Kind: KindUndefined}

func Int(i *big.Int) Value          { return Value{Kind: KindInt, Int: i} }
func IntFromInt64(i int64) Value    { return Value{Kind: KindInt, Int: big.NewInt(i)} }
func Float(f float64) Value         { return Value{Kind: KindFloat, Float: f} }
func Bool(b bool) Value             { return Value{Kind: KindBool, Bool: b} }
func Str(s string) Value            { return Value{Kind: KindStr, Str: s} }
func Bytes(b []byte) Value          { return Value{Kind: KindBytes, Bytes: b} }
func Seq(v []Value) Value           { return Value{Kind: KindSeq, Seq: v} }
func Object(o any) Value            { return Value{Kind: KindObject, Obj: o} }

func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsNumeric() bool   { return v.Kind == KindInt || v.Kind == KindFloat }

// AsFloat64 coerces a numeric value to float64.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindInt:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return f, true
	case KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsBigInt coerces a numeric value to an integer, flooring floats.
func (v Value) AsBigInt() (*big.Int, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		bf := big.NewFloat(v.Float)
		i, _ := bf.Int(nil)
		// big.Float.Int truncates toward zero; floor negative non-integers.
		if v.Float < 0 {
			f2, _ := new(big.Float).SetInt(i).Float64()
			if f2 != v.Float {
				i.Sub(i, big.NewInt(1))
			}
		}
		return i, true
	default:
		return nil, false
	}
}

// Truthy implements the boolean coercion rule: numeric zero, empty string,
// and undefined are false; everything else is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindUndefined:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int.Sign() != 0
	case KindFloat:
		return v.Float != 0
	case KindStr:
		return v.Str != ""
	default:
		return true
	}
}

// AsString renders v for string concatenation and to_s.
func (v Value) AsString() string {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindInt:
		return v.Int.String()
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindBytes:
		return string(v.Bytes)
	case KindUndefined:
		return "null"
	default:
		return fmt.Sprintf("%v", v.Obj)
	}
}

// Length implements the length/size method for sequences, byte arrays, and
// strings.
func (v Value) Length() (int, bool) {
	switch v.Kind {
	case KindSeq:
		return len(v.Seq), true
	case KindBytes:
		return len(v.Bytes), true
	case KindStr:
		return len([]rune(v.Str)), true
	default:
		return 0, false
	}
}
