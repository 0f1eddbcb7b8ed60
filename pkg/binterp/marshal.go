package binterp

import (
	"fmt"
	"math"
	"math/big"

	"github.com/blockberries/binterp/pkg/expr"
	"github.com/blockberries/binterp/pkg/interp"
)

var (
	minNative = big.NewInt(math.MinInt32)
	maxNative = big.NewInt(math.MaxInt32)
)

// ToTree renders a parsed Object as a plain Go value suitable for
// encoding/json or goccy/go-yaml: maps, slices, strings, bools, float64,
// int64 for integers in int32 range, and decimal strings for every other
// integer. Lazy instance accessors are
// realized in declaration order as they're visited.
func ToTree(o *interp.Object) any {
	return objectTree(o)
}

func objectTree(o *interp.Object) map[string]any {
	m := make(map[string]any, len(o.FieldOrder)+len(o.InstanceOrder))
	for _, name := range o.FieldOrder {
		m[name] = valueTree(o.Fields[name])
	}
	for _, name := range o.InstanceOrder {
		v, err := o.Instance(name)
		if err != nil {
			m[name] = map[string]any{"_error": err.Error()}
			continue
		}
		m[name] = valueTree(v)
	}
	return m
}

func valueTree(v expr.Value) any {
	switch v.Kind {
	case expr.KindUndefined:
		return nil
	case expr.KindInt:
		return intTree(v.Int)
	case expr.KindFloat:
		return v.Float
	case expr.KindBool:
		return v.Bool
	case expr.KindStr:
		return v.Str
	case expr.KindBytes:
		arr := make([]any, len(v.Bytes))
		for i, b := range v.Bytes {
			arr[i] = int(b)
		}
		return arr
	case expr.KindSeq:
		arr := make([]any, len(v.Seq))
		for i, e := range v.Seq {
			arr[i] = valueTree(e)
		}
		return arr
	case expr.KindObject:
		if obj, ok := v.Obj.(*interp.Object); ok {
			return objectTree(obj)
		}
		return fmt.Sprintf("%v", v.Obj)
	default:
		return nil
	}
}

// intTree keeps values in [math.MinInt32, math.MaxInt32] as int64; any
// value outside that range (a large u4 as well as a wide u8/s8) becomes a
// decimal string so no precision is lost in a decoder with a float64
// number type.
func intTree(i *big.Int) any {
	if i.Cmp(minNative) >= 0 && i.Cmp(maxNative) <= 0 {
		return i.Int64()
	}
	return i.String()
}
