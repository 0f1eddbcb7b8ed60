package interp

import (
	"fmt"

	"github.com/blockberries/binterp/pkg/bitio"
	"github.com/blockberries/binterp/pkg/expr"
	"github.com/blockberries/binterp/pkg/schema"
)

// Context is the per-in-flight-parse evaluation context: the stream,
// root object, parent chain (via Object.Parent), current object, enum
// table (via current.Type's scope chain), loop index, and last-value.
// It implements expr.Resolver so the expression engine can resolve
// identifiers, member access, and enum-scope lookups against live parse
// state.
type Context struct {
	io      *bitio.Stream
	root    *Object
	current *Object

	hasIndex bool
	index    int64

	hasLast bool
	last    expr.Value
}

// ioFacade wraps a stream as an object-kind Value so it resolves through
// Member like `_io.pos`, `_io.size`, `_io.eof`.
type ioFacade struct{ s *bitio.Stream }

func (ctx *Context) ResolveIdent(name string) (expr.Value, bool, error) {
	switch name {
	case "_io":
		return expr.Object(&ioFacade{ctx.io}), true, nil
	case "_root":
		return expr.Object(ctx.root), true, nil
	case "_parent":
		if ctx.current.Parent == nil {
			return expr.Undefined, true, nil
		}
		return expr.Object(ctx.current.Parent), true, nil
	case "_index":
		if !ctx.hasIndex {
			return expr.Undefined, true, nil
		}
		return expr.IntFromInt64(ctx.index), true, nil
	case "_":
		if !ctx.hasLast {
			return expr.Undefined, true, nil
		}
		return ctx.last, true, nil
	}

	if v, ok := ctx.current.Fields[name]; ok {
		return v, true, nil
	}
	if slot, ok := ctx.current.instances[name]; ok {
		v, err := ctx.evalInstance(ctx.current, slot)
		if err != nil {
			return expr.Value{}, false, err
		}
		return v, true, nil
	}
	return expr.Undefined, false, nil
}

func (ctx *Context) Member(obj expr.Value, name string) (expr.Value, error) {
	switch o := obj.Obj.(type) {
	case *Object:
		if v, ok := o.Fields[name]; ok {
			return v, nil
		}
		if slot, ok := o.instances[name]; ok {
			return ctx.evalInstance(o, slot)
		}
		return expr.Undefined, nil
	case *ioFacade:
		switch name {
		case "pos":
			return expr.IntFromInt64(int64(o.s.Pos())), nil
		case "size":
			return expr.IntFromInt64(int64(o.s.Size())), nil
		case "eof":
			return expr.Bool(o.s.IsEOF()), nil
		default:
			return expr.Value{}, fmt.Errorf("_io has no member %q", name)
		}
	default:
		return expr.Value{}, fmt.Errorf("cannot access member %q of non-object value", name)
	}
}

func (ctx *Context) Index(obj expr.Value, idx expr.Value) (expr.Value, error) {
	return expr.Value{}, fmt.Errorf("value is not indexable")
}

func (ctx *Context) EnumLookup(enum, member string) (expr.Value, error) {
	def, ok := ctx.current.Type.ResolveEnum(enum)
	if !ok {
		return expr.Value{}, fmt.Errorf("unknown enum %q", enum)
	}
	for num, sym := range def.Values {
		if sym == member {
			return expr.IntFromInt64(num), nil
		}
	}
	return expr.Value{}, fmt.Errorf("enum %q has no member %q", enum, member)
}

// evalInstance runs the lazy-accessor contract: a value instance
// evaluates against the current context with no stream read; a
// field-shaped instance saves the stream position, parses, and restores
// the position on both the success and failure paths. Neither branch
// memoizes a failure.
func (ctx *Context) evalInstance(o *Object, slot *instanceSlot) (expr.Value, error) {
	if slot.done {
		return slot.value, nil
	}

	savedCurrent := ctx.current
	ctx.current = o
	defer func() { ctx.current = savedCurrent }()

	if slot.spec.HasValue {
		v, err := ctx.evalExprValue(slot.spec.ValueExpr)
		if err != nil {
			return expr.Value{}, err
		}
		slot.value, slot.done = v, true
		return v, nil
	}

	savedPos := ctx.io.Pos()
	v, _, err := ctx.parseField(&slot.spec.FieldSpec)
	if seekErr := ctx.io.Seek(savedPos); seekErr != nil && err == nil {
		err = wrapEOF(slot.spec.Pos, seekErr)
	}
	if err != nil {
		return expr.Value{}, err
	}
	slot.value, slot.done = v, true
	return v, nil
}

func (ctx *Context) evalExprValue(src string) (expr.Value, error) {
	node, perr := expr.Parse(src)
	if perr != nil {
		if pe, ok := perr.(*expr.ParseError); ok {
			return expr.Value{}, newParseErr(toSchemaPos(pe.Position), pe.Message)
		}
		return expr.Value{}, newParseErr(schema.Position{}, perr.Error())
	}
	v, eerr := expr.Eval(node, ctx)
	if eerr != nil {
		if ee, ok := eerr.(*expr.EvalError); ok {
			return expr.Value{}, newParseErr(toSchemaPos(ee.Position), ee.Message)
		}
		if ierr, ok := eerr.(*Error); ok {
			return expr.Value{}, ierr
		}
		return expr.Value{}, newParseErr(schema.Position{}, eerr.Error())
	}
	return v, nil
}

func (ctx *Context) evalExprInt(src string) (int64, error) {
	v, err := ctx.evalExprValue(src)
	if err != nil {
		return 0, err
	}
	i, ok := v.AsBigInt()
	if !ok {
		return 0, newParseErr(schema.Position{}, "expression %q did not evaluate to a number", src)
	}
	if !i.IsInt64() {
		return 0, newParseErr(schema.Position{}, "expression %q overflowed a 64-bit integer", src)
	}
	return i.Int64(), nil
}

func (ctx *Context) evalExprBool(src string) (bool, error) {
	v, err := ctx.evalExprValue(src)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func toSchemaPos(p expr.Position) schema.Position {
	return schema.Position{Line: p.Line, Column: p.Column}
}
