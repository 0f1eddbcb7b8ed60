package interp

import (
	"math/big"

	"github.com/blockberries/binterp/internal/textenc"
	"github.com/blockberries/binterp/pkg/bitio"
	"github.com/blockberries/binterp/pkg/expr"
	"github.com/blockberries/binterp/pkg/schema"
)

// Parse interprets t against data, returning the root of the parsed
// object tree. This top-level form has no parent and accepts
// already-evaluated type arguments, bound to t's declared parameters in
// order.
func Parse(t *schema.TypeDef, data []byte, typeArgs ...expr.Value) (*Object, error) {
	ctx := &Context{io: bitio.NewStream(data)}
	root := newObject(ctx, t, nil)
	ctx.root, ctx.current = root, root
	if err := ctx.populate(root, typeArgs); err != nil {
		return nil, err
	}
	return root, nil
}

// populate runs entry steps 1-3 against ctx.current, which the caller must
// already have set to obj.
func (ctx *Context) populate(obj *Object, typeArgs []expr.Value) error {
	for i, p := range obj.Type.Params {
		if i < len(typeArgs) {
			obj.Fields[p.Name] = typeArgs[i]
			obj.FieldOrder = append(obj.FieldOrder, p.Name)
		}
	}

	for _, f := range obj.Type.Seq {
		v, stored, err := ctx.parseField(f)
		if err != nil {
			return err
		}
		if stored && f.ID != "" {
			obj.Fields[f.ID] = v
			obj.FieldOrder = append(obj.FieldOrder, f.ID)
		}
	}

	for _, name := range obj.Type.InstanceOrder {
		obj.instances[name] = &instanceSlot{spec: obj.Type.Instances[name]}
		obj.InstanceOrder = append(obj.InstanceOrder, name)
	}
	return nil
}

// parseField dispatches a single field: conditional gate, position
// redirect, io/process redirects (unsupported), repetition, contents
// check, then a single-value read.
func (ctx *Context) parseField(f *schema.FieldSpec) (expr.Value, bool, error) {
	if f.HasIf {
		cond, err := ctx.evalExprValue(f.IfExpr)
		if err != nil {
			return expr.Value{}, false, err
		}
		if !cond.Truthy() {
			return expr.Undefined, false, nil
		}
	}

	if f.HasPos {
		pos, err := ctx.evalExprInt(f.PosExpr)
		if err != nil {
			return expr.Value{}, false, err
		}
		if err := ctx.io.Seek(int(pos)); err != nil {
			return expr.Value{}, false, wrapEOF(f.Pos, err)
		}
	}

	if f.HasIO {
		return expr.Value{}, false, newNotImplementedErr(f.Pos, "io redirect is not implemented")
	}

	if f.HasProcess {
		return expr.Value{}, false, newNotImplementedErr(f.Pos, "process %q is not implemented", f.Process)
	}

	if f.Repeat.Kind != schema.RepeatNone {
		v, err := ctx.parseRepetition(f)
		return v, true, err
	}

	if len(f.Contents) > 0 {
		v, err := ctx.checkContents(f)
		return v, true, err
	}

	v, err := ctx.parseSingleValue(f)
	if err != nil {
		return expr.Value{}, false, err
	}
	return v, true, nil
}

// parseRepetition handles the three repetition modes: fixed count,
// until-end-of-stream, and until a predicate holds. The repeating
// sub-read always uses a copy of f with repetition cleared.
func (ctx *Context) parseRepetition(f *schema.FieldSpec) (expr.Value, error) {
	inner := *f
	inner.Repeat = schema.Repetition{}

	savedHasIndex, savedIndex := ctx.hasIndex, ctx.index
	savedHasLast, savedLast := ctx.hasLast, ctx.last
	defer func() {
		ctx.hasIndex, ctx.index = savedHasIndex, savedIndex
		ctx.hasLast, ctx.last = savedHasLast, savedLast
	}()

	var items []expr.Value

	switch f.Repeat.Kind {
	case schema.RepeatCount:
		n, err := ctx.evalExprInt(f.Repeat.CountExpr)
		if err != nil {
			return expr.Value{}, err
		}
		if n < 0 {
			return expr.Value{}, newParseErr(f.Pos, "repeat count must be non-negative, got %d", n)
		}
		for i := int64(0); i < n; i++ {
			ctx.hasIndex, ctx.index = true, i
			v, _, err := ctx.parseField(&inner)
			if err != nil {
				return expr.Value{}, err
			}
			items = append(items, v)
		}

	case schema.RepeatEOS:
		for i := int64(0); !ctx.io.IsEOF(); i++ {
			ctx.hasIndex, ctx.index = true, i
			v, _, err := ctx.parseField(&inner)
			if err != nil {
				return expr.Value{}, err
			}
			items = append(items, v)
		}

	case schema.RepeatUntil:
		for i := int64(0); ; i++ {
			ctx.hasIndex, ctx.index = true, i
			v, _, err := ctx.parseField(&inner)
			if err != nil {
				return expr.Value{}, err
			}
			items = append(items, v)
			ctx.hasLast, ctx.last = true, v
			stop, err := ctx.evalExprBool(f.Repeat.UntilExpr)
			if err != nil {
				return expr.Value{}, err
			}
			if stop || ctx.io.IsEOF() {
				break
			}
		}
	}

	return expr.Seq(items), nil
}

// checkContents reads len(f.Contents) bytes and verifies byte-by-byte
// equality against the expected value.
func (ctx *Context) checkContents(f *schema.FieldSpec) (expr.Value, error) {
	got, err := ctx.io.ReadBytes(len(f.Contents))
	if err != nil {
		return expr.Value{}, wrapEOF(f.Pos, err)
	}
	for i, want := range f.Contents {
		if got[i] != want {
			return expr.Value{}, newValidationErr(f.Pos, "contents mismatch at byte %d: want 0x%02x, got 0x%02x", i, want, got[i])
		}
	}
	return expr.Bytes(got), nil
}

// parseSingleValue reads one field's value: size-set, size-to-end,
// switch-type, builtin, or user-defined type, in that dispatch order.
func (ctx *Context) parseSingleValue(f *schema.FieldSpec) (expr.Value, error) {
	if f.HasSize {
		n, err := ctx.evalExprInt(f.SizeExpr)
		if err != nil {
			return expr.Value{}, err
		}
		if n < 0 {
			return expr.Value{}, newParseErr(f.Pos, "size must be non-negative, got %d", n)
		}
		return ctx.readSized(f, int(n))
	}

	if f.SizeEOS {
		remaining := ctx.io.Size() - ctx.io.Pos()
		return ctx.readSized(f, remaining)
	}

	if !f.Type.IsSet() {
		if f.Terminator.Set {
			return ctx.readTerminated(f, "")
		}
		return expr.Value{}, newParseErr(f.Pos, "field %q has no size, type, or terminator", f.ID)
	}

	if f.Type.IsSwitch() {
		ref, err := ctx.resolveSwitchType(f.Type.Switch)
		if err != nil {
			return expr.Value{}, err
		}
		return ctx.parseTypedNoSize(f, ref)
	}

	if b, ok := schema.LookupBuiltin(f.Type.Name); ok {
		switch {
		case b.IsStrZ:
			return ctx.readTerminated(f, f.Encoding)
		case b.IsStr:
			if f.Terminator.Set {
				return ctx.readTerminated(f, f.Encoding)
			}
			return expr.Value{}, newParseErr(f.Pos, "str requires a size or a terminator")
		default:
			return ctx.readBuiltin(f, b)
		}
	}

	return ctx.parseTypedNoSize(f, f.Type)
}

func (ctx *Context) readTerminated(f *schema.FieldSpec, encName string) (expr.Value, error) {
	tp := bitio.TermParams{
		Term:     f.Terminator.Term,
		Include:  f.Terminator.Include,
		Consume:  f.Terminator.Consume,
		EOSError: f.Terminator.EOSError,
	}
	raw, err := ctx.io.ReadBytesTerm(tp)
	if err != nil {
		return expr.Value{}, wrapEOF(f.Pos, err)
	}
	if f.Type.Name == "" && encName == "" && !isTextBuiltin(f) {
		return expr.Bytes(raw), nil
	}
	s, err := ctx.decodeText(f, raw)
	if err != nil {
		return expr.Value{}, err
	}
	return expr.Str(s), nil
}

func isTextBuiltin(f *schema.FieldSpec) bool {
	b, ok := schema.LookupBuiltin(f.Type.Name)
	return ok && (b.IsStr || b.IsStrZ)
}

// readSized reads a fixed-size field: a raw byte slice or decoded string
// when the target type is text or unspecified, otherwise a bounded
// sub-stream recursively parsed as the target type.
func (ctx *Context) readSized(f *schema.FieldSpec, n int) (expr.Value, error) {
	ref := f.Type
	if ref.IsSwitch() {
		resolved, err := ctx.resolveSwitchType(ref.Switch)
		if err != nil {
			return expr.Value{}, err
		}
		ref = resolved
	}

	if !ref.IsSet() {
		raw, err := ctx.io.ReadBytes(n)
		if err != nil {
			return expr.Value{}, wrapEOF(f.Pos, err)
		}
		return expr.Bytes(raw), nil
	}

	if b, ok := schema.LookupBuiltin(ref.Name); ok && (b.IsStr || b.IsStrZ) {
		raw, err := ctx.io.ReadBytes(n)
		if err != nil {
			return expr.Value{}, wrapEOF(f.Pos, err)
		}
		s, err := ctx.decodeText(f, raw)
		if err != nil {
			return expr.Value{}, err
		}
		return expr.Str(s), nil
	}

	sub, err := ctx.io.Substream(n)
	if err != nil {
		return expr.Value{}, wrapEOF(f.Pos, err)
	}
	return ctx.parseTypedIn(sub, f, ref)
}

func (ctx *Context) parseTypedIn(sub *bitio.Stream, f *schema.FieldSpec, ref schema.TypeRef) (expr.Value, error) {
	saved := ctx.io
	ctx.io = sub
	v, err := ctx.parseTypedNoSize(f, ref)
	ctx.io = saved
	return v, err
}

// parseTypedNoSize dispatches a type reference against the active stream
// with no size bound: a builtin reads directly, a user type recurses.
func (ctx *Context) parseTypedNoSize(f *schema.FieldSpec, ref schema.TypeRef) (expr.Value, error) {
	if ref.IsSwitch() {
		resolved, err := ctx.resolveSwitchType(ref.Switch)
		if err != nil {
			return expr.Value{}, err
		}
		ref = resolved
	}

	if b, ok := schema.LookupBuiltin(ref.Name); ok {
		return ctx.readBuiltinNamed(f, ref.Name, b)
	}

	target, ok := ctx.current.Type.ResolveType(ref.Name)
	if !ok {
		return expr.Value{}, newParseErr(f.Pos, "unknown type %q", ref.Name)
	}
	obj, err := ctx.parseNested(target)
	if err != nil {
		return expr.Value{}, err
	}
	return expr.Object(obj), nil
}

// parseNested instantiates target inheriting the caller's nested-type and
// enum scope by construction (schema.TypeDef.Parent is the lexical
// chain). The runtime parent pointer is ctx.current at the time of the
// call.
func (ctx *Context) parseNested(target *schema.TypeDef) (*Object, error) {
	obj := newObject(ctx, target, ctx.current)
	saved := ctx.current
	ctx.current = obj
	err := ctx.populate(obj, nil)
	ctx.current = saved
	return obj, err
}

func (ctx *Context) resolveSwitchType(sw *schema.SwitchType) (schema.TypeRef, error) {
	v, err := ctx.evalExprValue(sw.DiscriminantExpr)
	if err != nil {
		return schema.TypeRef{}, err
	}
	key := v.AsString()
	if ref, ok := sw.Cases[key]; ok {
		return ref, nil
	}
	if sw.Default != nil {
		return *sw.Default, nil
	}
	return schema.TypeRef{}, newParseErr(sw.Pos, "switch discriminant %q matches no case and has no default", key)
}

// readBuiltin dispatches a non-string/strz builtin.
func (ctx *Context) readBuiltin(f *schema.FieldSpec, b schema.Builtin) (expr.Value, error) {
	return ctx.readBuiltinNamed(f, f.Type.Name, b)
}

func (ctx *Context) readBuiltinNamed(f *schema.FieldSpec, name string, b schema.Builtin) (expr.Value, error) {
	if b.Width == 1 {
		if b.Signed {
			v, err := ctx.io.ReadS1()
			if err != nil {
				return expr.Value{}, wrapEOF(f.Pos, err)
			}
			return expr.IntFromInt64(int64(v)), nil
		}
		v, err := ctx.io.ReadU1()
		if err != nil {
			return expr.Value{}, wrapEOF(f.Pos, err)
		}
		return expr.IntFromInt64(int64(v)), nil
	}

	endian, err := ctx.resolveEndian(b.Endian)
	if err != nil {
		return expr.Value{}, err
	}
	be := toBitioEndian(endian)

	if b.Float {
		if b.Width == 4 {
			v, err := ctx.io.ReadF4(be)
			if err != nil {
				return expr.Value{}, wrapEOF(f.Pos, err)
			}
			return expr.Float(float64(v)), nil
		}
		v, err := ctx.io.ReadF8(be)
		if err != nil {
			return expr.Value{}, wrapEOF(f.Pos, err)
		}
		return expr.Float(v), nil
	}

	if b.Signed {
		v, err := ctx.io.ReadInt(b.Width, be)
		if err != nil {
			return expr.Value{}, wrapEOF(f.Pos, err)
		}
		return expr.IntFromInt64(v), nil
	}
	v, err := ctx.io.ReadUint(b.Width, be)
	if err != nil {
		return expr.Value{}, wrapEOF(f.Pos, err)
	}
	return expr.Int(new(big.Int).SetUint64(v)), nil
}

// resolveEndian applies the endianness inheritance rule: an unsuffixed
// name uses the nearest enclosing meta's endianness, including a dynamic
// switch, defaulting to little-endian.
func (ctx *Context) resolveEndian(explicit schema.Endian) (schema.Endian, error) {
	if explicit != schema.EndianInherit {
		return explicit, nil
	}
	for cur := ctx.current.Type; cur != nil; cur = cur.Parent {
		if cur.Meta.Endian != schema.EndianInherit {
			return cur.Meta.Endian, nil
		}
		if cur.Meta.EndianSwitch != nil {
			v, err := ctx.evalExprValue(cur.Meta.EndianSwitch.DiscriminantExpr)
			if err != nil {
				return schema.EndianInherit, err
			}
			if e, ok := cur.Meta.EndianForCase(v.AsString()); ok {
				return e, nil
			}
		}
	}
	return schema.LittleEndian, nil
}

func toBitioEndian(e schema.Endian) bitio.Endian {
	if e == schema.BigEndian {
		return bitio.BigEndian
	}
	return bitio.LittleEndian
}

func (ctx *Context) decodeText(f *schema.FieldSpec, raw []byte) (string, error) {
	encName := f.Encoding
	if encName == "" {
		encName = ctx.current.Type.EffectiveEncoding()
	}
	dec, err := textenc.Lookup(encName)
	if err != nil {
		return "", newParseErr(f.Pos, "%s", err.Error())
	}
	s, err := dec.Decode(raw)
	if err != nil {
		return "", newParseErr(f.Pos, "text decode failed: %s", err.Error())
	}
	return s, nil
}
