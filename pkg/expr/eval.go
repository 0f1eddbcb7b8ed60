package expr

import (
	"math"
	"math/big"
)

// Eval walks ast against r and produces a value. Semantics follow the
// contracts on each Node type; Eval never mutates ast.
func Eval(n Node, r Resolver) (Value, error) {
	switch t := n.(type) {
	case *IntLit:
		v, ok := new(big.Int).SetString(trimHexPrefix(t.Text), hexBase(t.Text))
		if !ok {
			return Value{}, evalErrf(t.pos, "malformed integer literal %q", t.Text)
		}
		return Int(v), nil

	case *FloatLit:
		f, err := parseFloat(t.Text)
		if err != nil {
			return Value{}, evalErrf(t.pos, "malformed float literal %q", t.Text)
		}
		return Float(f), nil

	case *StringLit:
		return Str(t.Value), nil

	case *BoolLit:
		return Bool(t.Value), nil

	case *Ident:
		v, found, err := r.ResolveIdent(t.Name)
		if err != nil {
			return Value{}, err
		}
		if !found {
			return Undefined, nil
		}
		return v, nil

	case *UnaryOp:
		return evalUnary(t, r)

	case *BinOp:
		return evalBinary(t, r)

	case *Ternary:
		cond, err := Eval(t.Cond, r)
		if err != nil {
			return Value{}, err
		}
		if cond.Truthy() {
			return Eval(t.Then, r)
		}
		return Eval(t.Else, r)

	case *Member:
		target, err := Eval(t.Target, r)
		if err != nil {
			return Value{}, err
		}
		if target.IsUndefined() {
			return Value{}, evalErrf(t.pos, "cannot access member %q of undefined", t.Name)
		}
		if target.Kind != KindObject {
			return Value{}, evalErrf(t.pos, "cannot access member %q of non-object value", t.Name)
		}
		return r.Member(target, t.Name)

	case *Index:
		target, err := Eval(t.Target, r)
		if err != nil {
			return Value{}, err
		}
		idx, err := Eval(t.Index, r)
		if err != nil {
			return Value{}, err
		}
		if target.IsUndefined() {
			return Value{}, evalErrf(t.pos, "cannot index undefined")
		}
		switch target.Kind {
		case KindSeq:
			i, ok := idx.AsBigInt()
			if !ok || !i.IsInt64() {
				return Value{}, evalErrf(t.pos, "index must be an integer")
			}
			n := i.Int64()
			if n < 0 || n >= int64(len(target.Seq)) {
				return Undefined, nil
			}
			return target.Seq[n], nil
		case KindBytes:
			i, ok := idx.AsBigInt()
			if !ok || !i.IsInt64() {
				return Value{}, evalErrf(t.pos, "index must be an integer")
			}
			n := i.Int64()
			if n < 0 || n >= int64(len(target.Bytes)) {
				return Undefined, nil
			}
			return IntFromInt64(int64(target.Bytes[n])), nil
		default:
			return r.Index(target, idx)
		}

	case *MethodCall:
		target, err := Eval(t.Target, r)
		if err != nil {
			return Value{}, err
		}
		return evalMethodCall(t, target, r)

	case *EnumRef:
		return r.EnumLookup(t.Enum, t.Member)

	default:
		return Value{}, evalErrf(Position{}, "unhandled expression node")
	}
}

func hexBase(text string) int {
	if len(text) > 1 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		return 16
	}
	return 10
}

func trimHexPrefix(text string) string {
	if len(text) > 1 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		return text[2:]
	}
	return text
}

func parseFloat(text string) (float64, error) {
	var f float64
	n, err := parseFloatScan(text, &f)
	if err != nil || n != len(text) {
		return 0, evalErrf(Position{}, "malformed float")
	}
	return f, nil
}

// parseFloatScan is a tiny hand-rolled float parser so this package does
// not need strconv for a literal whose grammar the lexer already
// validated (digits, one optional '.', optional exponent).
func parseFloatScan(text string, out *float64) (int, error) {
	var intPart, fracPart int64
	var fracDigits int
	i := 0
	neg := false
	if i < len(text) && (text[i] == '-' || text[i] == '+') {
		neg = text[i] == '-'
		i++
	}
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		intPart = intPart*10 + int64(text[i]-'0')
		i++
	}
	if i < len(text) && text[i] == '.' {
		i++
		for i < len(text) && text[i] >= '0' && text[i] <= '9' {
			fracPart = fracPart*10 + int64(text[i]-'0')
			fracDigits++
			i++
		}
	}
	val := float64(intPart) + float64(fracPart)/math.Pow(10, float64(fracDigits))
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		i++
		expNeg := false
		if i < len(text) && (text[i] == '+' || text[i] == '-') {
			expNeg = text[i] == '-'
			i++
		}
		var exp int64
		for i < len(text) && text[i] >= '0' && text[i] <= '9' {
			exp = exp*10 + int64(text[i]-'0')
			i++
		}
		if expNeg {
			exp = -exp
		}
		val *= math.Pow(10, float64(exp))
	}
	if neg {
		val = -val
	}
	*out = val
	return i, nil
}

func evalUnary(t *UnaryOp, r Resolver) (Value, error) {
	v, err := Eval(t.Operand, r)
	if err != nil {
		return Value{}, err
	}
	switch t.Op {
	case TokMinus:
		if !v.IsNumeric() {
			return Value{}, evalErrf(t.pos, "unary - requires a numeric operand")
		}
		if v.Kind == KindInt {
			return Int(new(big.Int).Neg(v.Int)), nil
		}
		return Float(-v.Float), nil
	case TokNot:
		return Bool(!v.Truthy()), nil
	default:
		return Value{}, evalErrf(t.pos, "unsupported unary operator")
	}
}

func evalBinary(t *BinOp, r Resolver) (Value, error) {
	// Logical operators short-circuit and must not evaluate Right eagerly.
	if t.Op == TokAnd || t.Op == TokOr {
		left, err := Eval(t.Left, r)
		if err != nil {
			return Value{}, err
		}
		if t.Op == TokAnd && !left.Truthy() {
			return Bool(false), nil
		}
		if t.Op == TokOr && left.Truthy() {
			return Bool(true), nil
		}
		right, err := Eval(t.Right, r)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	}

	left, err := Eval(t.Left, r)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(t.Right, r)
	if err != nil {
		return Value{}, err
	}

	switch t.Op {
	case TokPlus:
		return evalAdd(t.pos, left, right)
	case TokMinus, TokStar, TokSlash, TokPercent:
		return evalArith(t.pos, t.Op, left, right)
	case TokEq, TokNe:
		return evalEquality(t.pos, t.Op, left, right)
	case TokLt, TokLe, TokGt, TokGe:
		return evalRelational(t.pos, t.Op, left, right)
	case TokAmp, TokPipe, TokCaret, TokShl, TokShr:
		return evalBitwise(t.pos, t.Op, left, right)
	default:
		return Value{}, evalErrf(t.pos, "unsupported binary operator")
	}
}

func evalAdd(pos Position, left, right Value) (Value, error) {
	if left.Kind == KindStr || right.Kind == KindStr {
		return Str(left.AsString() + right.AsString()), nil
	}
	return evalArith(pos, TokPlus, left, right)
}

func evalArith(pos Position, op TokenType, left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, evalErrf(pos, "arithmetic operator requires numeric operands")
	}
	if left.Kind == KindInt && right.Kind == KindInt {
		switch op {
		case TokPlus:
			return Int(new(big.Int).Add(left.Int, right.Int)), nil
		case TokMinus:
			return Int(new(big.Int).Sub(left.Int, right.Int)), nil
		case TokStar:
			return Int(new(big.Int).Mul(left.Int, right.Int)), nil
		case TokSlash:
			if right.Int.Sign() == 0 {
				return Value{}, evalErrf(pos, "division by zero")
			}
			q, rem := new(big.Int).QuoRem(left.Int, right.Int, new(big.Int))
			if rem.Sign() == 0 {
				return Int(q), nil
			}
			lf, _ := new(big.Float).SetInt(left.Int).Float64()
			rf, _ := new(big.Float).SetInt(right.Int).Float64()
			return Float(lf / rf), nil
		case TokPercent:
			if right.Int.Sign() == 0 {
				return Value{}, evalErrf(pos, "modulo by zero")
			}
			// big.Int.Mod is Euclidean (always non-negative); shift a
			// non-zero result into (divisor, 0] for a negative divisor so
			// the result is floored, matching the float path below.
			m := new(big.Int).Mod(left.Int, right.Int)
			if m.Sign() != 0 && right.Int.Sign() < 0 {
				m.Add(m, right.Int)
			}
			return Int(m), nil
		}
	}
	lf, _ := left.AsFloat64()
	rf, _ := right.AsFloat64()
	switch op {
	case TokPlus:
		return Float(lf + rf), nil
	case TokMinus:
		return Float(lf - rf), nil
	case TokStar:
		return Float(lf * rf), nil
	case TokSlash:
		if rf == 0 {
			return Value{}, evalErrf(pos, "division by zero")
		}
		return Float(lf / rf), nil
	case TokPercent:
		if rf == 0 {
			return Value{}, evalErrf(pos, "modulo by zero")
		}
		m := math.Mod(lf, rf)
		if m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return Float(m), nil
	}
	return Value{}, evalErrf(pos, "unsupported arithmetic operator")
}

func evalEquality(pos Position, op TokenType, left, right Value) (Value, error) {
	eq := valuesEqual(left, right)
	if op == TokNe {
		eq = !eq
	}
	return Bool(eq), nil
}

func valuesEqual(left, right Value) bool {
	if left.IsNumeric() && right.IsNumeric() {
		if left.Kind == KindInt && right.Kind == KindInt {
			return left.Int.Cmp(right.Int) == 0
		}
		lf, _ := left.AsFloat64()
		rf, _ := right.AsFloat64()
		return lf == rf
	}
	if left.Kind != right.Kind {
		return false
	}
	switch left.Kind {
	case KindStr:
		return left.Str == right.Str
	case KindBool:
		return left.Bool == right.Bool
	case KindBytes:
		if len(left.Bytes) != len(right.Bytes) {
			return false
		}
		for i := range left.Bytes {
			if left.Bytes[i] != right.Bytes[i] {
				return false
			}
		}
		return true
	case KindUndefined:
		return true
	default:
		return false
	}
}

func evalRelational(pos Position, op TokenType, left, right Value) (Value, error) {
	var cmp int
	switch {
	case left.IsNumeric() && right.IsNumeric():
		if left.Kind == KindInt && right.Kind == KindInt {
			cmp = left.Int.Cmp(right.Int)
		} else {
			lf, _ := left.AsFloat64()
			rf, _ := right.AsFloat64()
			switch {
			case lf < rf:
				cmp = -1
			case lf > rf:
				cmp = 1
			default:
				cmp = 0
			}
		}
	case left.Kind == KindStr && right.Kind == KindStr:
		switch {
		case left.Str < right.Str:
			cmp = -1
		case left.Str > right.Str:
			cmp = 1
		default:
			cmp = 0
		}
	default:
		return Value{}, evalErrf(pos, "relational operator requires two numbers or two strings")
	}
	switch op {
	case TokLt:
		return Bool(cmp < 0), nil
	case TokLe:
		return Bool(cmp <= 0), nil
	case TokGt:
		return Bool(cmp > 0), nil
	case TokGe:
		return Bool(cmp >= 0), nil
	default:
		return Value{}, evalErrf(pos, "unsupported relational operator")
	}
}

func evalBitwise(pos Position, op TokenType, left, right Value) (Value, error) {
	li, ok1 := left.AsBigInt()
	ri, ok2 := right.AsBigInt()
	if !ok1 || !ok2 {
		return Value{}, evalErrf(pos, "bitwise operator requires numeric operands")
	}
	switch op {
	case TokAmp:
		return Int(new(big.Int).And(li, ri)), nil
	case TokPipe:
		return Int(new(big.Int).Or(li, ri)), nil
	case TokCaret:
		return Int(new(big.Int).Xor(li, ri)), nil
	case TokShl:
		if !ri.IsInt64() || ri.Int64() < 0 {
			return Value{}, evalErrf(pos, "shift amount out of range")
		}
		return Int(new(big.Int).Lsh(li, uint(ri.Int64()))), nil
	case TokShr:
		if !ri.IsInt64() || ri.Int64() < 0 {
			return Value{}, evalErrf(pos, "shift amount out of range")
		}
		return Int(new(big.Int).Rsh(li, uint(ri.Int64()))), nil
	default:
		return Value{}, evalErrf(pos, "unsupported bitwise operator")
	}
}

func evalMethodCall(t *MethodCall, target Value, r Resolver) (Value, error) {
	switch t.Name {
	case "length", "size":
		n, ok := target.Length()
		if !ok {
			return Value{}, evalErrf(t.pos, "%s is not defined for this value", t.Name)
		}
		return IntFromInt64(int64(n)), nil
	case "to_i":
		if !target.IsNumeric() {
			return Value{}, evalErrf(t.pos, "to_i requires a numeric value")
		}
		i, _ := target.AsBigInt()
		return Int(i), nil
	case "to_s":
		return Str(target.AsString()), nil
	default:
		return Value{}, evalErrf(t.pos, "unknown method %q", t.Name)
	}
}
