package schema

import "strings"

// Builtin describes one member of the closed built-in type name set:
// width-signedness-endianness composites (u1,s1; u2,u4,u8,s2,s4,s8 each
// with optional le/be suffix; f4,f8 with le/be) plus str and strz.
type Builtin struct {
	Width   int // byte width: 1, 2, 4, or 8
	Signed  bool
	Float   bool
	Endian  Endian // LittleEndian/BigEndian if suffixed, EndianInherit otherwise
	IsStr   bool
	IsStrZ  bool
}

// builtinTable enumerates every valid spelling once, rather than parsing
// the name procedurally — the set is closed and small enough that a table
// is both clearer and immune to accidentally accepting e.g. "u3be".
var builtinTable = func() map[string]Builtin {
	t := map[string]Builtin{
		"u1": {Width: 1, Signed: false},
		"s1": {Width: 1, Signed: true},
		"str":  {IsStr: true},
		"strz": {IsStrZ: true},
	}
	for _, w := range []int{2, 4, 8} {
		for _, signed := range []bool{false, true} {
			base := "u"
			if signed {
				base = "s"
			}
			name := base + itoa(w)
			t[name] = Builtin{Width: w, Signed: signed, Endian: EndianInherit}
			t[name+"le"] = Builtin{Width: w, Signed: signed, Endian: LittleEndian}
			t[name+"be"] = Builtin{Width: w, Signed: signed, Endian: BigEndian}
		}
	}
	for _, w := range []int{4, 8} {
		name := "f" + itoa(w)
		t[name] = Builtin{Width: w, Float: true, Endian: EndianInherit}
		t[name+"le"] = Builtin{Width: w, Float: true, Endian: LittleEndian}
		t[name+"be"] = Builtin{Width: w, Float: true, Endian: BigEndian}
	}
	return t
}()

func itoa(n int) string {
	// small closed set of widths (1,2,4,8); avoid importing strconv for one digit
	switch n {
	case 1:
		return "1"
	case 2:
		return "2"
	case 4:
		return "4"
	case 8:
		return "8"
	default:
		return "?"
	}
}

// LookupBuiltin resolves a type name to its Builtin description. The
// second return value is false for user-defined type names and switch
// types, which are not in the closed built-in set.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinTable[strings.ToLower(name)]
	return b, ok
}

// IsBuiltinName reports whether name is one of the closed built-in
// spellings.
func IsBuiltinName(name string) bool {
	_, ok := builtinTable[strings.ToLower(name)]
	return ok
}
