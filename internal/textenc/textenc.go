// Package textenc resolves a schema's string encoding name (e.g. "UTF-8",
// "UTF-16LE", "ASCII", "ISO-8859-1", "Shift_JIS") to a pkg/bitio.Decoder,
// grounding the schema model's default and per-field text encoding
// attributes on golang.org/x/text's encoding registry instead of
// hand-rolling code page tables.
package textenc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/blockberries/binterp/pkg/bitio"
)

// xtextDecoder adapts a golang.org/x/text/encoding.Encoding to
// bitio.Decoder.
type xtextDecoder struct {
	enc encoding.Encoding
}

func (d xtextDecoder) Decode(b []byte) (string, error) {
	out, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("textenc: decode: %w", err)
	}
	return string(out), nil
}

// utf8Decoder passes bytes through as-is; x/text has no "do nothing"
// encoding.Encoding for UTF-8 proper, and construction of one adds
// overhead this common path does not need.
type utf8Decoder struct{}

func (utf8Decoder) Decode(b []byte) (string, error) { return string(b), nil }

// table maps canonical encoding names to a Decoder. Lookup normalizes
// case and strips separators so "utf-8", "UTF8", and "UTF_8" all match.
var table = map[string]bitio.Decoder{
	"utf8":              utf8Decoder{},
	"ascii":             xtextDecoder{charmap.ISO8859_1}, // ASCII is a strict subset; reuse the decoder
	"iso88591":          xtextDecoder{charmap.ISO8859_1},
	"iso88592":          xtextDecoder{charmap.ISO8859_2},
	"iso88595":          xtextDecoder{charmap.ISO8859_5},
	"iso88599":          xtextDecoder{charmap.ISO8859_9},
	"windows1250":       xtextDecoder{charmap.Windows1250},
	"windows1251":       xtextDecoder{charmap.Windows1251},
	"windows1252":       xtextDecoder{charmap.Windows1252},
	"utf16le":           xtextDecoder{unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"utf16be":           xtextDecoder{unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	"utf16":             xtextDecoder{unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	"shiftjis":          xtextDecoder{japanese.ShiftJIS},
	"eucjp":             xtextDecoder{japanese.EUCJP},
	"euckr":             xtextDecoder{korean.EUCKR},
	"gbk":               xtextDecoder{simplifiedchinese.GBK},
	"gb2312":            xtextDecoder{simplifiedchinese.HZGB2312},
	"big5":              xtextDecoder{traditionalchinese.Big5},
}

func normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
	return name
}

// Lookup resolves a schema encoding name to a Decoder. An empty name
// resolves to UTF-8, matching the default when no encoding is declared
// anywhere in the enclosing scope chain.
func Lookup(name string) (bitio.Decoder, error) {
	if name == "" {
		return utf8Decoder{}, nil
	}
	if dec, ok := table[normalize(name)]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("textenc: unknown encoding %q", name)
}
