package font

import (
	"github.com/pkg/errors"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/resolver"
)

// defaultWidth is used when a font gives no width for a code at all
const defaultWidth = 500.0

// ErrNotFont is returned by Load when the resource is not a dictionary.
var ErrNotFont = errors.New("not a font dictionary")

// Font is the part of a font the content stream interpreter needs.
type Font interface {
	// GlyphWidth returns the horizontal advance of a character code in
	// thousandths of text space.
	GlyphWidth(code int) float64
	// IsEmpty reports a font that cannot show any glyph.
	IsEmpty() bool
	// CodeBytes returns the number of bytes in each character code.
	CodeBytes() int
	// Text maps character codes to Unicode text.
	Text(codes []int) string
}

// Loader builds a Font from a font resource.
type Loader func(acc resolver.Accessor, obj core.Object) (Font, error)

// Load reads a font dictionary. Type0 and Type3 fonts get their own
// types; every other subtype is treated as a simple font.
func Load(acc resolver.Accessor, obj core.Object) (Font, error) {
	dict, ok := resolver.AsDict(acc.Resolve(obj))
	if !ok {
		return nil, errors.Wrapf(ErrNotFont, "got %s", kindOf(obj))
	}
	subtype, _ := acc.GetName(dict, "Subtype")
	switch subtype {
	case "Type0":
		return loadType0(acc, dict), nil
	case "Type3":
		return loadType3(acc, dict), nil
	}
	return loadSimple(acc, dict), nil
}

// Codes splits the bytes of a shown string into character codes of
// f.CodeBytes() bytes each. A trailing partial code is dropped.
func Codes(f Font, s []byte) []int {
	n := f.CodeBytes()
	if n <= 1 {
		codes := make([]int, len(s))
		for i, b := range s {
			codes[i] = int(b)
		}
		return codes
	}
	codes := make([]int, 0, len(s)/n)
	for i := 0; i+n <= len(s); i += n {
		code := 0
		for _, b := range s[i : i+n] {
			code = code<<8 | int(b)
		}
		codes = append(codes, code)
	}
	return codes
}

func kindOf(obj core.Object) string {
	if obj == nil {
		return "nothing"
	}
	return obj.Type().String()
}

// loadToUnicode parses the /ToUnicode stream, or returns nil.
func loadToUnicode(acc resolver.Accessor, dict *core.Dict) *CMap {
	s, ok := acc.GetStream(dict, "ToUnicode")
	if !ok {
		return nil
	}
	data := acc.Resolver().StreamData(acc.Context(), s)
	if len(data) == 0 {
		return nil
	}
	return ParseCMap(data)
}

// loadEncoding reads a simple font's /Encoding: a predefined name, or a
// dictionary with /BaseEncoding and /Differences.
func loadEncoding(acc resolver.Accessor, dict *core.Dict) *Encoding {
	switch enc := acc.Get(dict, "Encoding").(type) {
	case core.Name:
		return GetEncoding(string(enc))
	case *core.Dict:
		base := WinAnsiEncoding
		if name, ok := acc.GetName(enc, "BaseEncoding"); ok {
			base = GetEncoding(string(name))
		}
		diffs, ok := acc.GetArray(enc, "Differences")
		if !ok {
			return base
		}
		resolved := make(core.Array, len(diffs))
		for i, d := range diffs {
			resolved[i] = acc.Resolve(d)
		}
		return base.WithDifferences(resolved)
	}
	return WinAnsiEncoding
}

// loadWidths reads /FirstChar and /Widths.
func loadWidths(acc resolver.Accessor, dict *core.Dict) (int, []float64) {
	first, _ := acc.GetInt(dict, "FirstChar")
	arr, ok := acc.GetArray(dict, "Widths")
	if !ok {
		return first, nil
	}
	widths := make([]float64, len(arr))
	for i, w := range arr {
		widths[i], _ = core.Number(acc.Resolve(w))
	}
	return first, widths
}

// decodeSimple maps one-byte codes through a ToUnicode CMap, falling
// back to the encoding.
func decodeSimple(codes []int, toUnicode *CMap, enc *Encoding) string {
	buf := make([]byte, 0, len(codes))
	var out []byte
	flush := func() {
		if len(buf) > 0 {
			out = append(out, enc.DecodeString(buf)...)
			buf = buf[:0]
		}
	}
	for _, code := range codes {
		if s, ok := toUnicode.Lookup(uint32(code)); ok {
			flush()
			out = append(out, s...)
			continue
		}
		buf = append(buf, byte(code))
	}
	flush()
	return NormalizeUnicode(string(out))
}
