package font

import (
	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/resolver"
)

// Type0Font is a composite font. Its glyph metrics come from the single
// CIDFont in /DescendantFonts.
type Type0Font struct {
	BaseFont string
	// Encoding is the CMap name, e.g. Identity-H, or "" for an embedded CMap
	Encoding     string
	DefaultWidth float64
	ToUnicode    *CMap
	// Registry and Ordering come from the descendant's CIDSystemInfo
	Registry string
	Ordering string

	widths     map[int]float64
	descendant bool
	codeBytes  int
}

func loadType0(acc resolver.Accessor, dict *core.Dict) *Type0Font {
	f := &Type0Font{DefaultWidth: 1000, widths: make(map[int]float64), codeBytes: 2}
	if name, ok := acc.GetName(dict, "BaseFont"); ok {
		f.BaseFont = string(name)
	}
	switch enc := acc.Get(dict, "Encoding").(type) {
	case core.Name:
		f.Encoding = string(enc)
	case *core.Stream:
		if cm := ParseCMap(acc.Resolver().StreamData(acc.Context(), enc)); cm.CodeBytes() > 0 {
			f.codeBytes = cm.CodeBytes()
		}
	}
	f.ToUnicode = loadToUnicode(acc, dict)

	kids, ok := acc.GetArray(dict, "DescendantFonts")
	if !ok || len(kids) == 0 {
		return f
	}
	cid, ok := resolver.AsDict(acc.Resolve(kids[0]))
	if !ok {
		return f
	}
	f.descendant = true
	if dw, ok := acc.GetNumber(cid, "DW"); ok {
		f.DefaultWidth = dw
	}
	if info, ok := acc.GetDict(cid, "CIDSystemInfo"); ok {
		if s, ok := acc.GetString(info, "Registry"); ok {
			f.Registry = string(s)
		}
		if s, ok := acc.GetString(info, "Ordering"); ok {
			f.Ordering = string(s)
		}
	}
	if w, ok := acc.GetArray(cid, "W"); ok {
		f.parseW(acc, w)
	}
	return f
}

// parseW reads a /W array. Entries are either "c [w1 w2 ...]", giving
// widths for consecutive CIDs from c, or "cfirst clast w".
func (f *Type0Font) parseW(acc resolver.Accessor, w core.Array) {
	for i := 0; i < len(w); {
		first, ok := core.Number(acc.Resolve(w[i]))
		if !ok || i+1 >= len(w) {
			return
		}
		switch next := acc.Resolve(w[i+1]).(type) {
		case core.Array:
			for j, elem := range next {
				if width, ok := core.Number(acc.Resolve(elem)); ok {
					f.widths[int(first)+j] = width
				}
			}
			i += 2
		default:
			last, ok := core.Number(next)
			if !ok || i+2 >= len(w) {
				return
			}
			width, ok := core.Number(acc.Resolve(w[i+2]))
			if !ok {
				return
			}
			// cap absurd ranges from damaged files
			if last-first > 0xFFFF {
				last = first + 0xFFFF
			}
			for c := int(first); c <= int(last); c++ {
				f.widths[c] = width
			}
			i += 3
		}
	}
}

// GlyphWidth treats the code as the CID, which holds for the Identity
// encodings.
func (f *Type0Font) GlyphWidth(code int) float64 {
	if w, ok := f.widths[code]; ok {
		return w
	}
	return f.DefaultWidth
}

// IsEmpty reports a composite font without a usable descendant
func (f *Type0Font) IsEmpty() bool { return !f.descendant }

func (f *Type0Font) CodeBytes() int { return f.codeBytes }

// IsVertical reports the Identity-V writing mode
func (f *Type0Font) IsVertical() bool {
	return f.Encoding == "Identity-V"
}

// Text prefers the ToUnicode CMap. Codes it does not cover are read as
// UTF-16BE code units.
func (f *Type0Font) Text(codes []int) string {
	var out []byte
	var units []byte
	flush := func() {
		if len(units) > 0 {
			out = append(out, DecodeUTF16BE(units)...)
			units = units[:0]
		}
	}
	for _, code := range codes {
		if s, ok := f.ToUnicode.Lookup(uint32(code)); ok {
			flush()
			out = append(out, s...)
			continue
		}
		units = append(units, byte(code>>8), byte(code))
	}
	flush()
	return NormalizeUnicode(string(out))
}
