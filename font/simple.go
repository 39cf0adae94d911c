package font

import (
	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/resolver"
)

// SimpleFont is a font with one-byte codes: Type1, MMType1 or TrueType.
type SimpleFont struct {
	BaseFont     string
	Subtype      string
	FirstChar    int
	Widths       []float64
	MissingWidth float64
	Encoding     *Encoding
	ToUnicode    *CMap

	standard    standardMetrics
	hasStandard bool
}

func loadSimple(acc resolver.Accessor, dict *core.Dict) *SimpleFont {
	f := &SimpleFont{}
	if name, ok := acc.GetName(dict, "BaseFont"); ok {
		f.BaseFont = string(name)
	}
	if name, ok := acc.GetName(dict, "Subtype"); ok {
		f.Subtype = string(name)
	}
	f.FirstChar, f.Widths = loadWidths(acc, dict)
	if fd, ok := acc.GetDict(dict, "FontDescriptor"); ok {
		f.MissingWidth, _ = acc.GetNumber(fd, "MissingWidth")
	}
	f.Encoding = loadEncoding(acc, dict)
	f.ToUnicode = loadToUnicode(acc, dict)
	f.standard, f.hasStandard = lookupStandard(f.BaseFont)
	return f
}

// GlyphWidth uses /Widths when the font has them, then the standard 14
// metrics, then /MissingWidth.
func (f *SimpleFont) GlyphWidth(code int) float64 {
	if f.Widths != nil {
		if i := code - f.FirstChar; i >= 0 && i < len(f.Widths) {
			return f.Widths[i]
		}
		return f.MissingWidth
	}
	if f.hasStandard {
		if w, ok := f.standard.width(code); ok {
			return w
		}
	}
	if f.MissingWidth > 0 {
		return f.MissingWidth
	}
	return defaultWidth
}

func (f *SimpleFont) IsEmpty() bool  { return false }
func (f *SimpleFont) CodeBytes() int { return 1 }

func (f *SimpleFont) Text(codes []int) string {
	return decodeSimple(codes, f.ToUnicode, f.Encoding)
}
