package font

import (
	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/resolver"
)

// Type3Font is a font whose glyphs are content streams. Widths are in
// glyph space and are mapped to text space by FontMatrix.
type Type3Font struct {
	FontMatrix model.Matrix
	FirstChar  int
	Widths     []float64
	Encoding   *Encoding
	ToUnicode  *CMap
	// CharProcs lists the glyph procedure names
	CharProcs []string
}

func loadType3(acc resolver.Accessor, dict *core.Dict) *Type3Font {
	f := &Type3Font{FontMatrix: model.Scale(0.001, 0.001)}
	if vals, ok := acc.Floats(dict.Get("FontMatrix")); ok {
		if m, ok := model.MatrixFrom(vals); ok {
			f.FontMatrix = m
		}
	}
	f.FirstChar, f.Widths = loadWidths(acc, dict)
	f.Encoding = loadEncoding(acc, dict)
	f.ToUnicode = loadToUnicode(acc, dict)
	if procs, ok := acc.GetDict(dict, "CharProcs"); ok {
		f.CharProcs = procs.Keys()
	}
	return f
}

// GlyphWidth scales the glyph space width by the font matrix.
func (f *Type3Font) GlyphWidth(code int) float64 {
	i := code - f.FirstChar
	if i < 0 || i >= len(f.Widths) {
		return 0
	}
	return f.Widths[i] * f.FontMatrix[0] * 1000
}

// IsEmpty reports a font with no glyph procedures
func (f *Type3Font) IsEmpty() bool { return len(f.CharProcs) == 0 }

func (f *Type3Font) CodeBytes() int { return 1 }

func (f *Type3Font) Text(codes []int) string {
	return decodeSimple(codes, f.ToUnicode, f.Encoding)
}
