package contentstream

import (
	"github.com/pkg/errors"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/font"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/resolver"
	"github.com/tsawler/pdfexec/resources"
)

func opBeginText(f *frame, _ []core.Object) error {
	if f.inText {
		f.warnf(core.WarnState, "BT inside a text object")
	}
	f.inText = true
	f.gs().BeginText()
	return nil
}

func opEndText(f *frame, _ []core.Object) error {
	if !f.inText {
		f.warnf(core.WarnState, "ET outside a text object")
	}
	f.inText = false
	return nil
}

// textParam builds an operator that sets one number of the text state.
func textParam(set func(f *frame, v float64)) func(*frame, []core.Object) error {
	return func(f *frame, args []core.Object) error {
		v, err := number(args[0])
		if err != nil {
			return err
		}
		set(f, v)
		return nil
	}
}

var (
	opCharSpacing       = textParam(func(f *frame, v float64) { f.gs().Text.CharSpacing = v })
	opWordSpacing       = textParam(func(f *frame, v float64) { f.gs().Text.WordSpacing = v })
	opHorizontalScaling = textParam(func(f *frame, v float64) { f.gs().Text.HorizontalScaling = v })
	opLeading           = textParam(func(f *frame, v float64) { f.gs().Text.Leading = v })
	opRise              = textParam(func(f *frame, v float64) { f.gs().Text.Rise = v })
)

func opRenderMode(f *frame, args []core.Object) error {
	v, err := number(args[0])
	if err != nil {
		return err
	}
	if v < 0 || v > 7 {
		return errors.Wrapf(errOperands, "render mode %v out of range", v)
	}
	f.gs().Text.RenderMode = int(v)
	return nil
}

func opFont(f *frame, args []core.Object) error {
	n, err := name(args[0])
	if err != nil {
		return err
	}
	size, err := number(args[1])
	if err != nil {
		return err
	}
	t := &f.gs().Text
	t.FontName = n
	t.FontSize = size
	t.Font = nil
	if fnt := f.fontNamed(n); fnt != nil {
		t.Font = fnt
	}
	return nil
}

// fontNamed resolves a font resource and loads it once per execution.
// It returns nil for a font that cannot show text.
func (f *frame) fontNamed(n string) font.Font {
	obj, ok := f.locator.Resolve(f.scope, resources.CategoryFont, n)
	if !ok {
		f.warnFont(n, "not found in resources")
		return nil
	}
	return f.loadFont(n, obj)
}

func (f *frame) loadFont(n string, obj core.Object) font.Font {
	dict, isDict := resolver.AsDict(obj)
	if isDict {
		if fnt, seen := f.fonts[dict]; seen {
			return fnt
		}
	}
	fnt, err := f.in.loadFont(f.acc, obj)
	switch {
	case err != nil:
		f.warnFont(n, err.Error())
		fnt = nil
	case fnt.IsEmpty():
		f.warnFont(n, "font has no glyphs")
		fnt = nil
	}
	if isDict {
		f.fonts[dict] = fnt
	}
	return fnt
}

// warnFont reports an unusable font once per font name.
func (f *frame) warnFont(n, reason string) {
	if f.badFonts[n] {
		return
	}
	f.badFonts[n] = true
	if n == "" {
		f.warnf(core.WarnFont, "text shown with no font selected")
		return
	}
	f.warnf(core.WarnFont, "font /%s: %s", n, reason)
}

func opMoveText(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.gs().TranslateText(v[0], v[1])
	return nil
}

func opMoveTextLeading(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.gs().TranslateTextSetLeading(v[0], v[1])
	return nil
}

func opTextMatrix(f *frame, args []core.Object) error {
	m, err := matrixOf(args)
	if err != nil {
		return err
	}
	f.gs().SetTextMatrix(m)
	return nil
}

func opNextLine(f *frame, _ []core.Object) error {
	f.gs().NextLine()
	return nil
}

func shown(obj core.Object) ([]byte, error) {
	s, ok := obj.(core.String)
	if !ok {
		return nil, errors.Wrapf(errOperands, "expected a string, got %s", kindOf(obj))
	}
	return []byte(s), nil
}

func opShowText(f *frame, args []core.Object) error {
	s, err := shown(args[0])
	if err != nil {
		return err
	}
	f.show(s)
	return nil
}

func opShowTextArray(f *frame, args []core.Object) error {
	arr, ok := args[0].(core.Array)
	if !ok {
		return errors.Wrapf(errOperands, "expected an array, got %s", kindOf(args[0]))
	}
	for _, elem := range arr {
		switch v := elem.(type) {
		case core.String:
			f.show([]byte(v))
		case core.Int, core.Real:
			adjust, _ := core.Number(v)
			f.gs().Kern(adjust)
		}
	}
	return nil
}

func opNextLineShowText(f *frame, args []core.Object) error {
	s, err := shown(args[0])
	if err != nil {
		return err
	}
	f.gs().NextLine()
	f.show(s)
	return nil
}

func opSpacingNextLineShowText(f *frame, args []core.Object) error {
	v, err := numbers(args[:2])
	if err != nil {
		return err
	}
	s, err := shown(args[2])
	if err != nil {
		return err
	}
	t := &f.gs().Text
	t.WordSpacing, t.CharSpacing = v[0], v[1]
	f.gs().NextLine()
	f.show(s)
	return nil
}

// show emits one text element for s and advances the text matrix past
// its glyphs. Without a usable font nothing is shown.
func (f *frame) show(s []byte) {
	gs := f.gs()
	fnt, _ := gs.Text.Font.(font.Font)
	if fnt == nil {
		f.warnFont(gs.Text.FontName, "unusable")
		return
	}
	codes := font.Codes(fnt, s)
	if len(codes) == 0 {
		return
	}
	start := gs.RenderingMatrix()
	te := &model.TextElement{
		Font:       gs.Text.FontName,
		FontSize:   gs.Text.FontSize,
		Codes:      codes,
		Widths:     make([]float64, len(codes)),
		Text:       fnt.Text(codes),
		Matrix:     start,
		RenderMode: gs.Text.RenderMode,
	}
	// word spacing applies to the single-byte code 32 only
	single := fnt.CodeBytes() == 1
	for i, code := range codes {
		w := fnt.GlyphWidth(code)
		te.Widths[i] = w
		gs.Advance(gs.GlyphAdvance(w, single && code == 32))
	}
	end := gs.RenderingMatrix()
	te.Bounds = textBounds(start, end)
	f.page.AddElement(te)
}

// textBounds spans the baseline from start to end and one unit of
// glyph space above it.
func textBounds(start, end model.Matrix) model.Rect {
	p := start.Transform(model.Point{})
	r := model.Rect{LLX: p.X, LLY: p.Y, URX: p.X, URY: p.Y}
	r = r.Extend(start.Transform(model.Point{Y: 1}))
	r = r.Extend(end.Transform(model.Point{}))
	return r.Extend(end.Transform(model.Point{Y: 1}))
}
