package contentstream

import (
	"github.com/pkg/errors"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/graphicsstate"
	"github.com/tsawler/pdfexec/model"
)

// operator describes how to run one content stream operator. An arity
// of -1 takes every operand.
type operator struct {
	arity    int
	defaults []core.Object
	fn       func(f *frame, args []core.Object) error
}

var operators map[string]operator

// Operators returns the names of every operator the interpreter knows.
func Operators() []string {
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	return names
}

func init() {
	zero := core.Int(0)
	operators = map[string]operator{
		// general graphics state
		"w":  {arity: 1, fn: opLineWidth},
		"J":  {arity: 1, fn: opLineCap},
		"j":  {arity: 1, fn: opLineJoin},
		"M":  {arity: 1, fn: opMiterLimit},
		"d":  {arity: 2, defaults: []core.Object{core.Array{}, zero}, fn: opDash},
		"ri": {arity: 1, defaults: []core.Object{core.Name("RelativeColorimetric")}, fn: opIntent},
		"i":  {arity: 1, defaults: []core.Object{core.Int(1)}, fn: opFlatness},
		"gs": {arity: 1, fn: opExtGState},

		// special graphics state
		"q":  {arity: 0, fn: opSave},
		"Q":  {arity: 0, fn: opRestore},
		"cm": {arity: 6, fn: opConcat},

		// path construction
		"m":  {arity: 2, fn: opMoveTo},
		"l":  {arity: 2, fn: opLineTo},
		"c":  {arity: 6, fn: opCurveTo},
		"v":  {arity: 4, fn: opCurveToV},
		"y":  {arity: 4, fn: opCurveToY},
		"h":  {arity: 0, fn: opClosePath},
		"re": {arity: 4, fn: opRectangle},

		// path painting
		"S":  {arity: 0, fn: painter("S", true, false, false, false)},
		"s":  {arity: 0, fn: painter("s", true, false, false, true)},
		"f":  {arity: 0, fn: painter("f", false, true, false, false)},
		"F":  {arity: 0, fn: painter("F", false, true, false, false)},
		"f*": {arity: 0, fn: painter("f*", false, true, true, false)},
		"B":  {arity: 0, fn: painter("B", true, true, false, false)},
		"B*": {arity: 0, fn: painter("B*", true, true, true, false)},
		"b":  {arity: 0, fn: painter("b", true, true, false, true)},
		"b*": {arity: 0, fn: painter("b*", true, true, true, true)},
		"n":  {arity: 0, fn: painter("n", false, false, false, false)},

		// clipping
		"W":  {arity: 0, fn: opClip(clipNonZero)},
		"W*": {arity: 0, fn: opClip(clipEvenOdd)},

		// text objects and state
		"BT": {arity: 0, fn: opBeginText},
		"ET": {arity: 0, fn: opEndText},
		"Tc": {arity: 1, defaults: []core.Object{zero}, fn: opCharSpacing},
		"Tw": {arity: 1, defaults: []core.Object{zero}, fn: opWordSpacing},
		"Tz": {arity: 1, defaults: []core.Object{core.Int(100)}, fn: opHorizontalScaling},
		"TL": {arity: 1, defaults: []core.Object{zero}, fn: opLeading},
		"Tf": {arity: 2, fn: opFont},
		"Tr": {arity: 1, defaults: []core.Object{zero}, fn: opRenderMode},
		"Ts": {arity: 1, defaults: []core.Object{zero}, fn: opRise},

		// text positioning and showing
		"Td": {arity: 2, fn: opMoveText},
		"TD": {arity: 2, fn: opMoveTextLeading},
		"Tm": {arity: 6, fn: opTextMatrix},
		"T*": {arity: 0, fn: opNextLine},
		"Tj": {arity: 1, fn: opShowText},
		"TJ": {arity: 1, fn: opShowTextArray},
		"'":  {arity: 1, fn: opNextLineShowText},
		`"`:  {arity: 3, fn: opSpacingNextLineShowText},

		// Type 3 glyph metrics
		"d0": {arity: 2, fn: noop},
		"d1": {arity: 6, fn: noop},

		// color
		"CS":  {arity: 1, fn: opColorSpace(true)},
		"cs":  {arity: 1, fn: opColorSpace(false)},
		"SC":  {arity: -1, fn: opSetColor(true, false)},
		"SCN": {arity: -1, fn: opSetColor(true, true)},
		"sc":  {arity: -1, fn: opSetColor(false, false)},
		"scn": {arity: -1, fn: opSetColor(false, true)},
		"G":   {arity: 1, fn: opDeviceColor(true, "DeviceGray")},
		"g":   {arity: 1, fn: opDeviceColor(false, "DeviceGray")},
		"RG":  {arity: 3, fn: opDeviceColor(true, "DeviceRGB")},
		"rg":  {arity: 3, fn: opDeviceColor(false, "DeviceRGB")},
		"K":   {arity: 4, fn: opDeviceColor(true, "DeviceCMYK")},
		"k":   {arity: 4, fn: opDeviceColor(false, "DeviceCMYK")},

		// shading, images and XObjects
		"sh": {arity: 1, fn: opShading},
		"BI": {arity: 1, fn: opInlineImage},
		"ID": {arity: 0, fn: noop},
		"EI": {arity: 0, fn: noop},
		"Do": {arity: 1, fn: opXObject},

		// marked content
		"MP":  {arity: 1, fn: noop},
		"DP":  {arity: 2, fn: noop},
		"BMC": {arity: 1, fn: opBeginMarked},
		"BDC": {arity: 2, fn: opBeginMarked},
		"EMC": {arity: 0, fn: opEndMarked},

		// compatibility
		"BX": {arity: 0, fn: opBeginCompat},
		"EX": {arity: 0, fn: opEndCompat},
	}
}

func noop(*frame, []core.Object) error { return nil }

func opLineWidth(f *frame, args []core.Object) error {
	v, err := number(args[0])
	if err != nil {
		return err
	}
	f.gs().LineWidth = v
	return nil
}

func opLineCap(f *frame, args []core.Object) error {
	v, err := number(args[0])
	if err != nil {
		return err
	}
	if v < graphicsstate.CapButt || v > graphicsstate.CapSquare {
		return errors.Wrapf(errOperands, "line cap %v out of range", v)
	}
	f.gs().LineCap = int(v)
	return nil
}

func opLineJoin(f *frame, args []core.Object) error {
	v, err := number(args[0])
	if err != nil {
		return err
	}
	if v < graphicsstate.JoinMiter || v > graphicsstate.JoinBevel {
		return errors.Wrapf(errOperands, "line join %v out of range", v)
	}
	f.gs().LineJoin = int(v)
	return nil
}

func opMiterLimit(f *frame, args []core.Object) error {
	v, err := number(args[0])
	if err != nil {
		return err
	}
	f.gs().MiterLimit = v
	return nil
}

func opDash(f *frame, args []core.Object) error {
	arr, ok := args[0].(core.Array)
	if !ok {
		return errors.Wrapf(errOperands, "dash array is %s", kindOf(args[0]))
	}
	vals, err := numbers(arr)
	if err != nil {
		return err
	}
	phase, err := number(args[1])
	if err != nil {
		return err
	}
	f.gs().Dash = graphicsstate.Dash{Array: vals, Phase: phase}
	return nil
}

func opIntent(f *frame, args []core.Object) error {
	n, err := name(args[0])
	if err != nil {
		return err
	}
	f.gs().RenderingIntent = n
	return nil
}

func opFlatness(f *frame, args []core.Object) error {
	v, err := number(args[0])
	if err != nil {
		return err
	}
	f.gs().Flatness = v
	return nil
}

func opSave(f *frame, _ []core.Object) error {
	f.stack.Push()
	return nil
}

func opRestore(f *frame, _ []core.Object) error {
	if !f.stack.Pop() {
		f.warnf(core.WarnState, "Q without matching q")
	}
	return nil
}

func matrixOf(args []core.Object) (model.Matrix, error) {
	vals, err := numbers(args)
	if err != nil {
		return model.Matrix{}, err
	}
	m, _ := model.MatrixFrom(vals)
	return m, nil
}

func opConcat(f *frame, args []core.Object) error {
	m, err := matrixOf(args)
	if err != nil {
		return err
	}
	f.gs().Transform(m)
	return nil
}

func opMoveTo(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.path.MoveTo(f.gs().CTM, v[0], v[1])
	return nil
}

func opLineTo(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.path.LineTo(f.gs().CTM, v[0], v[1])
	return nil
}

func opCurveTo(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.path.CurveTo(f.gs().CTM, v[0], v[1], v[2], v[3], v[4], v[5])
	return nil
}

func opCurveToV(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.path.CurveToV(f.gs().CTM, v[0], v[1], v[2], v[3])
	return nil
}

func opCurveToY(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.path.CurveToY(f.gs().CTM, v[0], v[1], v[2], v[3])
	return nil
}

func opClosePath(f *frame, _ []core.Object) error {
	f.path.ClosePath()
	return nil
}

func opRectangle(f *frame, args []core.Object) error {
	v, err := numbers(args)
	if err != nil {
		return err
	}
	f.path.Rectangle(f.gs().CTM, v[0], v[1], v[2], v[3])
	return nil
}

// painter builds a path painting operator. A pending W or W* clips to
// the path before it is discarded.
func painter(op string, stroke, fill, evenOdd, closePath bool) func(*frame, []core.Object) error {
	return func(f *frame, _ []core.Object) error {
		if closePath {
			f.path.ClosePath()
		}
		gs := f.gs()
		if !f.path.IsEmpty() && (stroke || fill) {
			f.page.AddElement(&model.PathElement{
				Op:        op,
				Stroke:    stroke,
				Fill:      fill,
				EvenOdd:   evenOdd,
				Segments:  len(f.path.Segments),
				LineWidth: gs.LineWidth,
				Bounds:    f.path.Bounds(),
				Clip:      gs.Clip,
				FillColor: append([]float64(nil), gs.Fill.Components...),
			})
		}
		if f.clip != clipNone && !f.path.IsEmpty() {
			gs.Clip = gs.Clip.Intersect(f.path.Bounds())
		}
		f.clip = clipNone
		f.path.Clear()
		return nil
	}
}

func opClip(mode clipMode) func(*frame, []core.Object) error {
	return func(f *frame, _ []core.Object) error {
		f.clip = mode
		return nil
	}
}

func opBeginMarked(f *frame, args []core.Object) error {
	if _, err := name(args[0]); err != nil {
		return err
	}
	f.marked++
	return nil
}

func opEndMarked(f *frame, _ []core.Object) error {
	if f.marked == 0 {
		f.warnf(core.WarnState, "EMC without matching BMC or BDC")
		return nil
	}
	f.marked--
	return nil
}

func opBeginCompat(f *frame, _ []core.Object) error {
	f.compat++
	return nil
}

func opEndCompat(f *frame, _ []core.Object) error {
	if f.compat == 0 {
		f.warnf(core.WarnState, "EX without matching BX")
		return nil
	}
	f.compat--
	return nil
}
