package contentstream

import (
	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/graphicsstate"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/resolver"
	"github.com/tsawler/pdfexec/resources"
)

// opExtGState applies the entries of a graphics state parameter
// dictionary that this interpreter tracks.
func opExtGState(f *frame, args []core.Object) error {
	n, err := name(args[0])
	if err != nil {
		return err
	}
	d, ok := f.locator.ResolveDict(f.scope, resources.CategoryExtGState, n)
	if !ok {
		f.warnf(core.WarnMissingObject, "ExtGState /%s not found", n)
		return nil
	}
	gs := f.gs()
	acc := f.acc
	if v, ok := acc.GetNumber(d, "LW"); ok {
		gs.LineWidth = v
	}
	if v, ok := acc.GetInt(d, "LC"); ok && v >= graphicsstate.CapButt && v <= graphicsstate.CapSquare {
		gs.LineCap = v
	}
	if v, ok := acc.GetInt(d, "LJ"); ok && v >= graphicsstate.JoinMiter && v <= graphicsstate.JoinBevel {
		gs.LineJoin = v
	}
	if v, ok := acc.GetNumber(d, "ML"); ok {
		gs.MiterLimit = v
	}
	if arr, ok := acc.GetArray(d, "D"); ok && len(arr) == 2 {
		dashes, dok := acc.Floats(arr[0])
		phase, pok := core.Number(acc.Resolve(arr[1]))
		if dok && pok {
			gs.Dash = graphicsstate.Dash{Array: dashes, Phase: phase}
		}
	}
	if v, ok := acc.GetName(d, "RI"); ok {
		gs.RenderingIntent = string(v)
	}
	if v, ok := acc.GetNumber(d, "FL"); ok {
		gs.Flatness = v
	}
	if v, ok := acc.GetNumber(d, "CA"); ok {
		gs.StrokeAlpha = v
	}
	if v, ok := acc.GetNumber(d, "ca"); ok {
		gs.FillAlpha = v
	}
	if arr, ok := acc.GetArray(d, "Font"); ok && len(arr) == 2 {
		if size, ok := core.Number(acc.Resolve(arr[1])); ok {
			// the font has no resource name here, so it goes by /BaseFont
			var base core.Name
			if fd, ok := resolver.AsDict(acc.Resolve(arr[0])); ok {
				base, _ = acc.GetName(fd, "BaseFont")
			}
			label := string(base)
			if label == "" {
				label = n + " (ExtGState)"
			}
			gs.Text.FontName = string(base)
			gs.Text.FontSize = size
			gs.Text.Font = nil
			if fnt := f.loadFont(label, arr[0]); fnt != nil {
				gs.Text.Font = fnt
			}
		}
	}
	return nil
}

func opShading(f *frame, args []core.Object) error {
	n, err := name(args[0])
	if err != nil {
		return err
	}
	if _, ok := f.locator.Resolve(f.scope, resources.CategoryShading, n); !ok {
		f.warnf(core.WarnMissingObject, "shading /%s not found", n)
		return nil
	}
	f.page.AddElement(&model.ShadingElement{Name: n, Bounds: f.gs().Clip})
	return nil
}

// unitSquare is the image space every image is painted into.
var unitSquare = model.Rect{LLX: 0, LLY: 0, URX: 1, URY: 1}

func opInlineImage(f *frame, args []core.Object) error {
	d, ok := args[0].(*core.Dict)
	if !ok {
		d = core.NewDict()
	}
	f.page.AddElement(f.image("", true, d))
	return nil
}

func (f *frame) image(n string, inline bool, d *core.Dict) *model.ImageElement {
	ctm := f.gs().CTM
	img := &model.ImageElement{
		Name:   n,
		Inline: inline,
		Matrix: ctm,
		Bounds: unitSquare.Transform(ctm),
	}
	img.Width, _ = f.acc.GetInt(d, "Width")
	img.Height, _ = f.acc.GetInt(d, "Height")
	switch cs := f.acc.Get(d, "ColorSpace").(type) {
	case core.Name:
		img.ColorSpace = string(cs)
		if alias, ok := spaceAliases[img.ColorSpace]; ok {
			img.ColorSpace = alias
		}
	case core.Array:
		if fam, ok := cs.GetName(0); ok {
			img.ColorSpace = canonicalFamily(fam)
		}
	}
	if mask, _ := f.acc.GetBool(d, "ImageMask"); mask && img.ColorSpace == "" {
		img.ColorSpace = "ImageMask"
	}
	return img
}

func opXObject(f *frame, args []core.Object) error {
	n, err := name(args[0])
	if err != nil {
		return err
	}
	obj, ok := f.locator.Resolve(f.scope, resources.CategoryXObject, n)
	if !ok {
		f.warnf(core.WarnMissingObject, "XObject /%s not found", n)
		return nil
	}
	s, ok := obj.(*core.Stream)
	if !ok {
		f.warnf(core.WarnSyntax, "XObject /%s is %s, not a stream", n, kindOf(obj))
		return nil
	}
	switch sub, _ := f.acc.GetName(s.Dict, "Subtype"); sub {
	case "Image":
		f.page.AddElement(f.image(n, false, s.Dict))
	case "Form":
		return f.runForm(n, s)
	case "PS":
	default:
		f.warnf(core.WarnSyntax, "XObject /%s has unknown /Subtype %q", n, sub)
	}
	return nil
}

// runForm executes a form XObject in a child frame. The form starts from
// a copy of the invoking state with its /Matrix applied and its /BBox
// clipped; nothing it does to the state survives it.
func (f *frame) runForm(n string, s *core.Stream) error {
	if f.depth+1 > f.in.maxDepth {
		f.warnf(core.WarnRecursion, "form /%s exceeds nesting depth %d", n, f.in.maxDepth)
		return nil
	}
	if f.chain[s] {
		f.warnf(core.WarnRecursion, "form /%s invokes itself", n)
		return nil
	}
	data := f.in.r.StreamData(f.ctx, s)

	base := f.gs().Clone()
	if vals, ok := f.acc.Floats(f.acc.Get(s.Dict, "Matrix")); ok {
		if m, ok := model.MatrixFrom(vals); ok {
			base.Transform(m)
		}
	}
	if vals, ok := f.acc.Floats(f.acc.Get(s.Dict, "BBox")); ok {
		if box, ok := model.RectFrom(vals); ok {
			base.ClipTo(box)
		}
	}

	scope := f.scope
	if res, ok := resolver.AsDict(f.acc.Get(s.Dict, "Resources")); ok {
		scope = resources.NewScope(res, f.scope)
	}

	child := &frame{
		execution: f.execution,
		stack:     graphicsstate.NewStack(base),
		scope:     scope,
		depth:     f.depth + 1,
	}
	f.chain[s] = true
	err := child.run(data)
	delete(f.chain, s)
	return err
}
