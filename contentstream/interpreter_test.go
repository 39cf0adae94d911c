package contentstream

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/graphicsstate"
	"github.com/tsawler/pdfexec/internal/pdftest"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/resolver"
	"github.com/tsawler/pdfexec/resources"
)

const helvetica = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"

// fixture writes a document whose object 2 is the resource dictionary
// res; build adds any further objects.
func fixture(t *testing.T, res string, build func(b *pdftest.Builder)) (*resolver.Resolver, *resources.Scope) {
	t.Helper()
	b := pdftest.New("1.7")
	b.Object(1, "<< /Type /Catalog >>")
	b.Object(2, res)
	if build != nil {
		build(b)
	}
	b.XRefTable("/Root 1 0 R")
	data := b.Bytes()

	ctx := context.Background()
	idx, err := core.NewIndexBuilder(data, core.DefaultFilters(), nil).Open(ctx)
	require.NoError(t, err)
	r := resolver.NewResolver(data, idx)
	d, ok := resolver.AsDict(r.Deref(ctx, core.IndirectRef{Number: 2}))
	require.True(t, ok)
	return r, resources.NewScope(d, nil)
}

type outcome struct {
	result Result
	page   *model.Page
	warns  *core.Warnings
}

func execute(t *testing.T, r *resolver.Resolver, scope *resources.Scope, content string, opts ...Option) outcome {
	t.Helper()
	ws := &core.Warnings{}
	in := New(r, append([]Option{WithWarnings(ws)}, opts...)...)
	page := &model.Page{}
	res, err := in.Execute(context.Background(), []byte(content), scope, page)
	require.NoError(t, err)
	return outcome{result: res, page: page, warns: ws}
}

// plain runs content with no resources.
func plain(t *testing.T, content string) outcome {
	t.Helper()
	r, scope := fixture(t, "<< >>", nil)
	return execute(t, r, scope, content)
}

func TestOperatorTable(t *testing.T) {
	assert.Len(t, Operators(), 73)
	for _, op := range []string{"q", "Q", "cm", "Tj", "TJ", "'", `"`, "Do", "BI", "scn", "d0", "d1", "BX", "EX"} {
		assert.Contains(t, Operators(), op)
	}
}

func TestSaveRestore(t *testing.T) {
	got := plain(t, "q 1 0 0 1 10 10 cm 2 w 0.5 g /DeviceRGB CS [2] 1 d Q")

	if diff := cmp.Diff(graphicsstate.NewGraphicsState(), got.result.State); diff != "" {
		t.Errorf("state after q...Q (-want +got):\n%s", diff)
	}
	assert.Zero(t, got.warns.Len(), core.FormatWarnings(got.warns.List()))
	assert.Equal(t, 7, got.result.Operations)
}

func TestGeneralState(t *testing.T) {
	gs := plain(t, "2 w 1 J 2 j 5 M [3 1] 2 d /Perceptual ri 0.5 i").result.State

	assert.Equal(t, 2.0, gs.LineWidth)
	assert.Equal(t, graphicsstate.CapRound, gs.LineCap)
	assert.Equal(t, graphicsstate.JoinBevel, gs.LineJoin)
	assert.Equal(t, 5.0, gs.MiterLimit)
	assert.Equal(t, graphicsstate.Dash{Array: []float64{3, 1}, Phase: 2}, gs.Dash)
	assert.Equal(t, "Perceptual", gs.RenderingIntent)
	assert.Equal(t, 0.5, gs.Flatness)
}

func TestLineStateInterleaved(t *testing.T) {
	tests := []string{
		"2 w 10 M",
		"10 M 2 w",
		"q Q 2 w 10 M",
		"2 w ZZ 10 M",
		"2 w 0 0 1 1 re n 10 M q Q",
		"1 2 ZZ 10 M q Q 2 w 0 0 5 5 re n ZZ",
	}
	for _, content := range tests {
		t.Run(content, func(t *testing.T) {
			gs := plain(t, content).result.State
			assert.Equal(t, 2.0, gs.LineWidth)
			assert.Equal(t, 10.0, gs.MiterLimit)
		})
	}
}

func TestConcatMatrix(t *testing.T) {
	gs := plain(t, "1 0 0 1 10 20 cm 2 0 0 2 0 0 cm").result.State
	// the second matrix applies first: CTM' = M x CTM
	assert.Equal(t, model.Matrix{2, 0, 0, 2, 10, 20}, gs.CTM)
}

func TestUnknownOperator(t *testing.T) {
	got := plain(t, "1 2 3 ZZ 4 w")

	assert.Equal(t, 1, got.warns.Count(core.WarnUnknownOperator))
	assert.Equal(t, 4.0, got.result.State.LineWidth)
	assert.Equal(t, 1, got.result.Operations)

	got = plain(t, "BX 1 ZZ EX 3 w")
	assert.Zero(t, got.warns.Count(core.WarnUnknownOperator))
	assert.Equal(t, 3.0, got.result.State.LineWidth)
}

func TestOperandRepair(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, gs *graphicsstate.GraphicsState)
		warns   int
	}{
		{
			name:    "extra operands use the trailing ones",
			content: "5 6 w",
			check: func(t *testing.T, gs *graphicsstate.GraphicsState) {
				assert.Equal(t, 6.0, gs.LineWidth)
			},
		},
		{
			name:    "defaults fill missing operands",
			content: "3 Tc 50 Tz Tc Tz",
			check: func(t *testing.T, gs *graphicsstate.GraphicsState) {
				assert.Equal(t, 0.0, gs.Text.CharSpacing)
				assert.Equal(t, 100.0, gs.Text.HorizontalScaling)
			},
		},
		{
			name:    "too few operands skip the operator",
			content: "7 w 1 cm",
			check: func(t *testing.T, gs *graphicsstate.GraphicsState) {
				assert.Equal(t, model.Identity(), gs.CTM)
				assert.Equal(t, 7.0, gs.LineWidth)
			},
			warns: 1,
		},
		{
			name:    "wrong operand type",
			content: "(wide) w",
			check: func(t *testing.T, gs *graphicsstate.GraphicsState) {
				assert.Equal(t, 1.0, gs.LineWidth)
			},
			warns: 1,
		},
		{
			name:    "line cap out of range",
			content: "9 J",
			check: func(t *testing.T, gs *graphicsstate.GraphicsState) {
				assert.Equal(t, graphicsstate.CapButt, gs.LineCap)
			},
			warns: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := plain(t, tt.content)
			tt.check(t, got.result.State)
			assert.Equal(t, tt.warns, got.warns.Count(core.WarnOperands), core.FormatWarnings(got.warns.List()))
		})
	}
}

func TestUnbalancedState(t *testing.T) {
	tests := []struct {
		content string
		warns   int
	}{
		{"Q", 1},
		{"q q Q", 1},
		{"/P BMC", 1},
		{"EMC", 1},
		{"BT", 1},
		{"ET", 1},
		{"BT BT ET", 1},
		{"EX", 1},
		{"q /P BMC BT ET EMC Q", 0},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got := plain(t, tt.content)
			assert.Equal(t, tt.warns, got.warns.Count(core.WarnState), core.FormatWarnings(got.warns.List()))
		})
	}
}

func TestPaths(t *testing.T) {
	got := plain(t, "10 20 m 30 40 l S 2 0 0 2 0 0 cm 0 0 10 10 re f 5 5 m 6 6 l n")

	require.Equal(t, 2, got.page.Count(model.ElementTypePath))
	stroke := got.page.Elements[0].(*model.PathElement)
	assert.Equal(t, "S", stroke.Op)
	assert.True(t, stroke.Stroke)
	assert.False(t, stroke.Fill)
	assert.Equal(t, model.Rect{LLX: 10, LLY: 20, URX: 30, URY: 40}, stroke.Bounds)

	fill := got.page.Elements[1].(*model.PathElement)
	assert.Equal(t, "f", fill.Op)
	assert.Equal(t, model.Rect{LLX: 0, LLY: 0, URX: 20, URY: 20}, fill.Bounds)
	assert.Equal(t, []float64{0}, fill.FillColor)
}

func TestClip(t *testing.T) {
	got := plain(t, "0 0 100 100 re W n 50 50 200 200 re W* n")
	assert.Equal(t, model.Rect{LLX: 50, LLY: 50, URX: 100, URY: 100}, got.result.State.Clip)
	assert.Zero(t, got.page.Count(model.ElementTypePath))

	got = plain(t, "q 0 0 10 10 re W n Q")
	assert.True(t, got.result.State.Clip.IsUnbounded())
}

func TestShowText(t *testing.T) {
	r, scope := fixture(t, "<< /Font << /F1 3 0 R >> >>", func(b *pdftest.Builder) {
		b.Object(3, helvetica)
	})
	got := execute(t, r, scope, "BT /F1 12 Tf 100 700 Td (Hi) Tj ET")

	texts := got.page.Texts()
	require.Len(t, texts, 1)
	te := texts[0]
	assert.Equal(t, "Hi", te.Text)
	assert.Equal(t, "F1", te.Font)
	assert.Equal(t, 12.0, te.FontSize)
	assert.Equal(t, []int{'H', 'i'}, te.Codes)
	assert.Equal(t, []float64{722, 222}, te.Widths)
	assert.Equal(t, model.Matrix{12, 0, 0, 12, 100, 700}, te.Matrix)

	assert.InDelta(t, 100, te.Bounds.LLX, 1e-9)
	assert.InDelta(t, 700, te.Bounds.LLY, 1e-9)
	assert.InDelta(t, 111.328, te.Bounds.URX, 1e-9)
	assert.InDelta(t, 712, te.Bounds.URY, 1e-9)
	assert.Zero(t, got.warns.Len(), core.FormatWarnings(got.warns.List()))
}

func TestTextPositioning(t *testing.T) {
	r, scope := fixture(t, "<< /Font << /F1 3 0 R >> >>", func(b *pdftest.Builder) {
		b.Object(3, helvetica)
	})

	t.Run("TJ kerning", func(t *testing.T) {
		got := execute(t, r, scope, "BT /F1 10 Tf [(A) -1000 (B)] TJ ET")
		texts := got.page.Texts()
		require.Len(t, texts, 2)
		// A is 667 wide, and -1000 moves a further em to the right
		assert.InDelta(t, 16.67, texts[1].Matrix[4], 1e-9)
	})

	t.Run("word spacing on space", func(t *testing.T) {
		got := execute(t, r, scope, "BT /F1 10 Tf 5 Tw ( ) Tj")
		assert.InDelta(t, 7.78, got.result.State.Text.TextMatrix[4], 1e-9)
	})

	t.Run("quote moves to the next line", func(t *testing.T) {
		got := execute(t, r, scope, "BT /F1 10 Tf 14 TL (a) ' ET")
		texts := got.page.Texts()
		require.Len(t, texts, 1)
		assert.Equal(t, -14.0, texts[0].Matrix[5])
	})

	t.Run("double quote sets spacing", func(t *testing.T) {
		got := execute(t, r, scope, `BT /F1 10 Tf 12 TL 3 1 (a) " ET`)
		text := got.result.State.Text
		assert.Equal(t, 3.0, text.WordSpacing)
		assert.Equal(t, 1.0, text.CharSpacing)
		assert.Equal(t, -12.0, text.TextLineMatrix[5])
	})

	t.Run("TD sets leading", func(t *testing.T) {
		got := execute(t, r, scope, "BT 5 -16 TD T* ET")
		text := got.result.State.Text
		assert.Equal(t, 16.0, text.Leading)
		assert.Equal(t, model.Matrix{1, 0, 0, 1, 5, -32}, text.TextLineMatrix)
	})

	t.Run("BT resets the text matrix", func(t *testing.T) {
		got := execute(t, r, scope, "BT 1 0 0 1 50 50 Tm ET BT ET")
		assert.Equal(t, model.Identity(), got.result.State.Text.TextMatrix)
	})
}

func TestMissingFont(t *testing.T) {
	r, scope := fixture(t, "<< /Font << /F1 3 0 R /F2 9 0 R >> >>", func(b *pdftest.Builder) {
		b.Object(3, helvetica)
	})

	got := execute(t, r, scope, "BT /F9 12 Tf (a) Tj (b) Tj /F2 10 Tf (c) Tj (x) Tj ET")
	assert.Empty(t, got.page.Texts())
	// one warning per font name
	assert.Equal(t, 2, got.warns.Count(core.WarnFont), core.FormatWarnings(got.warns.List()))

	got = execute(t, r, scope, "BT (a) Tj /F1 12 Tf (b) Tj ET")
	assert.Equal(t, "b\n", got.page.Text())
	assert.Equal(t, 1, got.warns.Count(core.WarnFont))
}

func TestColor(t *testing.T) {
	r, scope := fixture(t, "<< /ColorSpace << /CS0 [/ICCBased 3 0 R] /CS1 [/Separation /Spot /DeviceCMYK 4 0 R] >> >>", func(b *pdftest.Builder) {
		b.Stream(3, "/N 4", []byte("icc"))
		b.Object(4, "<< /FunctionType 2 /Domain [0 1] /N 1 >>")
	})

	tests := []struct {
		name    string
		content string
		fill    graphicsstate.Color
		stroke  graphicsstate.Color
		warns   int
	}{
		{
			name:    "device rgb",
			content: "/DeviceRGB cs 1 0 0 sc 0.5 G",
			fill:    graphicsstate.Color{Space: "DeviceRGB", N: 3, Components: []float64{1, 0, 0}},
			stroke:  graphicsstate.Color{Space: "DeviceGray", N: 1, Components: []float64{0.5}},
		},
		{
			name:    "shorthand operators",
			content: "0 0 0 1 k 0.2 0.4 0.6 RG",
			fill:    graphicsstate.Color{Space: "DeviceCMYK", N: 4, Components: []float64{0, 0, 0, 1}},
			stroke:  graphicsstate.Color{Space: "DeviceRGB", N: 3, Components: []float64{0.2, 0.4, 0.6}},
		},
		{
			name:    "wrong component count",
			content: "/DeviceRGB CS 1 SC",
			fill:    graphicsstate.Black(),
			stroke:  graphicsstate.Color{Space: "DeviceRGB", N: 3, Components: []float64{0, 0, 0}},
			warns:   1,
		},
		{
			name:    "pattern",
			content: "/Pattern cs /P1 scn",
			fill:    graphicsstate.Color{Space: "Pattern", Components: []float64{}, Pattern: "P1"},
			stroke:  graphicsstate.Black(),
		},
		{
			name:    "icc based",
			content: "/CS0 cs",
			fill:    graphicsstate.Color{Space: "ICCBased", N: 4, Components: []float64{0, 0, 0, 1}},
			stroke:  graphicsstate.Black(),
		},
		{
			name:    "separation",
			content: "/CS1 CS 0.3 SCN",
			fill:    graphicsstate.Black(),
			stroke:  graphicsstate.Color{Space: "Separation", N: 1, Components: []float64{0.3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := execute(t, r, scope, tt.content)
			gs := got.result.State
			if diff := cmp.Diff(tt.fill, gs.Fill); diff != "" {
				t.Errorf("fill (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.stroke, gs.Stroke); diff != "" {
				t.Errorf("stroke (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.warns, got.warns.Count(core.WarnOperands))
		})
	}

	got := execute(t, r, scope, "/Nope cs")
	assert.Equal(t, 1, got.warns.Count(core.WarnMissingObject))
	assert.Equal(t, graphicsstate.Black(), got.result.State.Fill)
}

func TestExtGState(t *testing.T) {
	r, scope := fixture(t, "<< /ExtGState << /GS1 4 0 R >> >>", func(b *pdftest.Builder) {
		b.Object(3, helvetica)
		b.Object(4, "<< /Type /ExtGState /LW 3 /LC 1 /CA 0.5 /ca 0.25 /D [[2 2] 1] /Font [3 0 R 9] >>")
	})

	got := execute(t, r, scope, "/GS1 gs BT (A) Tj ET /Nope gs")
	gs := got.result.State
	assert.Equal(t, 3.0, gs.LineWidth)
	assert.Equal(t, graphicsstate.CapRound, gs.LineCap)
	assert.Equal(t, 0.5, gs.StrokeAlpha)
	assert.Equal(t, 0.25, gs.FillAlpha)
	assert.Equal(t, graphicsstate.Dash{Array: []float64{2, 2}, Phase: 1}, gs.Dash)
	assert.Equal(t, 9.0, gs.Text.FontSize)
	assert.NotNil(t, gs.Text.Font)
	assert.Equal(t, "Helvetica", gs.Text.FontName)
	assert.Equal(t, 1, got.warns.Count(core.WarnMissingObject))

	texts := got.page.Texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "Helvetica", texts[0].Font)
}

func TestExtGStateUnusableFont(t *testing.T) {
	r, scope := fixture(t, "<< /ExtGState << /GS2 4 0 R >> >>", func(b *pdftest.Builder) {
		b.Object(4, "<< /Type /ExtGState /Font [(not a font) 5] >>")
	})

	got := execute(t, r, scope, "/GS2 gs BT (A) Tj ET")
	assert.Empty(t, got.result.State.Text.FontName)
	assert.Equal(t, 5.0, got.result.State.Text.FontSize)
	assert.Empty(t, got.page.Texts())
	assert.Contains(t, core.FormatWarnings(got.warns.List()), "GS2 (ExtGState)")
}

func TestImages(t *testing.T) {
	r, scope := fixture(t, "<< /XObject << /Im1 3 0 R >> /Shading << /Sh1 4 0 R >> >>", func(b *pdftest.Builder) {
		b.Stream(3, "/Type /XObject /Subtype /Image /Width 4 /Height 2 /ColorSpace /DeviceRGB /BitsPerComponent 8", make([]byte, 24))
		b.Object(4, "<< /ShadingType 2 /ColorSpace /DeviceRGB /Coords [0 0 1 0] >>")
	})

	got := execute(t, r, scope, "q 100 0 0 50 10 20 cm /Im1 Do Q "+
		"q 10 0 0 10 0 0 cm BI /W 1 /H 1 /CS /G /BPC 8 ID \x80 EI Q "+
		"0 0 5 5 re W n /Sh1 sh /Im2 Do")

	require.Len(t, got.page.Elements, 3)
	img := got.page.Elements[0].(*model.ImageElement)
	assert.Equal(t, "Im1", img.Name)
	assert.False(t, img.Inline)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, "DeviceRGB", img.ColorSpace)
	assert.Equal(t, model.Rect{LLX: 10, LLY: 20, URX: 110, URY: 70}, img.Bounds)

	inline := got.page.Elements[1].(*model.ImageElement)
	assert.True(t, inline.Inline)
	assert.Equal(t, "DeviceGray", inline.ColorSpace)
	assert.Equal(t, model.Rect{LLX: 0, LLY: 0, URX: 10, URY: 10}, inline.Bounds)

	sh := got.page.Elements[2].(*model.ShadingElement)
	assert.Equal(t, "Sh1", sh.Name)
	assert.Equal(t, model.Rect{LLX: 0, LLY: 0, URX: 5, URY: 5}, sh.Bounds)

	assert.Equal(t, 1, got.warns.Count(core.WarnMissingObject))
}

func TestFormXObject(t *testing.T) {
	r, scope := fixture(t, "<< /XObject << /Fm1 3 0 R >> >>", func(b *pdftest.Builder) {
		b.Stream(3, "/Type /XObject /Subtype /Form /BBox [0 0 10 10] /Matrix [1 0 0 1 50 50] /Resources << /Font << /F1 4 0 R >> >>",
			[]byte("0 0 5 5 re f 3 w BT /F1 10 Tf (x) Tj ET"))
		b.Object(4, helvetica)
	})

	got := execute(t, r, scope, "/Fm1 Do")
	require.Equal(t, 1, got.page.Count(model.ElementTypePath))
	path := got.page.Elements[0].(*model.PathElement)
	assert.Equal(t, model.Rect{LLX: 50, LLY: 50, URX: 55, URY: 55}, path.Bounds)
	assert.Equal(t, model.Rect{LLX: 50, LLY: 50, URX: 60, URY: 60}, path.Clip)
	assert.Equal(t, "x\n", got.page.Text())

	// nothing the form does outlives it
	assert.Equal(t, model.Identity(), got.result.State.CTM)
	assert.Equal(t, 1.0, got.result.State.LineWidth)
	assert.True(t, got.result.State.Clip.IsUnbounded())
	assert.Zero(t, got.warns.Len(), core.FormatWarnings(got.warns.List()))

	// the form's own font resources are not visible outside it
	got = execute(t, r, scope, "/Fm1 Do BT /F1 10 Tf (y) Tj ET")
	assert.Equal(t, "x\n", got.page.Text())
	assert.Equal(t, 1, got.warns.Count(core.WarnFont))
}

func TestFormRecursion(t *testing.T) {
	r, scope := fixture(t, "<< /XObject << /A 3 0 R >> >>", func(b *pdftest.Builder) {
		b.Stream(3, "/Subtype /Form /BBox [0 0 1 1] /Resources << /XObject << /Self 3 0 R /B 4 0 R >> >>", []byte("/Self Do /B Do"))
		b.Stream(4, "/Subtype /Form /BBox [0 0 1 1] /Resources << /XObject << /A 3 0 R >> >>", []byte("0 0 1 1 re f /A Do"))
	})

	got := execute(t, r, scope, "/A Do")
	// A calls itself, then B calls A again
	assert.Equal(t, 2, got.warns.Count(core.WarnRecursion), core.FormatWarnings(got.warns.List()))
	assert.Equal(t, 1, got.page.Count(model.ElementTypePath))
}

func TestFormDepth(t *testing.T) {
	r, scope := fixture(t, "<< /XObject << /F3 3 0 R >> >>", func(b *pdftest.Builder) {
		b.Stream(3, "/Subtype /Form /BBox [0 0 9 9] /Resources << /XObject << /F4 4 0 R >> >>", []byte("0 0 1 1 re f /F4 Do"))
		b.Stream(4, "/Subtype /Form /BBox [0 0 9 9] /Resources << /XObject << /F5 5 0 R >> >>", []byte("0 0 2 2 re f /F5 Do"))
		b.Stream(5, "/Subtype /Form /BBox [0 0 9 9]", []byte("0 0 3 3 re f"))
	})

	got := execute(t, r, scope, "/F3 Do", WithMaxDepth(2))
	assert.Equal(t, 2, got.page.Count(model.ElementTypePath))
	assert.Equal(t, 1, got.warns.Count(core.WarnRecursion))

	got = execute(t, r, scope, "/F3 Do")
	assert.Equal(t, 3, got.page.Count(model.ElementTypePath))
	assert.Zero(t, got.warns.Count(core.WarnRecursion))
}

func TestExecuteFrom(t *testing.T) {
	r, scope := fixture(t, "<< >>", nil)
	base := graphicsstate.NewGraphicsState()
	base.Transform(model.Translate(5, 5))

	res, err := New(r).ExecuteFrom(context.Background(), []byte("2 0 0 2 0 0 cm"), scope, base, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Matrix{2, 0, 0, 2, 5, 5}, res.State.CTM)
	// base is copied, not modified
	assert.Equal(t, model.Translate(5, 5), base.CTM)
}

func TestExecuteCancelled(t *testing.T) {
	r, scope := fixture(t, "<< >>", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(r).Execute(ctx, []byte("q Q"), scope, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
