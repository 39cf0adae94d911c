package graphicsstate

import (
	"math"

	"github.com/tsawler/pdfexec/model"
)

// Line cap and join styles
const (
	CapButt   = 0
	CapRound  = 1
	CapSquare = 2

	JoinMiter = 0
	JoinRound = 1
	JoinBevel = 2
)

// Color is a color space name and its components. Pattern colors carry
// the pattern resource name.
type Color struct {
	Space string
	// N is the number of components the space takes. For a Pattern
	// space it counts the components of the underlying space, if any.
	N          int
	Components []float64
	Pattern    string
}

// Black returns DeviceGray black
func Black() Color {
	return Color{Space: "DeviceGray", N: 1, Components: []float64{0}}
}

// Clone copies c with its own components slice.
func (c Color) Clone() Color {
	c.Components = append([]float64(nil), c.Components...)
	return c
}

// Dash is a line dash pattern. An empty Array means a solid line.
type Dash struct {
	Array []float64
	Phase float64
}

// GraphicsState represents the PDF graphics state
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	// Clip bounds in default user space
	Clip model.Rect

	Fill   Color
	Stroke Color

	// Line attributes
	LineWidth  float64
	LineCap    int
	LineJoin   int
	MiterLimit float64
	Dash       Dash

	RenderingIntent string
	Flatness        float64
	StrokeAlpha     float64
	FillAlpha       float64

	Text TextState
}

// TextState represents text-specific state
type TextState struct {
	// FontName is the resource name given to Tf; Font is whatever the
	// font loader returned for it, nil when the font is unusable.
	FontName string
	Font     interface{}
	FontSize float64

	// Character and word spacing
	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling (percentage)
	HorizontalScaling float64

	// Leading (line spacing)
	Leading float64

	RenderMode int
	Rise       float64

	// Text matrices, reset by BT
	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:             model.Identity(),
		Clip:            model.Unbounded(),
		Fill:            Black(),
		Stroke:          Black(),
		LineWidth:       1.0,
		MiterLimit:      10.0,
		RenderingIntent: "RelativeColorimetric",
		Flatness:        1.0,
		StrokeAlpha:     1.0,
		FillAlpha:       1.0,
		Text: TextState{
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Clone creates a deep copy of the graphics state
func (gs *GraphicsState) Clone() *GraphicsState {
	clone := *gs
	clone.Fill = gs.Fill.Clone()
	clone.Stroke = gs.Stroke.Clone()
	clone.Dash.Array = append([]float64(nil), gs.Dash.Array...)
	return &clone
}

// Transform concatenates m to the CTM (cm operator): CTM' = m × CTM
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// ClipTo intersects the clip with a rectangle given in user space.
func (gs *GraphicsState) ClipTo(r model.Rect) {
	gs.Clip = gs.Clip.Intersect(r.Transform(gs.CTM))
}

// BeginText initializes text state (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText starts a new line offset from the start of the current
// one (Td operator)
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.Text.Leading = -ty
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// GlyphAdvance returns the horizontal displacement in text space for one
// glyph of width w (thousandths of text space), including character
// spacing and, for single-byte code 32, word spacing.
func (gs *GraphicsState) GlyphAdvance(w float64, isSpace bool) float64 {
	t := &gs.Text
	tx := w/1000*t.FontSize + t.CharSpacing
	if isSpace {
		tx += t.WordSpacing
	}
	return tx * t.HorizontalScaling / 100
}

// Kern moves the text position for a number in a TJ array, given in
// thousandths of text space.
func (gs *GraphicsState) Kern(adjust float64) {
	gs.Advance(-adjust / 1000 * gs.Text.FontSize * gs.Text.HorizontalScaling / 100)
}

// Advance moves the text matrix tx units along the baseline.
func (gs *GraphicsState) Advance(tx float64) {
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
}

// RenderingMatrix maps glyph space, scaled to the font size, to default
// user space: [Tfs×Th 0 0 Tfs 0 Trise] × Tm × CTM.
func (gs *GraphicsState) RenderingMatrix() model.Matrix {
	t := &gs.Text
	m := model.Matrix{t.FontSize * t.HorizontalScaling / 100, 0, 0, t.FontSize, 0, t.Rise}
	return m.Multiply(t.TextMatrix).Multiply(gs.CTM)
}

// TextPosition returns the current text origin in default user space
func (gs *GraphicsState) TextPosition() model.Point {
	return gs.RenderingMatrix().Transform(model.Point{})
}

// EffectiveFontSize returns the font size after the text matrix and CTM
// are applied, measured along the vertical axis.
func (gs *GraphicsState) EffectiveFontSize() float64 {
	m := gs.RenderingMatrix()
	return math.Hypot(m[2], m[3])
}
