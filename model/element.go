package model

// ElementType identifies what an interpreted operator drew
type ElementType int

const (
	ElementTypeUnknown ElementType = iota
	ElementTypePath
	ElementTypeText
	ElementTypeImage
	ElementTypeShading
)

func (et ElementType) String() string {
	switch et {
	case ElementTypePath:
		return "Path"
	case ElementTypeText:
		return "Text"
	case ElementTypeImage:
		return "Image"
	case ElementTypeShading:
		return "Shading"
	default:
		return "Unknown"
	}
}

// Element is a mark produced while executing a content stream. Bounds
// are in default user space.
type Element interface {
	Type() ElementType
	BoundingBox() Rect
}

// PathElement is a painted path
type PathElement struct {
	Op        string // painting operator, e.g. "S" or "f*"
	Stroke    bool
	Fill      bool
	EvenOdd   bool
	Segments  int
	LineWidth float64
	Bounds    Rect
	Clip      Rect
	FillColor []float64
}

func (p *PathElement) Type() ElementType { return ElementTypePath }
func (p *PathElement) BoundingBox() Rect { return p.Bounds }

// TextElement is one run of shown text.
type TextElement struct {
	Font     string // resource name of the font
	FontSize float64
	Codes    []int
	// Widths holds each glyph's advance in thousandths of text space
	Widths     []float64
	Text       string
	Matrix     Matrix // text rendering matrix at the first glyph
	RenderMode int
	Bounds     Rect
}

func (t *TextElement) Type() ElementType { return ElementTypeText }
func (t *TextElement) BoundingBox() Rect { return t.Bounds }

// ImageElement is a drawn image XObject or inline image
type ImageElement struct {
	Name          string // resource name, empty for inline images
	Inline        bool
	Width, Height int
	ColorSpace    string
	Matrix        Matrix
	Bounds        Rect
}

func (i *ImageElement) Type() ElementType { return ElementTypeImage }
func (i *ImageElement) BoundingBox() Rect { return i.Bounds }

// ShadingElement is a shading painted with sh
type ShadingElement struct {
	Name   string
	Bounds Rect
}

func (s *ShadingElement) Type() ElementType { return ElementTypeShading }
func (s *ShadingElement) BoundingBox() Rect { return s.Bounds }
