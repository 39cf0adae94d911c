package model

import "strings"

// Page is the result of executing one page's content
type Page struct {
	Number   int // 1-indexed page number
	MediaBox Rect
	CropBox  Rect
	Rotate   int // 0, 90, 180 or 270
	Elements []Element
}

// AddElement adds an element to the page
func (p *Page) AddElement(elem Element) {
	p.Elements = append(p.Elements, elem)
}

// Texts returns the text elements in drawing order
func (p *Page) Texts() []*TextElement {
	var out []*TextElement
	for _, elem := range p.Elements {
		if te, ok := elem.(*TextElement); ok {
			out = append(out, te)
		}
	}
	return out
}

// Text concatenates the decoded text of every text element, one per line.
func (p *Page) Text() string {
	var sb strings.Builder
	for _, te := range p.Texts() {
		sb.WriteString(te.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Count returns how many elements of the given type the page has
func (p *Page) Count(t ElementType) int {
	n := 0
	for _, elem := range p.Elements {
		if elem.Type() == t {
			n++
		}
	}
	return n
}
