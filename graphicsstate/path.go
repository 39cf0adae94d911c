package graphicsstate

import (
	"github.com/tsawler/pdfexec/model"
)

// PathSegmentType defines the type of path segment
type PathSegmentType int

const (
	// PathMoveTo starts a new subpath
	PathMoveTo PathSegmentType = iota
	// PathLineTo draws a line to a point
	PathLineTo
	// PathCurveTo draws a cubic Bézier curve
	PathCurveTo
	// PathClosePath closes the current subpath
	PathClosePath
)

// PathSegment is one path construction step. Points are in default user
// space, already transformed by the CTM in effect when the segment was
// added.
type PathSegment struct {
	Type   PathSegmentType
	Points []model.Point
}

// Path is the current path between construction and painting operators.
type Path struct {
	Segments []PathSegment

	// current point and subpath start, in user space
	current      model.Point
	subpathStart model.Point
	hasCurrent   bool

	bounds    model.Rect
	hasBounds bool
}

// MoveTo starts a new subpath at (x, y) (m operator)
func (p *Path) MoveTo(ctm model.Matrix, x, y float64) {
	pt := model.Point{X: x, Y: y}
	p.add(ctm, PathMoveTo, pt)
	p.current, p.subpathStart, p.hasCurrent = pt, pt, true
}

// LineTo appends a line from the current point (l operator). Without a
// current point it acts as MoveTo.
func (p *Path) LineTo(ctm model.Matrix, x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(ctm, x, y)
		return
	}
	pt := model.Point{X: x, Y: y}
	p.add(ctm, PathLineTo, pt)
	p.current = pt
}

// CurveTo appends a cubic Bézier curve (c operator)
func (p *Path) CurveTo(ctm model.Matrix, x1, y1, x2, y2, x3, y3 float64) {
	if !p.hasCurrent {
		p.MoveTo(ctm, x1, y1)
	}
	end := model.Point{X: x3, Y: y3}
	p.add(ctm, PathCurveTo, model.Point{X: x1, Y: y1}, model.Point{X: x2, Y: y2}, end)
	p.current = end
}

// CurveToV uses the current point as the first control point (v operator)
func (p *Path) CurveToV(ctm model.Matrix, x2, y2, x3, y3 float64) {
	p.CurveTo(ctm, p.current.X, p.current.Y, x2, y2, x3, y3)
}

// CurveToY uses the end point as the second control point (y operator)
func (p *Path) CurveToY(ctm model.Matrix, x1, y1, x3, y3 float64) {
	p.CurveTo(ctm, x1, y1, x3, y3, x3, y3)
}

// ClosePath closes the current subpath (h operator)
func (p *Path) ClosePath() {
	if !p.hasCurrent {
		return
	}
	p.Segments = append(p.Segments, PathSegment{Type: PathClosePath})
	p.current = p.subpathStart
}

// Rectangle appends a closed rectangle subpath (re operator)
func (p *Path) Rectangle(ctm model.Matrix, x, y, width, height float64) {
	p.MoveTo(ctm, x, y)
	p.LineTo(ctm, x+width, y)
	p.LineTo(ctm, x+width, y+height)
	p.LineTo(ctm, x, y+height)
	p.ClosePath()
}

func (p *Path) add(ctm model.Matrix, t PathSegmentType, pts ...model.Point) {
	seg := PathSegment{Type: t, Points: make([]model.Point, len(pts))}
	for i, pt := range pts {
		dp := ctm.Transform(pt)
		seg.Points[i] = dp
		if !p.hasBounds {
			p.bounds = model.Rect{LLX: dp.X, LLY: dp.Y, URX: dp.X, URY: dp.Y}
			p.hasBounds = true
		} else {
			p.bounds = p.bounds.Extend(dp)
		}
	}
	p.Segments = append(p.Segments, seg)
}

// Bounds returns the bounding box of every point in the path, control
// points included.
func (p *Path) Bounds() model.Rect {
	return p.bounds
}

// Clear resets the path
func (p *Path) Clear() {
	*p = Path{}
}

// IsEmpty returns true if the path has no segments
func (p *Path) IsEmpty() bool {
	return len(p.Segments) == 0
}
