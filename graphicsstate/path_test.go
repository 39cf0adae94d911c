package graphicsstate

import (
	"testing"

	"github.com/tsawler/pdfexec/model"
)

func TestPathRectangle(t *testing.T) {
	var p Path
	p.Rectangle(model.Identity(), 10, 20, 30, 40)

	if len(p.Segments) != 5 {
		t.Fatalf("segments = %d, want 5", len(p.Segments))
	}
	if p.Segments[4].Type != PathClosePath {
		t.Error("rectangle is not closed")
	}
	want := model.Rect{LLX: 10, LLY: 20, URX: 40, URY: 60}
	if p.Bounds() != want {
		t.Errorf("bounds = %v, want %v", p.Bounds(), want)
	}
}

func TestPathUsesCTM(t *testing.T) {
	var p Path
	ctm := model.Matrix{2, 0, 0, 2, 5, 5}
	p.MoveTo(ctm, 0, 0)
	p.LineTo(ctm, 10, 0)

	want := model.Rect{LLX: 5, LLY: 5, URX: 25, URY: 5}
	if p.Bounds() != want {
		t.Errorf("bounds = %v, want %v", p.Bounds(), want)
	}
}

func TestPathCurves(t *testing.T) {
	var p Path
	id := model.Identity()
	p.MoveTo(id, 0, 0)
	p.CurveTo(id, 0, 10, 10, 10, 10, 0)
	p.CurveToV(id, 20, -5, 20, 0)
	p.CurveToY(id, 25, 5, 30, 0)

	if len(p.Segments) != 4 {
		t.Fatalf("segments = %d, want 4", len(p.Segments))
	}
	v := p.Segments[2].Points
	if v[0] != (model.Point{X: 10, Y: 0}) {
		t.Errorf("v first control = %v, want current point", v[0])
	}
	y := p.Segments[3].Points
	if y[1] != y[2] {
		t.Errorf("y second control %v != end %v", y[1], y[2])
	}
	if b := p.Bounds(); b.LLY != -5 || b.URY != 10 || b.URX != 30 {
		t.Errorf("bounds = %v", b)
	}
}

func TestPathLineWithoutMove(t *testing.T) {
	var p Path
	p.LineTo(model.Identity(), 3, 4)
	p.ClosePath()

	if p.Segments[0].Type != PathMoveTo {
		t.Error("l without a current point should start a subpath")
	}
	p.Clear()
	if !p.IsEmpty() {
		t.Error("Clear left segments")
	}
	p.ClosePath()
	if !p.IsEmpty() {
		t.Error("h without a current point added a segment")
	}
}
