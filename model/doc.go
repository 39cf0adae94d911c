// Package model defines the geometry and the drawn elements produced by
// content stream execution.
//
// # Geometry
//
//   - [Point] - a position
//   - [Matrix] - an affine transform in the [a b c d e f] form used by cm
//     and /Matrix entries
//   - [Rect] - an axis-aligned rectangle, possibly unbounded
//
// # Elements
//
// Every mark implements [Element]: [PathElement], [TextElement],
// [ImageElement] and [ShadingElement]. A [Page] collects them in
// drawing order.
package model
