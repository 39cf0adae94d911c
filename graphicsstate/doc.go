// Package graphicsstate holds the parameters that govern drawing while a
// content stream executes.
//
// # Graphics State
//
// [GraphicsState] tracks the CTM, clip, colors, line style and text
// state. [Stack] implements q/Q: Push saves a deep copy and Pop restores
// it, except that the base state can never be popped.
//
//	st := graphicsstate.NewStack(nil)
//	st.Push()                                    // q
//	st.Current().Transform(model.Scale(2, 2))    // cm
//	st.Pop()                                     // Q
//
// # Text State
//
// Text positioning follows the text matrix and text line matrix: BT
// resets both, Td/TD/T* move to a new line, and each shown glyph
// advances the text matrix by [GraphicsState.GlyphAdvance].
//
// # Paths
//
// [Path] accumulates construction operators in default user space and
// reports the bounding box of the painted path.
package graphicsstate
