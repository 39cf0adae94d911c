// Package contentstream parses and executes PDF content streams.
//
// # Parsing
//
// A content stream is a sequence of operands followed by an operator.
// The parser never fails: stray tokens and dangling operands are reported
// as warnings and skipped.
//
//	for _, op := range contentstream.Parse(data) {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Inline images (BI ... ID ... EI) come back as a single BI operation
// whose operand is the image dictionary, abbreviations expanded, and
// whose InlineData holds the image bytes.
//
// # Execution
//
// An Interpreter runs a stream against a graphics state stack, resolving
// fonts, color spaces, ExtGState dictionaries and XObjects through a
// resources.Scope. What the stream draws is appended to a model.Page:
//
//	in := contentstream.New(r, contentstream.WithWarnings(sink))
//	res, err := in.Execute(ctx, data, scope, page)
//
// Operators with too few operands use their defaults when they have
// them and are skipped otherwise. Of extra operands only the trailing
// ones are used. Unknown operators are skipped, silently between BX and
// EX. Form XObjects run in a child frame with their own scope, and a
// form that invokes itself, directly or through others, is not entered
// again.
//
// Execute returns an error only when its context is done.
package contentstream
