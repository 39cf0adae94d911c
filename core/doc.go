// Package core provides the PDF object model and the low-level machinery
// that locates and parses objects in a file.
//
// # Object Types
//
// Every value satisfies the sealed [Object] interface:
//
//   - [Null], [Bool], [Int], [Real], [String] and [Name] for scalars
//   - [Array] and [Dict] for containers; a nil *Dict behaves as empty
//   - [Stream] for a dictionary plus its raw bytes
//   - [IndirectRef] for a reference to a numbered object
//
// Dictionaries keep their keys in insertion order.
//
// # Parsing
//
// [Cursor] turns bytes into [Token] values and [Parser] turns tokens into
// objects. Both operate on an immutable byte slice, so any number of
// parsers may share one buffer. Malformed input never panics: the parser
// reports a [Warning] and produces the nearest sensible object.
//
// # Cross-Reference Index
//
// [IndexBuilder] reads the cross-reference tables and streams reachable
// from startxref into an [Index]. When the pointer is broken, or the
// sections do not lead to the document catalog, [IndexBuilder.Recover]
// rebuilds the index by scanning the whole file for object headers.
//
// # Stream Decoding
//
// [FilterRegistry] implements [StreamDecoder] for the standard filter
// names. [ParseObjectStream] expands a decoded /ObjStm into its members.
package core
