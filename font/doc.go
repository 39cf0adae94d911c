// Package font provides the font metrics and text decoding used while
// executing content streams.
//
// # Font Types
//
// [Load] reads a font resource and returns a [Font]:
//
//   - [SimpleFont] - Type1, MMType1 and TrueType fonts with one-byte codes
//   - [Type0Font] - composite fonts, widths from the descendant's /DW and /W
//   - [Type3Font] - glyph procedure fonts, widths scaled by /FontMatrix
//
// Font programs are never parsed. Widths come from the font dictionary,
// and simple fonts without /Widths fall back to built-in metrics for the
// standard 14 fonts.
//
// # Text Decoding
//
// Codes are mapped to Unicode through the /ToUnicode CMap when present,
// otherwise through the font's encoding:
//
//	codes := font.Codes(f, shown)
//	text := f.Text(codes)
//
// Output is normalized to NFC.
//
// # Encodings
//
//   - WinAnsiEncoding, MacRomanEncoding, StandardEncoding, PDFDocEncoding
//   - /Differences arrays with standard glyph names and uniXXXX names
//   - UTF-16BE for composite fonts without a ToUnicode entry
package font
