package font

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/pdfexec/core"
)

// Encoding maps single-byte character codes to Unicode.
type Encoding struct {
	name  string
	table [256]rune
}

func newCharmapEncoding(name string, cm *charmap.Charmap, overrides map[byte]rune) *Encoding {
	e := &Encoding{name: name}
	for i := 0; i < 256; i++ {
		e.table[i] = cm.DecodeByte(byte(i))
	}
	for b, r := range overrides {
		e.table[b] = r
	}
	return e
}

// The predefined simple font encodings.
var (
	WinAnsiEncoding  = newCharmapEncoding("WinAnsiEncoding", charmap.Windows1252, nil)
	MacRomanEncoding = newCharmapEncoding("MacRomanEncoding", charmap.Macintosh, nil)
	StandardEncoding = newStandardEncoding()
	PDFDocEncoding = newCharmapEncoding("PDFDocEncoding", charmap.ISO8859_1, map[byte]rune{
		0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
		0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
		0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
		0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
		0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
		0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
		0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
		0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
		0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
		0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0xA0: '€',
	})
)

// newStandardEncoding builds Adobe StandardEncoding: ASCII with curly
// quotes in the lower half and a sparse upper half.
func newStandardEncoding() *Encoding {
	e := newCharmapEncoding("StandardEncoding", charmap.ISO8859_1, map[byte]rune{
		0x27: '’',
		0x60: '‘',
	})
	for i := 0x7F; i < 256; i++ {
		e.table[i] = 0
	}
	upper := map[byte]rune{
		0xA1: '¡', 0xA2: '¢', 0xA3: '£', 0xA4: '⁄', 0xA5: '¥', 0xA6: 'ƒ',
		0xA7: '§', 0xA8: '¤', 0xA9: '\'', 0xAA: '“', 0xAB: '«', 0xAC: '‹',
		0xAD: '›', 0xAE: 'ﬁ', 0xAF: 'ﬂ', 0xB1: '–', 0xB2: '†', 0xB3: '‡',
		0xB4: '·', 0xB6: '¶', 0xB7: '•', 0xB8: '‚', 0xB9: '„', 0xBA: '”',
		0xBB: '»', 0xBC: '…', 0xBD: '‰', 0xBF: '¿', 0xC1: '`', 0xC2: '´',
		0xC3: 'ˆ', 0xC4: '˜', 0xC5: '¯', 0xC6: '˘', 0xC7: '˙', 0xC8: '¨',
		0xCA: '˚', 0xCB: '¸', 0xCD: '˝', 0xCE: '˛', 0xCF: 'ˇ', 0xD0: '—',
		0xE1: 'Æ', 0xE3: 'ª', 0xE8: 'Ł', 0xE9: 'Ø', 0xEA: 'Œ', 0xEB: 'º',
		0xF1: 'æ', 0xF5: 'ı', 0xF8: 'ł', 0xF9: 'ø', 0xFA: 'œ', 0xFB: 'ß',
	}
	for b, r := range upper {
		e.table[b] = r
	}
	return e
}

// GetEncoding returns a predefined encoding by name. Unknown names get
// WinAnsiEncoding.
func GetEncoding(name string) *Encoding {
	switch name {
	case "MacRomanEncoding":
		return MacRomanEncoding
	case "StandardEncoding":
		return StandardEncoding
	case "PDFDocEncoding":
		return PDFDocEncoding
	}
	return WinAnsiEncoding
}

// Name returns the encoding name
func (e *Encoding) Name() string {
	return e.name
}

// Decode maps one code to a rune
func (e *Encoding) Decode(b byte) rune {
	return e.table[b]
}

// DecodeString maps every byte of data and normalizes the result.
func (e *Encoding) DecodeString(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if r := e.table[b]; r != 0 {
			sb.WriteRune(r)
		}
	}
	return NormalizeUnicode(sb.String())
}

// WithDifferences returns a copy of e with a /Differences array applied.
// Each integer in diffs starts a run of codes; each following name
// replaces the next code. Unknown glyph names leave the base mapping.
func (e *Encoding) WithDifferences(diffs core.Array) *Encoding {
	out := &Encoding{name: e.name, table: e.table}
	code := -1
	for _, d := range diffs {
		switch v := d.(type) {
		case core.Int:
			code = int(v)
		case core.Name:
			if code < 0 || code > 255 {
				continue
			}
			if r, ok := GlyphRune(string(v)); ok {
				out.table[code] = r
			}
			code++
		}
	}
	return out
}

// DecodeWithEncoding decodes data with a named encoding.
func DecodeWithEncoding(data []byte, name string) string {
	return GetEncoding(name).DecodeString(data)
}

// NormalizeUnicode converts s to NFC so that precomposed and decomposed
// forms of the same text compare equal.
func NormalizeUnicode(s string) string {
	return norm.NFC.String(s)
}

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// DecodeUTF16BE decodes big-endian UTF-16. A leading byte order mark is
// dropped and an odd trailing byte is ignored.
func DecodeUTF16BE(data []byte) string {
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}
	out, err := utf16be.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(string(out), "\ufeff")
}

// GlyphRune maps a glyph name to Unicode. Besides the names below it
// understands "uniXXXX", "uXXXX" to "uXXXXXX" and single-letter names.
func GlyphRune(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if len(name) == 1 {
		return rune(name[0]), true
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10FFFF {
			return rune(v), true
		}
	}
	return 0, false
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "asciicircum": '^',
	"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
	"braceright": '}', "asciitilde": '~',
	"quoteleft": '‘', "quoteright": '’', "quotedblleft": '“',
	"quotedblright": '”', "quotesinglbase": '‚', "quotedblbase": '„',
	"endash": '–', "emdash": '—', "bullet": '•', "ellipsis": '…',
	"dagger": '†', "daggerdbl": '‡', "trademark": '™',
	"copyright": '©', "registered": '®', "degree": '°',
	"section": '§', "paragraph": '¶', "Euro": '€',
	"sterling": '£', "yen": '¥', "cent": '¢', "florin": 'ƒ',
	"fi": 'ﬁ', "fl": 'ﬂ', "ff": 'ﬀ', "ffi": 'ﬃ', "ffl": 'ﬄ',
	"minus": '−', "multiply": '×', "divide": '÷',
	"plusminus": '±', "mu": 'µ', "nbspace": ' ',
	"Aacute": 'Á', "aacute": 'á', "Agrave": 'À', "agrave": 'à',
	"Adieresis": 'Ä', "adieresis": 'ä', "Eacute": 'É', "eacute": 'é',
	"Egrave": 'È', "egrave": 'è', "Iacute": 'Í', "iacute": 'í',
	"Oacute": 'Ó', "oacute": 'ó', "Odieresis": 'Ö', "odieresis": 'ö',
	"Uacute": 'Ú', "uacute": 'ú', "Udieresis": 'Ü', "udieresis": 'ü',
	"Ntilde": 'Ñ', "ntilde": 'ñ', "Ccedilla": 'Ç', "ccedilla": 'ç',
	"germandbls": 'ß', "dotlessi": 'ı', "OE": 'Œ', "oe": 'œ',
	"Lslash": 'Ł', "lslash": 'ł', "Scaron": 'Š', "scaron": 'š',
	"Zcaron": 'Ž', "zcaron": 'ž',
}
