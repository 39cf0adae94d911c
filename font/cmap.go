package font

import (
	"sort"

	"github.com/tsawler/pdfexec/core"
)

// CMap maps character codes to Unicode text. It is read from a font's
// /ToUnicode stream.
type CMap struct {
	chars  map[uint32]string
	ranges []cmapRange
	// codeBytes is the source code length declared by the codespace
	// ranges, 0 when none were declared
	codeBytes int
}

// cmapRange maps lo..hi either to consecutive values starting at dst or
// to the explicit strings in array.
type cmapRange struct {
	lo, hi uint32
	dst    []byte
	array  []string
}

// NewCMap creates an empty CMap
func NewCMap() *CMap {
	return &CMap{chars: make(map[uint32]string)}
}

// ParseCMap reads the codespacerange, bfchar and bfrange sections of
// data. Other CMap operators and anything malformed are skipped.
func ParseCMap(data []byte) *CMap {
	cm := NewCMap()
	c := core.NewCursor(data, 0)
	for {
		tok := c.Next()
		switch {
		case tok.Type == core.TokenEOF:
			sort.Slice(cm.ranges, func(i, j int) bool { return cm.ranges[i].lo < cm.ranges[j].lo })
			return cm
		case tok.Is("begincodespacerange"):
			cm.parseCodespace(c)
		case tok.Is("beginbfchar"):
			cm.parseBfChar(c)
		case tok.Is("beginbfrange"):
			cm.parseBfRange(c)
		}
	}
}

func (cm *CMap) parseCodespace(c *core.Cursor) {
	for {
		lo := c.Next()
		if lo.Type != core.TokenHexString {
			return
		}
		c.Next()
		if cm.codeBytes == 0 || len(lo.Value) < cm.codeBytes {
			cm.codeBytes = len(lo.Value)
		}
	}
}

// bfchar: <src> <dst> pairs
func (cm *CMap) parseBfChar(c *core.Cursor) {
	for {
		src := c.Next()
		if src.Type != core.TokenHexString {
			return
		}
		dst := c.Next()
		switch dst.Type {
		case core.TokenHexString:
			cm.chars[codeValue(src.Value)] = DecodeUTF16BE(dst.Value)
		case core.TokenName:
			if r, ok := GlyphRune(string(dst.Value)); ok {
				cm.chars[codeValue(src.Value)] = string(r)
			}
		default:
			return
		}
	}
}

// bfrange: <lo> <hi> <dst> or <lo> <hi> [<dst> ...]
func (cm *CMap) parseBfRange(c *core.Cursor) {
	for {
		lo := c.Next()
		if lo.Type != core.TokenHexString {
			return
		}
		hi := c.Next()
		if hi.Type != core.TokenHexString {
			return
		}
		r := cmapRange{lo: codeValue(lo.Value), hi: codeValue(hi.Value)}
		dst := c.Next()
		switch dst.Type {
		case core.TokenHexString:
			r.dst = append([]byte(nil), dst.Value...)
		case core.TokenArrayStart:
			for {
				elem := c.Next()
				if elem.Type != core.TokenHexString {
					break
				}
				r.array = append(r.array, DecodeUTF16BE(elem.Value))
			}
		default:
			return
		}
		if r.hi >= r.lo {
			cm.ranges = append(cm.ranges, r)
		}
	}
}

// codeValue reads a big-endian source code of up to four bytes
func codeValue(b []byte) uint32 {
	var v uint32
	for i, x := range b {
		if i == 4 {
			break
		}
		v = v<<8 | uint32(x)
	}
	return v
}

// Lookup returns the text for one code.
func (cm *CMap) Lookup(code uint32) (string, bool) {
	if cm == nil {
		return "", false
	}
	if s, ok := cm.chars[code]; ok {
		return s, true
	}
	for _, r := range cm.ranges {
		if code < r.lo {
			break
		}
		if code > r.hi {
			continue
		}
		off := code - r.lo
		if r.array != nil {
			if int(off) < len(r.array) {
				return r.array[off], true
			}
			continue
		}
		return DecodeUTF16BE(incrementBytes(r.dst, off)), true
	}
	return "", false
}

// incrementBytes adds n to the last two bytes of b, the way bfrange
// destinations advance.
func incrementBytes(b []byte, n uint32) []byte {
	out := append([]byte(nil), b...)
	if len(out) < 2 {
		out = append(make([]byte, 2-len(out)), out...)
	}
	last := len(out) - 2
	v := uint32(out[last])<<8 | uint32(out[last+1])
	v += n
	out[last] = byte(v >> 8)
	out[last+1] = byte(v)
	return out
}

// Len returns the number of single mappings plus ranges.
func (cm *CMap) Len() int {
	return len(cm.chars) + len(cm.ranges)
}

// CodeBytes returns the code length declared by the codespace ranges.
func (cm *CMap) CodeBytes() int {
	return cm.codeBytes
}
