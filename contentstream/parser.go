package contentstream

import (
	"bytes"

	"github.com/tsawler/pdfexec/core"
)

// Operation represents a single content stream operation consisting of an
// operator and the operands that precede it.
type Operation struct {
	Operator string        // The operator (e.g., "Tj", "Tm", "q")
	Operands []core.Object // The operands
	// Offset is the byte position of the operator
	Offset int64
	// InlineData holds the image bytes of a BI operation, whose single
	// operand is the image dictionary.
	InlineData []byte
}

// Parser splits a content stream into operations. It never fails:
// unusable tokens are reported to the warning sink and skipped.
type Parser struct {
	p        *core.Parser
	warn     core.WarningSink
	operands []core.Object
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{p: core.NewContentParser(data), warn: core.Discard}
}

// SetWarningSink sets where syntax warnings go.
func (p *Parser) SetWarningSink(w core.WarningSink) {
	if w == nil {
		w = core.Discard
	}
	p.warn = w
	p.p.SetWarningSink(w)
}

// Parse parses the rest of the stream and returns all operations in order.
func (p *Parser) Parse() []Operation {
	var ops []Operation
	for {
		op, ok := p.Next()
		if !ok {
			return ops
		}
		ops = append(ops, op)
	}
}

// Parse is shorthand for NewParser(data).Parse().
func Parse(data []byte) []Operation {
	return NewParser(data).Parse()
}

// Next returns the next operation. ok is false at the end of the stream;
// operands left over at that point are dropped with a warning.
func (p *Parser) Next() (Operation, bool) {
	for {
		tok := p.p.Next()
		switch tok.Type {
		case core.TokenEOF:
			if len(p.operands) > 0 {
				core.Warnf(p.warn, core.WarnOperands, tok.Pos, core.ObjectKey{}, "%d operands without an operator at end of stream", len(p.operands))
				p.operands = nil
			}
			return Operation{}, false
		case core.TokenKeyword:
			if obj, ok := p.p.ParseFrom(tok); ok {
				p.operands = append(p.operands, obj)
				continue
			}
			op := Operation{Operator: string(tok.Value), Operands: p.operands, Offset: tok.Pos}
			p.operands = nil
			if op.Operator == "BI" {
				p.inlineImage(&op)
			}
			return op, true
		}
		obj, ok := p.p.ParseFrom(tok)
		if !ok {
			core.Warnf(p.warn, core.WarnSyntax, tok.Pos, core.ObjectKey{}, "unexpected %s %q in content stream", tok.Type, tok.Value)
			continue
		}
		p.operands = append(p.operands, obj)
	}
}

// inlineImage reads "<key> <value> ... ID <data> EI" after BI. The
// dictionary becomes the operation's operand, with abbreviated keys
// expanded.
func (p *Parser) inlineImage(op *Operation) {
	var entries []core.DictEntry
	for {
		tok := p.p.Next()
		if tok.Is("ID") || tok.Type == core.TokenEOF {
			break
		}
		if tok.Type != core.TokenName {
			core.Warnf(p.warn, core.WarnSyntax, tok.Pos, core.ObjectKey{}, "inline image key is %s", tok.Type)
			continue
		}
		valTok := p.p.Next()
		if valTok.Is("ID") {
			core.Warnf(p.warn, core.WarnSyntax, valTok.Pos, core.ObjectKey{}, "inline image key /%s has no value", tok.Value)
			break
		}
		val, ok := p.p.ParseFrom(valTok)
		if !ok {
			continue
		}
		entries = append(entries, core.DictEntry{Key: expandInlineKey(string(tok.Value)), Value: expandInlineValue(val)})
	}
	dict := core.NewDict(entries...)
	op.Operands = []core.Object{dict}

	cur := p.p.Cursor()
	data := cur.Data
	start := cur.Pos
	// a single whitespace byte separates ID from the data
	if start < len(data) && isSpace(data[start]) {
		start++
	}
	if n, ok := dict.GetInt("Length"); ok && n >= 0 && start+int(n) <= len(data) {
		end := start + int(n)
		c := core.Cursor{Data: data, Pos: end}
		if c.Next().Is("EI") {
			op.InlineData = data[start:end]
			cur.Pos = c.Pos
			return
		}
	}
	end, next := findEI(data, start)
	if end < 0 {
		core.Warnf(p.warn, core.WarnSyntax, int64(start), core.ObjectKey{}, "inline image has no EI")
		op.InlineData = data[start:]
		cur.Pos = len(data)
		return
	}
	op.InlineData = data[start:end]
	cur.Pos = next
}

// findEI locates an EI keyword that is preceded by whitespace and
// followed by whitespace, a delimiter or the end of data. It returns the
// end of the image data and the position after EI.
func findEI(data []byte, from int) (end, next int) {
	pos := from
	for {
		i := bytes.Index(data[pos:], []byte("EI"))
		if i < 0 {
			return -1, -1
		}
		at := pos + i
		pos = at + 2
		if at == from || !isSpace(data[at-1]) {
			continue
		}
		if at+2 < len(data) && !isSpace(data[at+2]) && !isDelim(data[at+2]) {
			continue
		}
		return at - 1, at + 2
	}
}

var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"L":   "Length",
	"W":   "Width",
}

var inlineNames = map[core.Name]core.Name{
	"G":     "DeviceGray",
	"RGB":   "DeviceRGB",
	"CMYK":  "DeviceCMYK",
	"I":     "Indexed",
	"AHx":   "ASCIIHexDecode",
	"A85":   "ASCII85Decode",
	"LZW":   "LZWDecode",
	"Fl":    "FlateDecode",
	"RL":    "RunLengthDecode",
	"CCF":   "CCITTFaxDecode",
	"DCT":   "DCTDecode",
}

func expandInlineKey(k string) string {
	if full, ok := inlineKeys[k]; ok {
		return full
	}
	return k
}

func expandInlineValue(v core.Object) core.Object {
	switch x := v.(type) {
	case core.Name:
		if full, ok := inlineNames[x]; ok {
			return full
		}
	case core.Array:
		out := make(core.Array, len(x))
		for i, elem := range x {
			out[i] = expandInlineValue(elem)
		}
		return out
	}
	return v
}

func isSpace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
