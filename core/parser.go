package core

import (
	"bytes"

	"github.com/pkg/errors"
)

// LengthResolver resolves an indirect /Length value of a stream.
type LengthResolver func(ref IndirectRef) (int64, bool)

// Parser builds objects from tokens. It works over an immutable byte
// slice and owns its cursor, so many parsers can share one buffer.
type Parser struct {
	cur    Cursor
	length LengthResolver
	warn   WarningSink
	// refs enables "<n> <g> R" lookahead. Content streams have no
	// indirect references.
	refs bool
}

// NewParser creates a parser over data positioned at offset.
func NewParser(data []byte, offset int64) *Parser {
	return &Parser{cur: *NewCursor(data, int(offset)), warn: Discard, refs: true}
}

// NewContentParser creates a parser for content stream operands.
func NewContentParser(data []byte) *Parser {
	p := NewParser(data, 0)
	p.refs = false
	return p
}

// SetLengthResolver sets the callback used for indirect stream lengths.
func (p *Parser) SetLengthResolver(fn LengthResolver) {
	p.length = fn
}

// SetWarningSink sets where syntax warnings go.
func (p *Parser) SetWarningSink(w WarningSink) {
	if w == nil {
		w = Discard
	}
	p.warn = w
}

// Cursor exposes the parser position.
func (p *Parser) Cursor() *Cursor {
	return &p.cur
}

// Pos returns the current byte offset.
func (p *Parser) Pos() int64 {
	return int64(p.cur.Pos)
}

// Next returns the next raw token.
func (p *Parser) Next() Token {
	return p.cur.Next()
}

// ParseObject parses the next object. Tokens that cannot start an object
// produce Null and a warning. At end of input ok is false.
func (p *Parser) ParseObject() (Object, bool) {
	tok := p.cur.Next()
	if tok.Type == TokenEOF {
		return Null{}, false
	}
	if obj, ok := p.ParseFrom(tok); ok {
		return obj, true
	}
	Warnf(p.warn, WarnSyntax, tok.Pos, ObjectKey{}, "unexpected token %q", tok.Value)
	return Null{}, true
}

// ParseFrom builds the object that starts with tok. It reports false when
// tok cannot start an object, for example an operator keyword.
func (p *Parser) ParseFrom(tok Token) (Object, bool) {
	switch tok.Type {
	case TokenInteger:
		return p.parseInteger(tok), true
	case TokenReal:
		return Real(tok.Float()), true
	case TokenString, TokenHexString:
		return String(tok.Value), true
	case TokenName:
		return Name(tok.Value), true
	case TokenArrayStart:
		return p.parseArray(), true
	case TokenDictStart:
		return p.parseDict(), true
	case TokenKeyword:
		switch string(tok.Value) {
		case "true":
			return Bool(true), true
		case "false":
			return Bool(false), true
		case "null":
			return Null{}, true
		}
	}
	return nil, false
}

// parseInteger returns an Int, or an IndirectRef when followed by
// "<gen> R".
func (p *Parser) parseInteger(tok Token) Object {
	n := Int(tok.Int())
	if !p.refs || n < 0 {
		return n
	}
	saved := p.cur
	gen := p.cur.Next()
	if gen.Type == TokenInteger && gen.Int() >= 0 {
		if r := p.cur.Next(); r.Is("R") {
			return IndirectRef{Number: int(n), Generation: int(gen.Int())}
		}
	}
	p.cur = saved
	return n
}

func (p *Parser) parseArray() Object {
	arr := Array{}
	for {
		tok := p.cur.Next()
		switch tok.Type {
		case TokenArrayEnd:
			return arr
		case TokenEOF:
			Warnf(p.warn, WarnSyntax, tok.Pos, ObjectKey{}, "unterminated array")
			return arr
		}
		obj, ok := p.ParseFrom(tok)
		if !ok {
			Warnf(p.warn, WarnSyntax, tok.Pos, ObjectKey{}, "unexpected token %q in array", tok.Value)
			if tok.Is("endobj") || tok.Is("stream") || tok.Type == TokenDictEnd {
				p.cur.Pos = int(tok.Pos)
				return arr
			}
			continue
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() Object {
	d := &Dict{vals: make(map[string]Object)}
	for {
		tok := p.cur.Next()
		switch tok.Type {
		case TokenDictEnd:
			return d
		case TokenEOF:
			Warnf(p.warn, WarnSyntax, tok.Pos, ObjectKey{}, "unterminated dictionary")
			return d
		case TokenName:
		default:
			Warnf(p.warn, WarnSyntax, tok.Pos, ObjectKey{}, "dictionary key is %s, not a name", tok.Type)
			if tok.Is("endobj") || tok.Is("stream") {
				p.cur.Pos = int(tok.Pos)
				return d
			}
			continue
		}
		key := string(tok.Value)

		valTok := p.cur.Next()
		if valTok.Type == TokenDictEnd || valTok.Type == TokenEOF {
			Warnf(p.warn, WarnSyntax, valTok.Pos, ObjectKey{}, "missing value for /%s", key)
			p.cur.Pos = int(valTok.Pos)
			continue
		}
		val, ok := p.ParseFrom(valTok)
		if !ok {
			Warnf(p.warn, WarnSyntax, valTok.Pos, ObjectKey{}, "unexpected token %q as value of /%s", valTok.Value, key)
			if valTok.Is("endobj") || valTok.Is("stream") {
				p.cur.Pos = int(valTok.Pos)
				return d
			}
			continue
		}
		// a null value is equivalent to an absent entry
		if _, isNull := val.(Null); isNull {
			continue
		}
		d.set(key, val)
	}
}

// ParseHeader reads "<num> <gen> obj" at the current position.
func (p *Parser) ParseHeader() (ObjectKey, error) {
	start := p.cur.Pos
	num := p.cur.Next()
	gen := p.cur.Next()
	kw := p.cur.Next()
	if num.Type != TokenInteger || gen.Type != TokenInteger || !kw.Is("obj") {
		p.cur.Pos = start
		return ObjectKey{}, errors.Wrapf(ErrNoObjectHeader, "at offset %d", start)
	}
	return ObjectKey{Number: int(num.Int()), Generation: int(gen.Int())}, nil
}

// ParseIndirectObject parses "<num> <gen> obj <object> [stream...endstream] endobj"
// at the current position.
func (p *Parser) ParseIndirectObject() (ObjectKey, Object, error) {
	key, err := p.ParseHeader()
	if err != nil {
		return ObjectKey{}, nil, err
	}
	obj, ok := p.ParseObject()
	if !ok {
		Warnf(p.warn, WarnSyntax, p.Pos(), key, "object body missing")
		return key, Null{}, nil
	}

	saved := p.cur
	next := p.cur.Next()
	if next.Is("stream") {
		dict, isDict := obj.(*Dict)
		if !isDict {
			Warnf(p.warn, WarnSyntax, next.Pos, key, "stream keyword after %s", obj.Type())
			dict = &Dict{}
		}
		return key, p.parseStream(key, dict), nil
	}
	if !next.Is("endobj") {
		p.cur = saved
	}
	return key, obj, nil
}

var endstreamKeyword = []byte("endstream")

// parseStream reads the stream body after the "stream" keyword. A /Length
// that does not land on endstream is replaced by a scan for the keyword.
func (p *Parser) parseStream(key ObjectKey, dict *Dict) *Stream {
	data := p.cur.Data
	pos := p.cur.Pos
	// the keyword is followed by CRLF or LF; a lone CR is tolerated
	if pos < len(data) && data[pos] == '\r' {
		pos++
	}
	if pos < len(data) && data[pos] == '\n' {
		pos++
	}
	start := pos

	length := int64(-1)
	switch l := dict.Get("Length").(type) {
	case Int:
		length = int64(l)
	case IndirectRef:
		if p.length != nil {
			if n, ok := p.length(l); ok {
				length = n
			}
		}
	}

	end := -1
	if length >= 0 && int64(start)+length <= int64(len(data)) {
		candidate := start + int(length)
		c := Cursor{Data: data, Pos: candidate}
		if c.Next().Is("endstream") {
			end = candidate
			p.cur.Pos = c.Pos
		}
	}
	if end < 0 {
		idx := bytes.Index(data[start:], endstreamKeyword)
		if idx < 0 {
			Warnf(p.warn, WarnSyntax, int64(start), key, "endstream not found")
			end = len(data)
			p.cur.Pos = len(data)
		} else {
			end = start + idx
			p.cur.Pos = end + len(endstreamKeyword)
			// drop the EOL that precedes endstream
			if end > start && data[end-1] == '\n' {
				end--
			}
			if end > start && data[end-1] == '\r' {
				end--
			}
			if length >= 0 {
				Warnf(p.warn, WarnSyntax, int64(start), key, "stream length %d is wrong, using %d", length, end-start)
			}
		}
	}

	c := p.cur
	if c.Next().Is("endobj") {
		p.cur = c
	}
	s := NewStream(dict, data[start:end])
	s.Offset = int64(start)
	return s
}
