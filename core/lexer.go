package core

import (
	"math"
	"strconv"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenKeyword              // true, false, null, obj, endobj, R, BT, Tj, etc.
	TokenInteger              // 123
	TokenReal                 // 3.14
	TokenString               // (hello)
	TokenHexString            // <48656C6C6F>
	TokenName                 // /Type
	TokenArrayStart           // [
	TokenArrayEnd             // ]
	TokenDictStart            // <<
	TokenDictEnd              // >>
	TokenDelimiter            // stray ) > { }
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenKeyword:
		return "Keyword"
	case TokenInteger:
		return "Integer"
	case TokenReal:
		return "Real"
	case TokenString:
		return "String"
	case TokenHexString:
		return "HexString"
	case TokenName:
		return "Name"
	case TokenArrayStart:
		return "ArrayStart"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenDictStart:
		return "DictStart"
	case TokenDictEnd:
		return "DictEnd"
	case TokenDelimiter:
		return "Delimiter"
	}
	return "Unknown"
}

// Token represents a lexical token. For strings, hex strings and names
// Value holds the decoded bytes; for every other kind it holds the raw
// bytes of the token.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

// Is reports whether the token is the given keyword.
func (t Token) Is(keyword string) bool {
	return t.Type == TokenKeyword && string(t.Value) == keyword
}

// Int returns the value of a numeric token truncated to an integer.
func (t Token) Int() int64 {
	f, _ := parseNumber(t.Value)
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// Float returns the value of a numeric token.
func (t Token) Float() float64 {
	f, _ := parseNumber(t.Value)
	return f
}

// Cursor is a read position over an immutable byte slice. It is a plain
// value: copying it saves the position and assigning it back restores it.
type Cursor struct {
	Data []byte
	Pos  int
}

// NewCursor returns a cursor over data starting at pos.
func NewCursor(data []byte, pos int) *Cursor {
	if pos < 0 {
		pos = 0
	}
	if pos > len(data) {
		pos = len(data)
	}
	return &Cursor{Data: data, Pos: pos}
}

// Next returns the next token and advances past it.
func (c *Cursor) Next() Token {
	return NextToken(c)
}

// Peek returns the next token without advancing.
func (c *Cursor) Peek() Token {
	saved := *c
	tok := NextToken(c)
	*c = saved
	return tok
}

// AtEOF reports whether only whitespace and comments remain.
func (c *Cursor) AtEOF() bool {
	return c.Peek().Type == TokenEOF
}

// NextToken scans one token starting at c.Pos. It never fails: malformed
// input is turned into the closest sensible token and scanning continues.
func NextToken(c *Cursor) Token {
	data := c.Data
	for {
		skipWhitespace(c)
		if c.Pos >= len(data) {
			return Token{Type: TokenEOF, Pos: int64(len(data))}
		}
		if data[c.Pos] != '%' {
			break
		}
		for c.Pos < len(data) && data[c.Pos] != '\r' && data[c.Pos] != '\n' {
			c.Pos++
		}
	}

	start := c.Pos
	b := data[c.Pos]
	switch b {
	case '[':
		c.Pos++
		return Token{Type: TokenArrayStart, Value: data[start:c.Pos], Pos: int64(start)}
	case ']':
		c.Pos++
		return Token{Type: TokenArrayEnd, Value: data[start:c.Pos], Pos: int64(start)}
	case '(':
		return readString(c)
	case '<':
		if c.Pos+1 < len(data) && data[c.Pos+1] == '<' {
			c.Pos += 2
			return Token{Type: TokenDictStart, Value: data[start:c.Pos], Pos: int64(start)}
		}
		return readHexString(c)
	case '>':
		if c.Pos+1 < len(data) && data[c.Pos+1] == '>' {
			c.Pos += 2
			return Token{Type: TokenDictEnd, Value: data[start:c.Pos], Pos: int64(start)}
		}
		c.Pos++
		return Token{Type: TokenDelimiter, Value: data[start:c.Pos], Pos: int64(start)}
	case ')', '{', '}':
		c.Pos++
		return Token{Type: TokenDelimiter, Value: data[start:c.Pos], Pos: int64(start)}
	case '/':
		return readName(c)
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		for c.Pos < len(data) && isNumberByte(data[c.Pos]) {
			c.Pos++
		}
		raw := data[start:c.Pos]
		_, isReal := parseNumber(raw)
		typ := TokenInteger
		if isReal {
			typ = TokenReal
		}
		return Token{Type: typ, Value: raw, Pos: int64(start)}
	}

	for c.Pos < len(data) && isRegular(data[c.Pos]) {
		c.Pos++
	}
	return Token{Type: TokenKeyword, Value: data[start:c.Pos], Pos: int64(start)}
}

func skipWhitespace(c *Cursor) {
	for c.Pos < len(c.Data) && isWhitespace(c.Data[c.Pos]) {
		c.Pos++
	}
}

// readString reads a literal string. Escapes are decoded and an
// unterminated string yields whatever was collected.
func readString(c *Cursor) Token {
	data := c.Data
	start := c.Pos
	c.Pos++ // (
	buf := make([]byte, 0, 16)
	depth := 1
	for c.Pos < len(data) {
		b := data[c.Pos]
		c.Pos++
		switch b {
		case '(':
			depth++
			buf = append(buf, b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf, Pos: int64(start)}
			}
			buf = append(buf, b)
		case '\\':
			if c.Pos >= len(data) {
				break
			}
			next := data[c.Pos]
			c.Pos++
			switch next {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if c.Pos < len(data) && data[c.Pos] == '\n' {
					c.Pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := int(next - '0')
				for i := 0; i < 2 && c.Pos < len(data) && isOctalDigit(data[c.Pos]); i++ {
					val = val*8 + int(data[c.Pos]-'0')
					c.Pos++
				}
				buf = append(buf, byte(val))
			default:
				// covers \( \) \\ and unknown escapes
				buf = append(buf, next)
			}
		default:
			buf = append(buf, b)
		}
	}
	return Token{Type: TokenString, Value: buf, Pos: int64(start)}
}

// readHexString reads <...>. Non-hex bytes are skipped and an odd digit
// count is padded with a trailing zero nibble.
func readHexString(c *Cursor) Token {
	data := c.Data
	start := c.Pos
	c.Pos++ // <
	buf := make([]byte, 0, 16)
	var hi byte
	half := false
	for c.Pos < len(data) {
		b := data[c.Pos]
		c.Pos++
		if b == '>' {
			break
		}
		if !isHexDigit(b) {
			continue
		}
		if half {
			buf = append(buf, hi<<4|hexValue(b))
			half = false
		} else {
			hi = hexValue(b)
			half = true
		}
	}
	if half {
		buf = append(buf, hi<<4)
	}
	return Token{Type: TokenHexString, Value: buf, Pos: int64(start)}
}

// readName reads /Name with #xx escapes. A malformed escape keeps the '#'.
func readName(c *Cursor) Token {
	data := c.Data
	start := c.Pos
	c.Pos++ // /
	buf := make([]byte, 0, 16)
	for c.Pos < len(data) && isRegular(data[c.Pos]) {
		b := data[c.Pos]
		if b == '#' && c.Pos+2 < len(data) &&
			isHexDigit(data[c.Pos+1]) && isHexDigit(data[c.Pos+2]) {
			buf = append(buf, hexValue(data[c.Pos+1])<<4|hexValue(data[c.Pos+2]))
			c.Pos += 3
			continue
		}
		buf = append(buf, b)
		c.Pos++
	}
	return Token{Type: TokenName, Value: buf, Pos: int64(start)}
}

// parseNumber interprets a run of digits, signs and dots. The first
// leading sign applies, later signs are ignored, the first dot is the
// decimal point and anything after a second dot is dropped.
func parseNumber(raw []byte) (value float64, isReal bool) {
	neg := false
	seenSign := false
	seenDigit := false
	digits := make([]byte, 0, len(raw)+1)
scan:
	for _, b := range raw {
		switch {
		case b == '-' || b == '+':
			if !seenSign && !seenDigit && !isReal {
				neg = b == '-'
			}
			seenSign = true
		case b == '.':
			if isReal {
				break scan
			}
			isReal = true
			digits = append(digits, '.')
		case isDigit(b):
			seenDigit = true
			digits = append(digits, b)
		}
	}
	if !seenDigit {
		return 0, isReal
	}
	if !isReal {
		if n, err := strconv.ParseInt(string(digits), 10, 64); err == nil {
			if neg {
				n = -n
			}
			return float64(n), false
		}
		isReal = true
	}
	f, err := strconv.ParseFloat(string(digits), 64)
	if err != nil {
		return 0, isReal
	}
	if neg {
		f = -f
	}
	return f, isReal
}

// Helper functions

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

func isNumberByte(b byte) bool {
	return isDigit(b) || b == '-' || b == '+' || b == '.'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
