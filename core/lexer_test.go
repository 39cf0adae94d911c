package core

import (
	"testing"
)

func tokens(input string) []Token {
	c := NewCursor([]byte(input), 0)
	var out []Token
	for {
		tok := c.Next()
		if tok.Type == TokenEOF {
			return out
		}
		out = append(out, tok)
	}
}

// TestLexerEOF tests EOF handling
func TestLexerEOF(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"whitespace only", "   \t\n\r  "},
		{"comment only", "%PDF-1.7\n% another"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor([]byte(tt.input), 0)
			if tok := c.Next(); tok.Type != TokenEOF {
				t.Errorf("expected TokenEOF, got %v", tok.Type)
			}
		})
	}
}

// TestLexerLiteralStrings tests escapes, nesting and unterminated strings
func TestLexerLiteralStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "(hello)", "hello"},
		{"nested parens", "(a (b) c)", "a (b) c"},
		{"escaped parens", `(a \( b \))`, "a ( b )"},
		{"standard escapes", `(\n\r\t\b\f\\)`, "\n\r\t\b\f\\"},
		{"octal three digits", `(\101\102)`, "AB"},
		{"octal short", `(\7x)`, "\x07x"},
		{"octal overflow wraps", `(\501)`, "A"},
		{"line continuation LF", "(ab\\\ncd)", "abcd"},
		{"line continuation CRLF", "(ab\\\r\ncd)", "abcd"},
		{"unknown escape keeps char", `(\q)`, "q"},
		{"unterminated", "(abc", "abc"},
		{"unterminated nested", "(abc (def)", "abc (def)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(tt.input)
			if len(toks) != 1 {
				t.Fatalf("expected 1 token, got %d", len(toks))
			}
			if toks[0].Type != TokenString {
				t.Fatalf("expected TokenString, got %v", toks[0].Type)
			}
			if got := string(toks[0].Value); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLexerHexStrings tests hex decoding with padding and junk
func TestLexerHexStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "<48656C6C6F>", "Hello"},
		{"lowercase", "<48656c6c6f>", "Hello"},
		{"whitespace", "<48 65\n6C 6C 6F>", "Hello"},
		{"odd digits padded", "<414>", "A@"},
		{"non-hex skipped", "<4x1>", "A"},
		{"empty", "<>", ""},
		{"unterminated", "<4142", "AB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(tt.input)
			if len(toks) != 1 || toks[0].Type != TokenHexString {
				t.Fatalf("expected one hex string token, got %v", toks)
			}
			if got := string(toks[0].Value); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLexerNumbers tests best-effort numeric parsing
func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		want  float64
	}{
		{"123", TokenInteger, 123},
		{"-17", TokenInteger, -17},
		{"+5", TokenInteger, 5},
		{"3.14", TokenReal, 3.14},
		{"-.5", TokenReal, -0.5},
		{"4.", TokenReal, 4},
		{"--5", TokenInteger, -5},
		{"5-3", TokenInteger, 53},
		{"1.2.3", TokenReal, 1.2},
		{"-", TokenInteger, 0},
		{".", TokenReal, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := tokens(tt.input)
			if len(toks) != 1 {
				t.Fatalf("expected 1 token, got %d", len(toks))
			}
			if toks[0].Type != tt.typ {
				t.Errorf("type = %v, want %v", toks[0].Type, tt.typ)
			}
			if got := toks[0].Float(); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLexerNames tests name escapes
func TestLexerNames(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/Type", "Type"},
		{"/A#20B", "A B"},
		{"/A#2", "A#2"},
		{"/A#zzB", "A#zzB"},
		{"/", ""},
		{"/F1.0", "F1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := tokens(tt.input)
			if len(toks) != 1 || toks[0].Type != TokenName {
				t.Fatalf("expected one name token, got %v", toks)
			}
			if got := string(toks[0].Value); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLexerDelimitersAndKeywords tests structural tokens and operator keywords
func TestLexerDelimitersAndKeywords(t *testing.T) {
	toks := tokens("<< /A [1 2] >> ) } { > T* ' \" f* d0 endobj/B")
	want := []struct {
		typ TokenType
		val string
	}{
		{TokenDictStart, "<<"},
		{TokenName, "A"},
		{TokenArrayStart, "["},
		{TokenInteger, "1"},
		{TokenInteger, "2"},
		{TokenArrayEnd, "]"},
		{TokenDictEnd, ">>"},
		{TokenDelimiter, ")"},
		{TokenDelimiter, "}"},
		{TokenDelimiter, "{"},
		{TokenDelimiter, ">"},
		{TokenKeyword, "T*"},
		{TokenKeyword, "'"},
		{TokenKeyword, "\""},
		{TokenKeyword, "f*"},
		{TokenKeyword, "d0"},
		{TokenKeyword, "endobj"},
		{TokenName, "B"},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w.typ || string(toks[i].Value) != w.val {
			t.Errorf("token %d = %v %q, want %v %q", i, toks[i].Type, toks[i].Value, w.typ, w.val)
		}
	}
}

func TestCursorPeekDoesNotAdvance(t *testing.T) {
	c := NewCursor([]byte("1 2 R"), 0)
	p := c.Peek()
	n := c.Next()
	if p.Pos != n.Pos || string(p.Value) != string(n.Value) {
		t.Errorf("Peek %v differs from Next %v", p, n)
	}
	saved := *c
	c.Next()
	c.Next()
	*c = saved
	if tok := c.Next(); tok.Int() != 2 {
		t.Errorf("restored cursor read %q, want 2", tok.Value)
	}
}

func TestTokenPositions(t *testing.T) {
	toks := tokens("  /Name (s)")
	if toks[0].Pos != 2 {
		t.Errorf("name at %d, want 2", toks[0].Pos)
	}
	if toks[1].Pos != 8 {
		t.Errorf("string at %d, want 8", toks[1].Pos)
	}
}
