package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseOne(t *testing.T, input string) Object {
	t.Helper()
	p := NewParser([]byte(input), 0)
	obj, ok := p.ParseObject()
	if !ok {
		t.Fatalf("no object in %q", input)
	}
	return obj
}

func TestParseObjectScalars(t *testing.T) {
	tests := []struct {
		input string
		want  Object
	}{
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"null", Null{}},
		{"42", Int(42)},
		{"-1.25", Real(-1.25)},
		{"(str)", String("str")},
		{"<414243>", String("ABC")},
		{"/Name", Name("Name")},
		{"12 0 R", IndirectRef{Number: 12}},
		{"12 3 R", IndirectRef{Number: 12, Generation: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseOne(t, tt.input); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseIntegersNotReferences(t *testing.T) {
	p := NewParser([]byte("1 2 3"), 0)
	var got []Object
	for {
		obj, ok := p.ParseObject()
		if !ok {
			break
		}
		got = append(got, obj)
	}
	want := []Object{Int(1), Int(2), Int(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseArrayAndDict(t *testing.T) {
	obj := parseOne(t, "<< /Type /Page /Kids [1 0 R 2 0 R] /Box [0 0 612.5 792] /Nested << /A true >> /Gone null >>")
	d, ok := obj.(*Dict)
	if !ok {
		t.Fatalf("expected *Dict, got %T", obj)
	}
	if diff := cmp.Diff([]string{"Type", "Kids", "Box", "Nested"}, d.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	kids, _ := d.GetArray("Kids")
	if len(kids) != 2 || kids[1] != (IndirectRef{Number: 2}) {
		t.Errorf("Kids = %v", kids)
	}
	box, _ := d.GetArray("Box")
	if vals, ok := box.Floats(); !ok || vals[2] != 612.5 {
		t.Errorf("Box = %v", box)
	}
	nested, _ := d.GetDict("Nested")
	if b, _ := nested.GetBool("A"); !b {
		t.Error("Nested /A should be true")
	}
}

func TestParseMalformedRecovers(t *testing.T) {
	var ws Warnings
	p := NewParser([]byte("<< /A 1 2 /B [1 } 2] /C >>"), 0)
	p.SetWarningSink(&ws)
	obj, _ := p.ParseObject()
	d, ok := obj.(*Dict)
	if !ok {
		t.Fatalf("expected *Dict, got %T", obj)
	}
	if v, _ := d.GetInt("A"); v != 1 {
		t.Errorf("/A = %v", d.Get("A"))
	}
	if arr, _ := d.GetArray("B"); len(arr) != 2 {
		t.Errorf("/B = %v", arr)
	}
	if d.Has("C") {
		t.Error("/C without a value should be dropped")
	}
	if ws.Count(WarnSyntax) == 0 {
		t.Error("expected syntax warnings")
	}
}

func TestParseUnterminated(t *testing.T) {
	obj := parseOne(t, "[1 2 (abc")
	arr, ok := obj.(Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("got %v", obj)
	}
	if arr[2] != String("abc") {
		t.Errorf("last element %v", arr[2])
	}
}

func TestParseIndirectObject(t *testing.T) {
	data := []byte("7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj\n8 0 obj 99 endobj")
	p := NewParser(data, 0)
	key, obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if key != (ObjectKey{Number: 7}) {
		t.Errorf("key = %v", key)
	}
	s, ok := obj.(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", obj)
	}
	if string(s.Raw()) != "hello" {
		t.Errorf("raw = %q", s.Raw())
	}
	key, obj, err = p.ParseIndirectObject()
	if err != nil || key.Number != 8 || obj != Int(99) {
		t.Errorf("second object = %v %v %v", key, obj, err)
	}
}

func TestParseStreamWrongLength(t *testing.T) {
	var ws Warnings
	data := []byte("1 0 obj\n<< /Length 100 >>\nstream\r\nabc def\r\nendstream\nendobj\n")
	p := NewParser(data, 0)
	p.SetWarningSink(&ws)
	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	s := obj.(*Stream)
	if string(s.Raw()) != "abc def" {
		t.Errorf("raw = %q, want %q", s.Raw(), "abc def")
	}
	if ws.Count(WarnSyntax) != 1 {
		t.Errorf("warnings = %s", FormatWarnings(ws.List()))
	}
}

func TestParseStreamIndirectLength(t *testing.T) {
	data := []byte("1 0 obj\n<< /Length 2 0 R >>\nstream\nxyzendstream\nendobj\n")
	p := NewParser(data, 0)
	p.SetLengthResolver(func(ref IndirectRef) (int64, bool) {
		if ref.Number == 2 {
			return 3, true
		}
		return 0, false
	})
	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(obj.(*Stream).Raw()); got != "xyz" {
		t.Errorf("raw = %q", got)
	}
}

func TestParseHeaderMissing(t *testing.T) {
	p := NewParser([]byte("garbage here"), 0)
	if _, err := p.ParseHeader(); err == nil {
		t.Error("expected error for missing header")
	}
	if p.Pos() != 0 {
		t.Errorf("cursor moved to %d", p.Pos())
	}
}

func TestContentParserHasNoReferences(t *testing.T) {
	p := NewContentParser([]byte("0 0 R"))
	first, _ := p.ParseObject()
	if first != Int(0) {
		t.Errorf("got %v, want plain integer", first)
	}
}
