package core

import (
	"github.com/pkg/errors"
)

// ObjectStream represents a PDF Object Stream (Type /ObjStm), introduced in PDF 1.5.
// Object streams store multiple objects in a single compressed stream.
type ObjectStream struct {
	n       int
	first   int
	extends IndirectRef
	hasExt  bool
	members []objectStreamMember
}

// objectStreamMember pairs an object number with its parsed value.
type objectStreamMember struct {
	number int
	offset int // relative to First
	object Object
}

// ParseObjectStream reads the header pairs of an object stream and parses
// every member from decoded, the already decoded stream data. Members
// whose offsets are unusable become Null with a warning.
func ParseObjectStream(s *Stream, decoded []byte, warn WarningSink) (*ObjectStream, error) {
	if s == nil {
		return nil, errors.New("stream is nil")
	}
	if warn == nil {
		warn = Discard
	}
	if t, _ := s.Dict.GetName("Type"); t != "ObjStm" {
		return nil, errors.Errorf("stream is not an object stream, got type %q", t)
	}
	n, ok := s.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, errors.Errorf("object stream has invalid /N %v", s.Dict.Get("N"))
	}
	first, ok := s.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, errors.Errorf("object stream has invalid /First %v", s.Dict.Get("First"))
	}
	if int(first) > len(decoded) {
		return nil, errors.Errorf("/First %d exceeds decoded length %d", first, len(decoded))
	}

	os := &ObjectStream{n: int(n), first: int(first)}
	os.extends, os.hasExt = s.Dict.GetIndirectRef("Extends")

	header := NewCursor(decoded[:first], 0)
	for i := 0; i < os.n; i++ {
		numTok := header.Next()
		offTok := header.Next()
		if numTok.Type != TokenInteger || offTok.Type != TokenInteger {
			Warnf(warn, WarnSyntax, -1, ObjectKey{}, "object stream header has %d of %d pairs", i, os.n)
			break
		}
		os.members = append(os.members, objectStreamMember{number: int(numTok.Int()), offset: int(offTok.Int())})
	}

	for i := range os.members {
		m := &os.members[i]
		start := os.first + m.offset
		if m.offset < 0 || start >= len(decoded) {
			Warnf(warn, WarnSyntax, -1, ObjectKey{Number: m.number}, "object stream offset %d out of range", m.offset)
			m.object = Null{}
			continue
		}
		p := NewParser(decoded, int64(start))
		p.SetWarningSink(warn)
		obj, ok := p.ParseObject()
		if !ok {
			obj = Null{}
		}
		m.object = obj
	}
	return os, nil
}

// N returns the number of objects the dictionary declares.
func (os *ObjectStream) N() int {
	return os.n
}

// First returns the byte offset of the first object in the decoded data.
func (os *ObjectStream) First() int {
	return os.first
}

// Extends returns the object stream this one extends, if any.
func (os *ObjectStream) Extends() (IndirectRef, bool) {
	return os.extends, os.hasExt
}

// Len returns the number of members actually parsed.
func (os *ObjectStream) Len() int {
	return len(os.members)
}

// GetObjectByIndex returns the object at a header position and its number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if index < 0 || index >= len(os.members) {
		return nil, 0, errors.Errorf("index %d out of range [0, %d)", index, len(os.members))
	}
	m := os.members[index]
	return m.object, m.number, nil
}

// GetObjectByNumber finds an object by number and returns it with its index.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	for i, m := range os.members {
		if m.number == objNum {
			return m.object, i, nil
		}
	}
	return nil, 0, errors.Errorf("object %d not found in object stream", objNum)
}

// ObjectNumbers returns the member object numbers in header order.
func (os *ObjectStream) ObjectNumbers() []int {
	nums := make([]int, len(os.members))
	for i, m := range os.members {
		nums[i] = m.number
	}
	return nums
}
