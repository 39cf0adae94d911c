package core

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Object represents a PDF object. The set of implementations is closed:
// Null, Bool, Int, Real, String, Name, Array, *Dict, *Stream and IndirectRef.
type Object interface {
	Type() ObjectType
	String() string
	isObject()
}

// ObjectType represents the type of PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjIndirect:
		return "IndirectRef"
	default:
		return "Unknown"
	}
}

// ObjectKey identifies an indirect object by number and generation.
type ObjectKey struct {
	Number     int
	Generation int
}

func (k ObjectKey) String() string {
	return fmt.Sprintf("%d %d", k.Number, k.Generation)
}

// Null represents a PDF null object
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }
func (Null) isObject()        {}

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) isObject() {}

// Int represents a PDF integer
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (Int) isObject()          {}

// Real represents a PDF real number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }
func (Real) isObject()          {}

// String represents a PDF byte string. Literal and hexadecimal strings
// both decode to this type.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }
func (String) isObject()          {}

// Name represents a PDF name
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }
func (Name) isObject()          {}

// Array represents a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (Array) isObject() {}

// Len returns the length of the array
func (a Array) Len() int {
	return len(a)
}

// Get retrieves an element at the given index, or nil when out of range
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt retrieves an integer at the given index
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetNumber retrieves an integer or real at the given index as float64
func (a Array) GetNumber(index int) (float64, bool) {
	return Number(a.Get(index))
}

// GetName retrieves a name at the given index
func (a Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// Floats converts every numeric element of the array. ok is false when
// any element is not a number.
func (a Array) Floats() (vals []float64, ok bool) {
	vals = make([]float64, len(a))
	for i, obj := range a {
		f, isNum := Number(obj)
		if !isNum {
			return nil, false
		}
		vals[i] = f
	}
	return vals, true
}

// DictEntry is a single key/value pair used to build a Dict.
type DictEntry struct {
	Key   string
	Value Object
}

// Dict represents a PDF dictionary. Keys keep the order in which they were
// first seen. A Dict is never modified after construction; a nil *Dict
// behaves as an empty dictionary.
type Dict struct {
	keys []string
	vals map[string]Object
}

// NewDict builds a dictionary from entries. A repeated key keeps its first
// position and takes the last value.
func NewDict(entries ...DictEntry) *Dict {
	d := &Dict{vals: make(map[string]Object, len(entries))}
	for _, e := range entries {
		d.set(e.Key, e.Value)
	}
	return d
}

func (d *Dict) set(key string, value Object) {
	if d.vals == nil {
		d.vals = make(map[string]Object)
	}
	if _, exists := d.vals[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = value
}

func (d *Dict) Type() ObjectType { return ObjDict }
func (d *Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for i, k := range d.Keys() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "/%s %s", k, d.vals[k].String())
	}
	sb.WriteString(">>")
	return sb.String()
}
func (*Dict) isObject() {}

// Len returns the number of entries
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get retrieves a value from the dictionary, or nil when absent
func (d *Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	return d.vals[key]
}

// Lookup retrieves a value and reports whether the key is present
func (d *Dict) Lookup(key string) (Object, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.vals[key]
	return v, ok
}

// Has checks if a key exists in the dictionary
func (d *Dict) Has(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

// GetName retrieves a name value
func (d *Dict) GetName(key string) (Name, bool) {
	n, ok := d.Get(key).(Name)
	return n, ok
}

// GetInt retrieves an integer value
func (d *Dict) GetInt(key string) (Int, bool) {
	i, ok := d.Get(key).(Int)
	return i, ok
}

// GetNumber retrieves an integer or real value as float64
func (d *Dict) GetNumber(key string) (float64, bool) {
	return Number(d.Get(key))
}

// GetDict retrieves a dictionary value
func (d *Dict) GetDict(key string) (*Dict, bool) {
	v, ok := d.Get(key).(*Dict)
	return v, ok
}

// GetArray retrieves an array value
func (d *Dict) GetArray(key string) (Array, bool) {
	arr, ok := d.Get(key).(Array)
	return arr, ok
}

// GetString retrieves a string value
func (d *Dict) GetString(key string) (String, bool) {
	s, ok := d.Get(key).(String)
	return s, ok
}

// GetBool retrieves a boolean value
func (d *Dict) GetBool(key string) (Bool, bool) {
	b, ok := d.Get(key).(Bool)
	return b, ok
}

// GetStream retrieves a stream value
func (d *Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d.Get(key).(*Stream)
	return s, ok
}

// GetIndirectRef retrieves an indirect reference
func (d *Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d.Get(key).(IndirectRef)
	return ref, ok
}

// Stream represents a PDF stream object: a dictionary, the raw bytes
// between the stream and endstream keywords, and the decoded bytes,
// computed at most once.
type Stream struct {
	Dict *Dict
	// Offset is the position of the first raw byte in the source.
	Offset int64

	raw []byte

	once    sync.Once
	decoded []byte
	err     error
}

// NewStream creates a stream from a dictionary and its raw (still encoded) data.
func NewStream(dict *Dict, raw []byte) *Stream {
	return &Stream{Dict: dict, raw: raw}
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.raw))
}
func (*Stream) isObject() {}

// Raw returns the undecoded stream bytes
func (s *Stream) Raw() []byte {
	return s.raw
}

// Decoded runs decode the first time it is called and returns the memoized
// result on every later call.
func (s *Stream) Decoded(decode func(*Stream) ([]byte, error)) ([]byte, error) {
	s.once.Do(func() {
		s.decoded, s.err = decode(s)
	})
	return s.decoded, s.err
}

// IndirectRef represents an indirect object reference
type IndirectRef ObjectKey

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}
func (IndirectRef) isObject() {}

// Key returns the object key the reference points at
func (r IndirectRef) Key() ObjectKey {
	return ObjectKey(r)
}

// Number returns the numeric value of an Int or Real.
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// IsNull reports whether obj is nil or the PDF null object.
func IsNull(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(Null)
	return ok
}
