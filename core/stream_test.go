package core

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestDecodeStreamChain(t *testing.T) {
	content := []byte("BT /F1 12 Tf (chain) Tj ET")
	raw := []byte(hex.EncodeToString(deflate(content)) + ">")
	s := NewStream(NewDict(
		DictEntry{Key: "Filter", Value: Array{Name("AHx"), Name("FlateDecode")}},
	), raw)

	got, err := DefaultFilters().DecodeStream(s, nil)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDecodeStreamParamsPerFilter(t *testing.T) {
	rows := []byte{2, 1, 2, 2, 1, 1}
	raw := []byte(hex.EncodeToString(deflate(rows)))
	s := NewStream(NewDict(
		DictEntry{Key: "Filter", Value: Array{Name("ASCIIHexDecode"), Name("FlateDecode")}},
		DictEntry{Key: "DecodeParms", Value: Array{Null{}, NewDict(
			DictEntry{Key: "Predictor", Value: Int(12)},
			DictEntry{Key: "Columns", Value: Int(2)},
		)}},
	), raw)

	got, err := DefaultFilters().DecodeStream(s, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 2, 3}, got)
}

func TestDecodeStreamIndirectFilter(t *testing.T) {
	content := []byte("q Q")
	s := NewStream(NewDict(DictEntry{Key: "Filter", Value: IndirectRef{Number: 9}}), deflate(content))
	deref := func(o Object) Object {
		if r, ok := o.(IndirectRef); ok && r.Number == 9 {
			return Name("Fl")
		}
		return o
	}

	got, err := DefaultFilters().DecodeStream(s, deref)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDecodeStreamUnsupported(t *testing.T) {
	s := NewStream(NewDict(DictEntry{Key: "Filter", Value: Name("Crypt2000")}), []byte("x"))
	_, err := DefaultFilters().DecodeStream(s, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFilter))
}

func TestDecodeStreamBadFilterType(t *testing.T) {
	s := NewStream(NewDict(DictEntry{Key: "Filter", Value: Int(3)}), []byte("x"))
	_, err := DefaultFilters().DecodeStream(s, nil)
	assert.Error(t, err)
}

func TestFilterRegistryRegister(t *testing.T) {
	r := NewFilterRegistry()
	r.Register("UpperDecode", func(data []byte, _ *Dict) ([]byte, error) {
		return bytes.ToUpper(data), nil
	}, "Up")

	s := NewStream(NewDict(DictEntry{Key: "Filter", Value: Name("Up")}), []byte("abc"))
	got, err := r.DecodeStream(s, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC"), got)

	assert.Equal(t, []string{"Up", "UpperDecode"}, r.Names())
}

func TestDefaultFilterNames(t *testing.T) {
	names := DefaultFilters().Names()
	assert.True(t, sort.StringsAreSorted(names))
	for _, want := range []string{"FlateDecode", "Fl", "LZW", "A85", "RL", "CCF", "DCTDecode", "JPXDecode"} {
		assert.Contains(t, names, want)
	}
}

func TestDecodeStreamWithoutDecoder(t *testing.T) {
	plain := NewStream(NewDict(), []byte("raw"))
	got, err := decodeStream(nil, plain)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), got)

	filtered := NewStream(NewDict(DictEntry{Key: "Filter", Value: Name("FlateDecode")}), []byte("raw"))
	_, err = decodeStream(nil, filtered)
	assert.True(t, errors.Is(err, ErrUnsupportedFilter))
}

func objStm(header, body string, n int) (*Stream, []byte) {
	data := []byte(header + body)
	s := NewStream(NewDict(
		DictEntry{Key: "Type", Value: Name("ObjStm")},
		DictEntry{Key: "N", Value: Int(n)},
		DictEntry{Key: "First", Value: Int(len(header))},
	), data)
	return s, data
}

func TestParseObjectStream(t *testing.T) {
	s, data := objStm("10 0 11 14 ", "<< /A 1 >>    [1 2 3]", 2)

	os, err := ParseObjectStream(s, data, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, os.N())
	assert.Equal(t, []int{10, 11}, os.ObjectNumbers())

	obj, num, err := os.GetObjectByIndex(1)
	require.NoError(t, err)
	assert.Equal(t, 11, num)
	assert.Equal(t, Array{Int(1), Int(2), Int(3)}, obj)

	obj, idx, err := os.GetObjectByNumber(10)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	d, ok := obj.(*Dict)
	require.True(t, ok)
	n, _ := d.GetInt("A")
	assert.Equal(t, Int(1), n)

	_, _, err = os.GetObjectByIndex(2)
	assert.Error(t, err)
	_, _, err = os.GetObjectByNumber(99)
	assert.Error(t, err)
}

func TestParseObjectStreamDamaged(t *testing.T) {
	var ws Warnings
	s, data := objStm("10 0 11 500 12 ", "(ok)", 3)

	os, err := ParseObjectStream(s, data, &ws)
	require.NoError(t, err)
	assert.Equal(t, 2, os.Len())

	obj, _, err := os.GetObjectByNumber(11)
	require.NoError(t, err)
	assert.Equal(t, Null{}, obj)
	assert.Equal(t, 2, ws.Count(WarnSyntax))
}

func TestParseObjectStreamWrongType(t *testing.T) {
	s := NewStream(NewDict(DictEntry{Key: "Type", Value: Name("XRef")}), nil)
	_, err := ParseObjectStream(s, nil, nil)
	assert.Error(t, err)
}
