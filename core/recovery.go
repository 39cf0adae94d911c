package core

import (
	"bytes"
	"context"
	"sort"
)

var (
	objKeyword     = []byte("obj")
	trailerKeyword = []byte("trailer")
)

type scannedObject struct {
	number     int
	generation int
	offset     int64
}

// Recover rebuilds the index by scanning the whole file for object
// headers. When an object number appears more than once the last
// occurrence wins. The trailer is the last "trailer" dictionary with a
// /Root, else the last cross-reference stream dictionary with one, else
// a /Root pointing at the last /Type /Catalog object found.
func (b *IndexBuilder) Recover(ctx context.Context) (*Index, error) {
	found, err := b.scanHeaders(ctx)
	if err != nil {
		return nil, err
	}
	idx := newIndex()
	idx.Recovered = true

	byOffset := make([]scannedObject, 0, len(found))
	for _, so := range found {
		byOffset = append(byOffset, so)
	}
	sort.Slice(byOffset, func(i, j int) bool { return byOffset[i].offset < byOffset[j].offset })

	for _, so := range byOffset {
		idx.entries[so.number] = IndexEntry{Kind: EntryInUse, Offset: so.offset, Generation: so.generation}
	}

	lengthOf := func(ref IndirectRef) (int64, bool) {
		so, ok := found[ref.Number]
		if !ok {
			return 0, false
		}
		p := NewParser(b.data, so.offset)
		p.refs = false
		if _, err := p.ParseHeader(); err != nil {
			return 0, false
		}
		obj, _ := p.ParseObject()
		n, ok := obj.(Int)
		return int64(n), ok
	}

	var xrefTrailer *Dict
	catalog := -1
	compressed := make(map[int]IndexEntry)
	for i, so := range byOffset {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := NewParser(b.data, so.offset)
		p.SetLengthResolver(lengthOf)
		_, obj, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		var dict *Dict
		switch v := obj.(type) {
		case *Dict:
			dict = v
		case *Stream:
			dict = v.Dict
		default:
			continue
		}
		switch t, _ := dict.GetName("Type"); t {
		case "Catalog":
			catalog = so.number
		case "XRef":
			if dict.Has("Root") {
				xrefTrailer = dict
			}
		case "ObjStm":
			s, ok := obj.(*Stream)
			if !ok {
				continue
			}
			b.indexObjectStream(so.number, s, compressed)
		}
	}
	for num, e := range compressed {
		if _, direct := found[num]; !direct {
			idx.entries[num] = e
		}
	}

	trailers := b.scanTrailers(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chosen *Dict
	for i := len(trailers) - 1; i >= 0; i-- {
		if root, ok := trailers[i].GetIndirectRef("Root"); ok {
			if _, known := idx.entries[root.Number]; known {
				chosen = trailers[i]
				break
			}
		}
	}
	if chosen == nil && xrefTrailer != nil {
		if root, ok := xrefTrailer.GetIndirectRef("Root"); ok {
			if _, known := idx.entries[root.Number]; known {
				chosen = xrefTrailer
			}
		}
	}
	if chosen == nil && catalog >= 0 {
		e := idx.entries[catalog]
		chosen = NewDict(DictEntry{Key: "Root", Value: IndirectRef{Number: catalog, Generation: e.Generation}})
	}
	if chosen != nil {
		idx.mergeTrailer(chosen)
	}
	for i := len(trailers) - 1; i >= 0; i-- {
		idx.mergeTrailer(trailers[i])
	}
	if _, ok := idx.Root(); !ok {
		Warnf(b.warn, WarnXRef, -1, ObjectKey{}, "no document catalog found")
	}
	return idx, nil
}

// scanHeaders finds every "<num> <gen> obj" in the file.
func (b *IndexBuilder) scanHeaders(ctx context.Context) (map[int]scannedObject, error) {
	data := b.data
	found := make(map[int]scannedObject)
	pos := 0
	for {
		i := bytes.Index(data[pos:], objKeyword)
		if i < 0 {
			break
		}
		at := pos + i
		pos = at + len(objKeyword)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if so, ok := headerBefore(data, at); ok {
			found[so.number] = so
		}
	}
	return found, nil
}

// headerBefore checks whether the "obj" keyword at at is preceded by two
// unsigned integers and returns the object they describe.
func headerBefore(data []byte, at int) (scannedObject, bool) {
	if end := at + len(objKeyword); end < len(data) && isRegular(data[end]) {
		return scannedObject{}, false
	}
	i := at - 1
	for i >= 0 && isWhitespace(data[i]) {
		i--
	}
	genEnd := i + 1
	for i >= 0 && isDigit(data[i]) {
		i--
	}
	genStart := i + 1
	if genStart == genEnd || i < 0 || !isWhitespace(data[i]) {
		return scannedObject{}, false
	}
	for i >= 0 && isWhitespace(data[i]) {
		i--
	}
	numEnd := i + 1
	for i >= 0 && isDigit(data[i]) {
		i--
	}
	numStart := i + 1
	if numStart == numEnd || (i >= 0 && isRegular(data[i])) {
		return scannedObject{}, false
	}
	num, _ := parseNumber(data[numStart:numEnd])
	gen, _ := parseNumber(data[genStart:genEnd])
	return scannedObject{number: int(num), generation: int(gen), offset: int64(numStart)}, true
}

// scanTrailers parses the dictionary after every trailer keyword, in file order.
func (b *IndexBuilder) scanTrailers(ctx context.Context) []*Dict {
	var out []*Dict
	pos := 0
	for ctx.Err() == nil {
		i := bytes.Index(b.data[pos:], trailerKeyword)
		if i < 0 {
			break
		}
		pos += i + len(trailerKeyword)
		p := NewParser(b.data, int64(pos))
		if obj, _ := p.ParseObject(); obj != nil {
			if d, ok := obj.(*Dict); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

// indexObjectStream records the members of a recovered object stream.
func (b *IndexBuilder) indexObjectStream(container int, s *Stream, into map[int]IndexEntry) {
	data, err := decodeStream(b.decoder, s)
	if err != nil {
		Warnf(b.warn, WarnFilter, s.Offset, ObjectKey{Number: container}, "object stream: %v", err)
		return
	}
	os, err := ParseObjectStream(s, data, Discard)
	if err != nil {
		return
	}
	for i, num := range os.ObjectNumbers() {
		into[num] = IndexEntry{Kind: EntryCompressed, Container: container, Index: i}
	}
}
