package core

import (
	"bytes"
	"context"
	"sort"

	"github.com/pkg/errors"
)

// EntryKind says where an object lives.
type EntryKind int

const (
	EntryFree       EntryKind = iota // no object
	EntryInUse                       // stored at a byte offset
	EntryCompressed                  // stored inside an object stream
)

func (k EntryKind) String() string {
	switch k {
	case EntryFree:
		return "free"
	case EntryInUse:
		return "in-use"
	case EntryCompressed:
		return "compressed"
	}
	return "unknown"
}

// IndexEntry is one cross-reference entry.
type IndexEntry struct {
	Kind       EntryKind
	Offset     int64 // in-use: byte offset of "<num> <gen> obj"
	Generation int
	Container  int // compressed: object number of the object stream
	Index      int // compressed: position inside the object stream
}

// Index maps object numbers to their location. It is built once per
// document and read concurrently afterwards.
type Index struct {
	entries map[int]IndexEntry
	// Trailer merges every trailer walked; newer values win per key.
	Trailer *Dict
	// Sections lists the offsets of the sections walked, newest first.
	Sections []int64
	// Recovered is set when the index came from a full-file scan.
	Recovered bool
	// incomplete is set when part of the /Prev chain could not be read.
	incomplete bool
}

func newIndex() *Index {
	return &Index{entries: make(map[int]IndexEntry), Trailer: &Dict{}}
}

// Lookup returns the entry for an object number.
func (x *Index) Lookup(num int) (IndexEntry, bool) {
	e, ok := x.entries[num]
	return e, ok
}

// Len returns the number of entries, free ones included.
func (x *Index) Len() int {
	return len(x.entries)
}

// Numbers returns every object number in the index in ascending order.
func (x *Index) Numbers() []int {
	nums := make([]int, 0, len(x.entries))
	for n := range x.entries {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Root returns the /Root reference of the trailer.
func (x *Index) Root() (IndirectRef, bool) {
	return x.Trailer.GetIndirectRef("Root")
}

// add records e unless num already has an entry. Sections are walked
// newest first, so the first entry seen is the current one.
func (x *Index) add(num int, e IndexEntry) {
	if num < 0 {
		return
	}
	if _, exists := x.entries[num]; !exists {
		x.entries[num] = e
	}
}

// mergeTrailer fills keys missing from the accumulated trailer.
func (x *Index) mergeTrailer(t *Dict) {
	for _, k := range t.Keys() {
		if k == "Prev" || k == "XRefStm" {
			continue
		}
		if !x.Trailer.Has(k) {
			x.Trailer.set(k, t.Get(k))
		}
	}
}

// FindStartXRef returns the offset stored after the last startxref keyword.
func FindStartXRef(data []byte) (int64, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, ErrNoStartXRef
	}
	c := NewCursor(data, idx+len("startxref"))
	tok := c.Next()
	if tok.Type != TokenInteger {
		return 0, errors.Wrap(ErrNoStartXRef, "no offset after startxref")
	}
	return tok.Int(), nil
}

// IndexBuilder reads the cross-reference sections of one document.
type IndexBuilder struct {
	data    []byte
	decoder StreamDecoder
	warn    WarningSink
}

// NewIndexBuilder prepares to index data. decoder is used for
// cross-reference and object streams and may be nil for files that
// only use uncompressed sections.
func NewIndexBuilder(data []byte, decoder StreamDecoder, warn WarningSink) *IndexBuilder {
	if warn == nil {
		warn = Discard
	}
	return &IndexBuilder{data: data, decoder: decoder, warn: warn}
}

// Open builds the index from the startxref pointer and falls back to a
// full-file scan when the pointer or the sections it leads to are
// unusable.
func (b *IndexBuilder) Open(ctx context.Context) (*Index, error) {
	idx, err := b.fromStartXRef(ctx)
	if err == nil {
		if !idx.incomplete {
			return idx, nil
		}
		Warnf(b.warn, WarnXRef, -1, ObjectKey{}, "incomplete /Prev chain, filling gaps by scanning")
		rec, rerr := b.Recover(ctx)
		if rerr != nil {
			return nil, rerr
		}
		idx.fillFrom(rec)
		return idx, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	Warnf(b.warn, WarnXRef, -1, ObjectKey{}, "rebuilding cross-reference index: %v", err)
	return b.Recover(ctx)
}

func (b *IndexBuilder) fromStartXRef(ctx context.Context) (*Index, error) {
	start, err := FindStartXRef(b.data)
	if err != nil {
		return nil, err
	}
	idx, err := b.Build(ctx, start)
	if err != nil {
		return nil, err
	}
	if err := b.validate(idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Build walks the section at start and every older section reachable
// through /Prev and /XRefStm.
func (b *IndexBuilder) Build(ctx context.Context, start int64) (*Index, error) {
	idx := newIndex()
	visited := make(map[int64]bool)
	offset := start
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if visited[offset] {
			Warnf(b.warn, WarnXRef, offset, ObjectKey{}, "/Prev loop")
			break
		}
		visited[offset] = true

		trailer, err := b.readSection(idx, offset)
		if err != nil {
			if first {
				return nil, err
			}
			Warnf(b.warn, WarnXRef, offset, ObjectKey{}, "skipping unreadable older section: %v", err)
			idx.incomplete = true
			break
		}
		first = false
		idx.Sections = append(idx.Sections, offset)
		idx.mergeTrailer(trailer)

		prev, ok := trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}
	return idx, nil
}

// readSection parses one table or stream section into idx and returns
// its trailer dictionary.
func (b *IndexBuilder) readSection(idx *Index, offset int64) (*Dict, error) {
	if offset < 0 || offset >= int64(len(b.data)) {
		return nil, errors.Wrapf(ErrInvalidXRef, "offset %d outside file of %d bytes", offset, len(b.data))
	}
	c := NewCursor(b.data, int(offset))
	if c.Peek().Is("xref") {
		c.Next()
		trailer, err := b.readTable(idx, c)
		if err != nil {
			return nil, err
		}
		// hybrid file: the stream holds objects the table omits
		if stm, ok := trailer.GetInt("XRefStm"); ok {
			if _, err := b.readStreamSection(idx, int64(stm)); err != nil {
				Warnf(b.warn, WarnXRef, int64(stm), ObjectKey{}, "ignoring /XRefStm: %v", err)
			}
		}
		return trailer, nil
	}
	return b.readStreamSection(idx, offset)
}

// readTable parses subsections after the "xref" keyword up to and
// including the trailer dictionary.
func (b *IndexBuilder) readTable(idx *Index, c *Cursor) (*Dict, error) {
	for {
		tok := c.Next()
		if tok.Is("trailer") {
			break
		}
		if tok.Type != TokenInteger {
			return nil, errors.Wrapf(ErrInvalidXRef, "expected subsection header at %d, found %q", tok.Pos, tok.Value)
		}
		countTok := c.Next()
		if countTok.Type != TokenInteger {
			return nil, errors.Wrapf(ErrInvalidXRef, "bad subsection count at %d", countTok.Pos)
		}
		first := int(tok.Int())
		count := int(countTok.Int())
		for i := 0; i < count; i++ {
			offTok := c.Next()
			genTok := c.Next()
			kind := c.Next()
			if offTok.Type != TokenInteger || genTok.Type != TokenInteger ||
				!(kind.Is("n") || kind.Is("f")) {
				return nil, errors.Wrapf(ErrInvalidXRef, "bad entry %d of subsection %d at %d", i, first, offTok.Pos)
			}
			// some writers number the first subsection from 1 while
			// still listing the free head of object 0
			if i == 0 && first == 1 && kind.Is("f") && genTok.Int() == 65535 {
				first = 0
			}
			num := first + i
			if kind.Is("f") {
				idx.add(num, IndexEntry{Kind: EntryFree, Generation: int(genTok.Int())})
				continue
			}
			off := offTok.Int()
			if off <= 0 {
				// an in-use entry at offset zero cannot be an object
				idx.add(num, IndexEntry{Kind: EntryFree, Generation: int(genTok.Int())})
				continue
			}
			idx.add(num, IndexEntry{Kind: EntryInUse, Offset: off, Generation: int(genTok.Int())})
		}
	}

	p := &Parser{cur: *c, warn: b.warn, refs: true}
	obj, _ := p.ParseObject()
	trailer, ok := obj.(*Dict)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidXRef, "trailer is %s, not a dictionary", obj.Type())
	}
	return trailer, nil
}

// readStreamSection parses the cross-reference stream at offset.
func (b *IndexBuilder) readStreamSection(idx *Index, offset int64) (*Dict, error) {
	if offset < 0 || offset >= int64(len(b.data)) {
		return nil, errors.Wrapf(ErrInvalidXRef, "stream offset %d outside file", offset)
	}
	p := NewParser(b.data, offset)
	p.SetWarningSink(b.warn)
	key, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidXRef, err.Error())
	}
	s, ok := obj.(*Stream)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidXRef, "object %s at %d is not a stream", key, offset)
	}
	if t, _ := s.Dict.GetName("Type"); t != "XRef" {
		return nil, errors.Wrapf(ErrInvalidXRef, "object %s at %d has /Type %q", key, offset, t)
	}
	data, err := decodeStream(b.decoder, s)
	if err != nil {
		return nil, errors.Wrapf(err, "decode cross-reference stream %s", key)
	}
	if err := decodeXRefStream(idx, s.Dict, data); err != nil {
		return nil, err
	}
	return s.Dict, nil
}

// validate checks that the trailer names a root and that the root's entry
// leads to the root's object header.
func (b *IndexBuilder) validate(idx *Index) error {
	root, ok := idx.Root()
	if !ok {
		return errors.Wrap(ErrInvalidXRef, "trailer has no /Root")
	}
	e, ok := idx.Lookup(root.Number)
	if !ok {
		return errors.Wrapf(ErrInvalidXRef, "root %s not in index", root.Key())
	}
	switch e.Kind {
	case EntryInUse:
		if !headerMatches(b.data, e.Offset, root.Number) {
			return errors.Wrapf(ErrInvalidXRef, "root entry offset %d does not hold object %d", e.Offset, root.Number)
		}
	case EntryCompressed:
		ce, ok := idx.Lookup(e.Container)
		if !ok || ce.Kind != EntryInUse || !headerMatches(b.data, ce.Offset, e.Container) {
			return errors.Wrapf(ErrInvalidXRef, "root container %d unusable", e.Container)
		}
	default:
		return errors.Wrapf(ErrInvalidXRef, "root %s is free", root.Key())
	}
	return nil
}

// fillFrom adds entries from rec for object numbers idx does not know.
func (x *Index) fillFrom(rec *Index) {
	for num, e := range rec.entries {
		x.add(num, e)
	}
	x.mergeTrailer(rec.Trailer)
}

// headerMatches reports whether "<num> <gen> obj" for num starts at offset.
func headerMatches(data []byte, offset int64, num int) bool {
	if offset < 0 || offset >= int64(len(data)) {
		return false
	}
	p := NewParser(data, offset)
	key, err := p.ParseHeader()
	return err == nil && key.Number == num
}
