package resolver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/tsawler/pdfexec/core"
)

// DefaultMaxHops bounds how many references Get follows when an object
// is itself only a reference.
const DefaultMaxHops = 32

// Resolver fetches indirect objects by key and caches them for the life
// of a document. It is safe for concurrent use: concurrent requests for
// the same uncached key share one parse, unrelated keys never wait on
// each other.
type Resolver struct {
	data    []byte
	index   *core.Index
	decoder core.StreamDecoder
	warn    core.WarningSink
	maxHops int

	mu    sync.RWMutex
	cache map[core.ObjectKey]core.Object

	stmMu      sync.RWMutex
	containers map[int]*core.ObjectStream

	group singleflight.Group

	recoverOnce sync.Once
	recovered   *core.Index

	parses     atomic.Int64
	hits       atomic.Int64
	expansions atomic.Int64
}

// Option configures the resolver
type Option func(*Resolver)

// WithMaxHops sets how many chained references are followed (default 32)
func WithMaxHops(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxHops = n
		}
	}
}

// WithDecoder sets the stream decoder used for object streams and
// StreamData. The default is core.DefaultFilters().
func WithDecoder(d core.StreamDecoder) Option {
	return func(r *Resolver) {
		r.decoder = d
	}
}

// WithWarnings sets where recoverable problems are reported.
func WithWarnings(w core.WarningSink) Option {
	return func(r *Resolver) {
		r.warn = w
	}
}

// NewResolver creates a resolver over the file bytes and their index.
func NewResolver(data []byte, index *core.Index, opts ...Option) *Resolver {
	r := &Resolver{
		data:       data,
		index:      index,
		maxHops:    DefaultMaxHops,
		warn:       core.Discard,
		cache:      make(map[core.ObjectKey]core.Object),
		containers: make(map[int]*core.ObjectStream),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.decoder == nil {
		r.decoder = core.DefaultFilters()
	}
	if r.warn == nil {
		r.warn = core.Discard
	}
	return r
}

// Index returns the cross-reference index the resolver reads from.
func (r *Resolver) Index() *core.Index {
	return r.index
}

// Get returns the object stored under key. When that object is itself a
// reference the chain is followed up to the hop limit; a longer chain or
// a cycle yields Null. Missing objects are Null as well. The error is
// non-nil only when ctx is done.
func (r *Resolver) Get(ctx context.Context, key core.ObjectKey) (core.Object, error) {
	obj, err := r.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, nil
	}
	seen := map[core.ObjectKey]bool{key: true}
	for hops := 1; ; hops++ {
		if hops > r.maxHops || seen[ref.Key()] {
			core.Warnf(r.warn, core.WarnCycle, -1, key, "reference chain through %s does not end after %d hops", ref, hops)
			return core.Null{}, nil
		}
		seen[ref.Key()] = true
		obj, err = r.fetch(ctx, ref.Key())
		if err != nil {
			return nil, err
		}
		if ref, ok = obj.(core.IndirectRef); !ok {
			return obj, nil
		}
	}
}

// Resolve returns obj unchanged unless it is a reference, in which case
// the referenced object is returned.
func (r *Resolver) Resolve(ctx context.Context, obj core.Object) (core.Object, error) {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, nil
	}
	return r.Get(ctx, ref.Key())
}

// Deref is Resolve for callers that cannot handle an error: a cancelled
// lookup yields Null.
func (r *Resolver) Deref(ctx context.Context, obj core.Object) core.Object {
	out, err := r.Resolve(ctx, obj)
	if err != nil {
		return core.Null{}
	}
	return out
}

// fetch returns the object stored directly under key, from the cache or
// by parsing it once.
func (r *Resolver) fetch(ctx context.Context, key core.ObjectKey) (core.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if obj, ok := r.cached(key); ok {
		r.hits.Add(1)
		return obj, nil
	}
	if r.reentrant(ctx, key) {
		core.Warnf(r.warn, core.WarnCycle, -1, key, "object stream holding %s is needed to decode itself", key)
		return core.Null{}, nil
	}
	if expansionOf(ctx) != nil {
		// inside an expansion nothing waits on another flight, so two
		// expansions that need each other's members cannot block
		obj, err := r.load(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		return r.store(key, obj), nil
	}
	// the flight outlives any one caller, so it must not inherit a
	// cancellation that would poison the result for the others
	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key.String(), func() (interface{}, error) {
		if obj, ok := r.cached(key); ok {
			return obj, nil
		}
		obj, err := r.load(flightCtx, key)
		if err != nil {
			return nil, err
		}
		return r.store(key, obj), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(core.Object), nil
	}
}

// expansion lists the object streams being expanded by the current
// call chain, innermost first.
type expansion struct {
	container int
	parent    *expansion
}

type expansionKey struct{}

func expansionOf(ctx context.Context) *expansion {
	e, _ := ctx.Value(expansionKey{}).(*expansion)
	return e
}

// reentrant reports whether key lives in an object stream that the
// calling chain is already expanding. Such a lookup would wait on its
// own flight.
func (r *Resolver) reentrant(ctx context.Context, key core.ObjectKey) bool {
	chain := expansionOf(ctx)
	if chain == nil {
		return false
	}
	e, ok := r.index.Lookup(key.Number)
	if !ok || e.Kind != core.EntryCompressed {
		return false
	}
	for c := chain; c != nil; c = c.parent {
		if c.container == e.Container {
			return true
		}
	}
	return false
}

func (r *Resolver) cached(key core.ObjectKey) (core.Object, bool) {
	r.mu.RLock()
	obj, ok := r.cache[key]
	r.mu.RUnlock()
	return obj, ok
}

// store caches obj unless key already has a value, and returns the value
// that ends up cached.
func (r *Resolver) store(key core.ObjectKey, obj core.Object) core.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[key]; ok {
		return existing
	}
	r.cache[key] = obj
	return obj
}

func (r *Resolver) load(ctx context.Context, key core.ObjectKey) (core.Object, error) {
	e, ok := r.index.Lookup(key.Number)
	if !ok || e.Kind == core.EntryFree {
		return r.missing(key, "not in the cross-reference index"), nil
	}
	switch e.Kind {
	case core.EntryCompressed:
		if key.Generation != 0 {
			return r.missing(key, fmt.Sprintf("compressed objects have generation 0, not %d", key.Generation)), nil
		}
		return r.loadCompressed(ctx, key, e)
	default:
		return r.loadAt(ctx, key, e.Offset), nil
	}
}

// loadAt parses the object at offset. When the bytes there hold a
// different object, the offset from a full-file scan is tried instead.
// An object stored under another generation is missing: references name
// a number and a generation, and both must match.
func (r *Resolver) loadAt(ctx context.Context, key core.ObjectKey, offset int64) core.Object {
	obj, gen, ok := r.parseAt(key, offset)
	if !ok {
		if rec := r.recoveryIndex(ctx); rec != nil {
			if e, found := rec.Lookup(key.Number); found && e.Kind == core.EntryInUse && e.Offset != offset {
				core.Warnf(r.warn, core.WarnXRef, offset, key, "offset is wrong, object found at %d", e.Offset)
				obj, gen, ok = r.parseAt(key, e.Offset)
			}
		}
	}
	switch {
	case !ok:
		return r.missing(key, fmt.Sprintf("no object header at offset %d", offset))
	case gen != key.Generation:
		return r.missing(key, fmt.Sprintf("file holds generation %d", gen))
	}
	return obj
}

// parseAt parses the object at offset when its header carries the
// number of key. The generation found is returned; on a mismatch the
// body is not parsed.
func (r *Resolver) parseAt(key core.ObjectKey, offset int64) (core.Object, int, bool) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, 0, false
	}
	head, err := core.NewParser(r.data, offset).ParseHeader()
	if err != nil || head.Number != key.Number {
		return nil, 0, false
	}
	if head.Generation != key.Generation {
		return nil, head.Generation, true
	}
	p := core.NewParser(r.data, offset)
	p.SetWarningSink(r.warn)
	p.SetLengthResolver(r.streamLength)
	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, 0, false
	}
	r.parses.Add(1)
	return obj, head.Generation, true
}

// streamLength resolves an indirect /Length without going through the
// flight group, so a stream whose length refers back to itself cannot
// wait on its own parse.
func (r *Resolver) streamLength(ref core.IndirectRef) (int64, bool) {
	if obj, ok := r.cached(ref.Key()); ok {
		n, ok := obj.(core.Int)
		return int64(n), ok
	}
	e, ok := r.index.Lookup(ref.Number)
	if !ok || e.Kind != core.EntryInUse {
		return 0, false
	}
	p := core.NewParser(r.data, e.Offset)
	if key, err := p.ParseHeader(); err != nil || key.Number != ref.Number {
		return 0, false
	}
	obj, _ := p.ParseObject()
	n, ok := obj.(core.Int)
	return int64(n), ok
}

// recoveryIndex builds a scan-based index the first time an offset turns
// out to be wrong.
func (r *Resolver) recoveryIndex(ctx context.Context) *core.Index {
	r.recoverOnce.Do(func() {
		if r.index.Recovered {
			return
		}
		idx, err := core.NewIndexBuilder(r.data, r.decoder, core.Discard).Recover(ctx)
		if err == nil {
			r.recovered = idx
		}
	})
	return r.recovered
}

func (r *Resolver) missing(key core.ObjectKey, reason string) core.Object {
	core.Warnf(r.warn, core.WarnMissingObject, -1, key, "object %s: %s", key, reason)
	return core.Null{}
}

// loadCompressed expands the object stream holding key and caches every
// member the index still places in that stream.
func (r *Resolver) loadCompressed(ctx context.Context, key core.ObjectKey, e core.IndexEntry) (core.Object, error) {
	os, err := r.container(ctx, e.Container)
	if err != nil {
		return nil, err
	}
	if os == nil {
		return r.missing(key, fmt.Sprintf("object stream %d unusable", e.Container)), nil
	}

	var found core.Object
	for i, num := range os.ObjectNumbers() {
		me, ok := r.index.Lookup(num)
		if !ok || me.Kind != core.EntryCompressed || me.Container != e.Container {
			continue
		}
		obj, _, _ := os.GetObjectByIndex(i)
		if num == key.Number {
			found = obj
			continue
		}
		r.store(core.ObjectKey{Number: num}, obj)
	}
	if found == nil {
		return r.missing(key, fmt.Sprintf("not a member of object stream %d", e.Container)), nil
	}
	return found, nil
}

// container returns the parsed object stream with the given number, or
// nil when it cannot be used.
func (r *Resolver) container(ctx context.Context, num int) (*core.ObjectStream, error) {
	r.stmMu.RLock()
	os, ok := r.containers[num]
	r.stmMu.RUnlock()
	if ok {
		return os, nil
	}
	if expansionOf(ctx) != nil {
		return r.storeContainer(num, r.expand(ctx, num)), nil
	}

	v, err, _ := r.group.Do(fmt.Sprintf("objstm %d", num), func() (interface{}, error) {
		r.stmMu.RLock()
		os, ok := r.containers[num]
		r.stmMu.RUnlock()
		if ok {
			return os, nil
		}
		return r.storeContainer(num, r.expand(ctx, num)), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.ObjectStream), nil
}

func (r *Resolver) storeContainer(num int, os *core.ObjectStream) *core.ObjectStream {
	r.stmMu.Lock()
	defer r.stmMu.Unlock()
	if existing, ok := r.containers[num]; ok {
		return existing
	}
	r.containers[num] = os
	return os
}

func (r *Resolver) expand(ctx context.Context, num int) *core.ObjectStream {
	key := core.ObjectKey{Number: num}
	e, ok := r.index.Lookup(num)
	if !ok || e.Kind != core.EntryInUse {
		core.Warnf(r.warn, core.WarnMissingObject, -1, key, "object stream %d is not stored uncompressed", num)
		return nil
	}
	key.Generation = e.Generation
	obj, err := r.fetch(ctx, key)
	if err != nil {
		return nil
	}
	s, ok := obj.(*core.Stream)
	if !ok {
		core.Warnf(r.warn, core.WarnMissingObject, -1, key, "object stream %d is %s", num, obj.Type())
		return nil
	}
	// decoded directly rather than through the stream's memo, which
	// another expansion might be holding
	ctx = context.WithValue(context.WithoutCancel(ctx), expansionKey{}, &expansion{container: num, parent: expansionOf(ctx)})
	data, err := r.decoder.DecodeStream(s, func(o core.Object) core.Object {
		return r.Deref(ctx, o)
	})
	if err != nil {
		core.Warnf(r.warn, core.WarnFilter, s.Offset, key, "object stream: %v", err)
		return nil
	}
	os, err := core.ParseObjectStream(s, data, r.warn)
	if err != nil {
		core.Warnf(r.warn, core.WarnSyntax, s.Offset, key, "%v", err)
		return nil
	}
	r.expansions.Add(1)
	return os
}

// decode memoizes the decoded bytes on s. Its lookups ignore the
// caller's cancellation, since the result is kept for every caller.
func (r *Resolver) decode(ctx context.Context, s *core.Stream) ([]byte, error) {
	ctx = context.WithoutCancel(ctx)
	return s.Decoded(func(s *core.Stream) ([]byte, error) {
		return r.decoder.DecodeStream(s, func(o core.Object) core.Object {
			return r.Deref(ctx, o)
		})
	})
}

// StreamData returns the decoded bytes of s. A filter that fails or is
// not supported is reported as a warning and yields no data.
func (r *Resolver) StreamData(ctx context.Context, s *core.Stream) []byte {
	if s == nil {
		return nil
	}
	data, err := r.decode(ctx, s)
	if err != nil {
		core.Warnf(r.warn, core.WarnFilter, s.Offset, core.ObjectKey{}, "decode stream: %v", err)
		return nil
	}
	return data
}

// Stats counts resolver activity.
type Stats struct {
	Parses     int64 // objects parsed from the file
	Hits       int64 // lookups served from the cache
	Expansions int64 // object streams decoded
	Cached     int   // objects currently cached
}

// Stats returns a snapshot of the counters
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	n := len(r.cache)
	r.mu.RUnlock()
	return Stats{
		Parses:     r.parses.Load(),
		Hits:       r.hits.Load(),
		Expansions: r.expansions.Load(),
		Cached:     n,
	}
}

// Reset drops every cached object.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cache = make(map[core.ObjectKey]core.Object)
	r.mu.Unlock()
	r.stmMu.Lock()
	r.containers = make(map[int]*core.ObjectStream)
	r.stmMu.Unlock()
}
