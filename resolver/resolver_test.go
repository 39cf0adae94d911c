package resolver

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/internal/pdftest"
)

func open(t *testing.T, data []byte, opts ...Option) (*Resolver, *core.Warnings) {
	t.Helper()
	ws := &core.Warnings{}
	idx, err := core.NewIndexBuilder(data, core.DefaultFilters(), ws).Open(context.Background())
	require.NoError(t, err)
	opts = append([]Option{WithWarnings(ws)}, opts...)
	return NewResolver(data, idx, opts...), ws
}

func key(n int) core.ObjectKey {
	return core.ObjectKey{Number: n}
}

func TestGetDirectObject(t *testing.T) {
	r, ws := open(t, pdftest.SimpleDocument("0 0 m 10 10 l S"))

	obj, err := r.Get(context.Background(), key(5))
	require.NoError(t, err)
	font, ok := obj.(*core.Dict)
	require.True(t, ok, "got %T", obj)
	name, _ := font.GetName("BaseFont")
	assert.Equal(t, core.Name("Helvetica"), name)
	assert.Zero(t, ws.Len())
}

func TestGetCachesResult(t *testing.T) {
	r, _ := open(t, pdftest.SimpleDocument(""))
	ctx := context.Background()

	first, err := r.Get(ctx, key(3))
	require.NoError(t, err)
	second, err := r.Get(ctx, key(3))
	require.NoError(t, err)

	assert.Same(t, first.(*core.Dict), second.(*core.Dict))
	st := r.Stats()
	assert.Equal(t, int64(1), st.Parses)
	assert.Equal(t, int64(1), st.Hits)
}

func TestGetSingleFlight(t *testing.T) {
	r, _ := open(t, pdftest.SimpleDocument("BT ET"))
	ctx := context.Background()

	const n = 64
	results := make([]core.Object, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			obj, err := r.Get(ctx, key(3))
			if err == nil {
				results[i] = obj
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), r.Stats().Parses)
	for i := 1; i < n; i++ {
		require.NotNil(t, results[i])
		assert.Same(t, results[0].(*core.Dict), results[i].(*core.Dict))
	}
}

func TestGetMissingObject(t *testing.T) {
	r, ws := open(t, pdftest.SimpleDocument(""))

	obj, err := r.Get(context.Background(), key(99))
	require.NoError(t, err)
	assert.Equal(t, core.Null{}, obj)
	assert.Equal(t, 1, ws.Count(core.WarnMissingObject))
}

func TestGetReferenceChain(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	b.Object(2, "3 0 R")
	b.Object(3, "4 0 R")
	b.Object(4, "(end)")
	b.Object(6, "7 0 R")
	b.Object(7, "6 0 R")
	b.Object(8, "8 0 R")
	b.XRefTable("/Root 1 0 R")
	r, ws := open(t, b.Bytes())
	ctx := context.Background()

	obj, err := r.Get(ctx, key(2))
	require.NoError(t, err)
	assert.Equal(t, core.String("end"), obj)

	for _, n := range []int{6, 8} {
		obj, err := r.Get(ctx, key(n))
		require.NoError(t, err)
		assert.Equal(t, core.Null{}, obj, "object %d", n)
	}
	assert.Equal(t, 2, ws.Count(core.WarnCycle))
}

func TestGetHopLimit(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	for i := 10; i < 20; i++ {
		b.Object(i, fmt.Sprintf("%d 0 R", i+1))
	}
	b.Object(20, "42")
	b.XRefTable("/Root 1 0 R")
	data := b.Bytes()

	r, _ := open(t, data)
	obj, err := r.Get(context.Background(), key(10))
	require.NoError(t, err)
	assert.Equal(t, core.Int(42), obj)

	r, ws := open(t, data, WithMaxHops(3))
	obj, err = r.Get(context.Background(), key(10))
	require.NoError(t, err)
	assert.Equal(t, core.Null{}, obj)
	assert.Equal(t, 1, ws.Count(core.WarnCycle))
}

func TestGetCompressedCachesContainer(t *testing.T) {
	b := pdftest.New("1.5")
	b.ObjectStream(10, []pdftest.Member{
		{Number: 1, Body: "<< /Type /Catalog /Pages 2 0 R >>"},
		{Number: 2, Body: "<< /Type /Pages /Kids [] /Count 0 >>"},
		{Number: 3, Body: "[1 2 3]"},
	})
	b.XRefStream(11, "/Root 1 0 R")
	r, _ := open(t, b.Bytes())
	ctx := context.Background()

	obj, err := r.Get(ctx, key(2))
	require.NoError(t, err)
	d, ok := obj.(*core.Dict)
	require.True(t, ok, "got %T", obj)
	typ, _ := d.GetName("Type")
	assert.Equal(t, core.Name("Pages"), typ)

	st := r.Stats()
	assert.Equal(t, int64(1), st.Expansions)
	assert.Equal(t, int64(1), st.Parses, "only the container is parsed from the file")
	assert.Equal(t, 4, st.Cached)

	obj, err = r.Get(ctx, key(3))
	require.NoError(t, err)
	assert.Equal(t, core.Array{core.Int(1), core.Int(2), core.Int(3)}, obj)
	assert.Equal(t, int64(1), r.Stats().Expansions)
}

// A member superseded by a later update must not be cached from the old
// container.
func TestGetCompressedSkipsSupersededMembers(t *testing.T) {
	b := pdftest.New("1.5")
	b.ObjectStream(10, []pdftest.Member{
		{Number: 1, Body: "<< /Type /Catalog >>"},
		{Number: 2, Body: "(old)"},
	})
	b.XRefStream(11, "/Root 1 0 R")
	b.Object(2, "(new)")
	b.XRefStream(12, "/Root 1 0 R")
	r, _ := open(t, b.Bytes())
	ctx := context.Background()

	_, err := r.Get(ctx, key(1))
	require.NoError(t, err)
	obj, err := r.Get(ctx, key(2))
	require.NoError(t, err)
	assert.Equal(t, core.String("new"), obj)
}

// An object stream whose /Filter is one of its own members cannot be
// decoded by first expanding itself; the member lookup yields Null.
func TestGetSelfReferentialObjectStream(t *testing.T) {
	b := pdftest.New("1.5")
	b.Object(1, "<< /Type /Catalog >>")
	b.ObjectStreamDict(10, " /Filter 3 0 R", []pdftest.Member{
		{Number: 3, Body: "/FlateDecode"},
		{Number: 4, Body: "(four)"},
	})
	b.XRefStream(11, "/Root 1 0 R")
	r, ws := open(t, b.Bytes())
	ctx := context.Background()

	type result struct {
		obj core.Object
		err error
	}
	done := make(chan result, 1)
	go func() {
		obj, err := r.Get(ctx, key(4))
		done <- result{obj, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Get did not return")
	}
	require.NoError(t, res.err)
	assert.Equal(t, core.String("four"), res.obj)
	assert.Equal(t, 1, ws.Count(core.WarnCycle), core.FormatWarnings(ws.List()))

	obj, err := r.Get(ctx, key(3))
	require.NoError(t, err)
	assert.Equal(t, core.Name("FlateDecode"), obj)
}

// Two object streams whose filters are members of each other, expanded
// from two goroutines at once.
func TestGetObjectStreamsNeedingEachOther(t *testing.T) {
	b := pdftest.New("1.5")
	b.Object(1, "<< /Type /Catalog >>")
	b.ObjectStreamDict(10, " /Filter 21 0 R", []pdftest.Member{
		{Number: 11, Body: "null"},
		{Number: 12, Body: "(twelve)"},
	})
	b.ObjectStreamDict(20, " /Filter 11 0 R", []pdftest.Member{
		{Number: 21, Body: "null"},
		{Number: 22, Body: "(twenty-two)"},
	})
	b.XRefStream(30, "/Root 1 0 R")
	r, ws := open(t, b.Bytes())
	ctx := context.Background()

	want := map[int]core.Object{12: core.String("twelve"), 22: core.String("twenty-two")}
	got := make(map[int]core.Object)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for n := range want {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			obj, err := r.Get(ctx, key(n))
			if err == nil {
				mu.Lock()
				got[n] = obj
				mu.Unlock()
			}
		}(n)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Get did not return")
	}

	assert.Equal(t, want, got)
	assert.NotZero(t, ws.Count(core.WarnCycle))
}

func TestGetGenerationMustMatch(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	b.ObjectGen(2, 3, "(gen three)")
	b.XRefTable("/Root 1 0 R")
	r, ws := open(t, b.Bytes())
	ctx := context.Background()

	obj, err := r.Get(ctx, core.ObjectKey{Number: 2, Generation: 3})
	require.NoError(t, err)
	assert.Equal(t, core.String("gen three"), obj)

	for _, gen := range []int{0, 7} {
		obj, err := r.Get(ctx, core.ObjectKey{Number: 2, Generation: gen})
		require.NoError(t, err)
		assert.Equal(t, core.Null{}, obj, "generation %d", gen)
	}
	assert.Equal(t, core.Null{}, r.Deref(ctx, core.IndirectRef{Number: 2, Generation: 7}))
	assert.Equal(t, 2, ws.Count(core.WarnMissingObject))
	assert.Equal(t, int64(1), r.Stats().Parses)
}

func TestGetCompressedGeneration(t *testing.T) {
	b := pdftest.New("1.5")
	b.ObjectStream(10, []pdftest.Member{
		{Number: 1, Body: "<< /Type /Catalog >>"},
		{Number: 2, Body: "(member)"},
	})
	b.XRefStream(11, "/Root 1 0 R")
	r, ws := open(t, b.Bytes())

	obj, err := r.Get(context.Background(), core.ObjectKey{Number: 2, Generation: 1})
	require.NoError(t, err)
	assert.Equal(t, core.Null{}, obj)
	assert.Equal(t, 1, ws.Count(core.WarnMissingObject))
	assert.Zero(t, r.Stats().Expansions)
}

func TestGetWrongOffsetUsesScan(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	b.Object(2, "(two)")
	b.Object(3, "(three)")
	b.XRefTable("/Root 1 0 R")
	good := fmt.Sprintf("%010d 00000 n", b.Offset(2))
	bad := fmt.Sprintf("%010d 00000 n", b.Offset(3))
	data := []byte(strings.Replace(string(b.Bytes()), good, bad, 1))

	r, ws := open(t, data)
	obj, err := r.Get(context.Background(), key(2))
	require.NoError(t, err)
	assert.Equal(t, core.String("two"), obj)
	assert.Equal(t, 1, ws.Count(core.WarnXRef))
}

func TestIndirectStreamLength(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	b.Object(4, "<< /Length 5 0 R >>\nstream\nabc\nendstream")
	b.Object(5, "3")
	b.Object(6, "<< /Length 6 0 R >>\nstream\nxyz\nendstream")
	b.XRefTable("/Root 1 0 R")
	r, _ := open(t, b.Bytes())
	ctx := context.Background()

	obj, err := r.Get(ctx, key(4))
	require.NoError(t, err)
	s, ok := obj.(*core.Stream)
	require.True(t, ok, "got %T", obj)
	assert.Equal(t, []byte("abc"), s.Raw())

	// a length that refers to its own stream falls back to the endstream scan
	obj, err = r.Get(ctx, key(6))
	require.NoError(t, err)
	s, ok = obj.(*core.Stream)
	require.True(t, ok, "got %T", obj)
	assert.Equal(t, []byte("xyz"), s.Raw())
}

func zlibBytes(s string) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write([]byte(s))
	w.Close()
	return buf.Bytes()
}

func TestStreamData(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	b.Stream(2, "/Filter /FlateDecode", zlibBytes("q 1 0 0 1 0 0 cm Q"))
	b.Stream(3, "/Filter /NoSuchDecode", []byte("???"))
	b.Stream(4, "/Filter 5 0 R", zlibBytes("BT ET"))
	b.Object(5, "/FlateDecode")
	b.XRefTable("/Root 1 0 R")
	r, ws := open(t, b.Bytes())
	ctx := context.Background()

	stream := func(n int) *core.Stream {
		obj, err := r.Get(ctx, key(n))
		require.NoError(t, err)
		s, ok := obj.(*core.Stream)
		require.True(t, ok, "object %d is %T", n, obj)
		return s
	}

	assert.Equal(t, []byte("q 1 0 0 1 0 0 cm Q"), r.StreamData(ctx, stream(2)))
	assert.Empty(t, r.StreamData(ctx, stream(3)))
	assert.Equal(t, 1, ws.Count(core.WarnFilter))
	assert.Equal(t, []byte("BT ET"), r.StreamData(ctx, stream(4)))
}

// Decoding under a cancelled context must not leave undecoded bytes
// memoized for later callers.
func TestStreamDataCancelledCaller(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog >>")
	b.Stream(4, "/Filter 5 0 R", zlibBytes("BT ET"))
	b.Object(5, "/FlateDecode")
	b.XRefTable("/Root 1 0 R")
	r, ws := open(t, b.Bytes())

	obj, err := r.Get(context.Background(), key(4))
	require.NoError(t, err)
	s, ok := obj.(*core.Stream)
	require.True(t, ok, "got %T", obj)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, []byte("BT ET"), r.StreamData(cancelled, s))
	assert.Equal(t, []byte("BT ET"), r.StreamData(context.Background(), s))
	assert.Zero(t, ws.Count(core.WarnFilter))
}

func TestGetCancelled(t *testing.T) {
	r, _ := open(t, pdftest.SimpleDocument(""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Get(ctx, key(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, r.Stats().Parses)
}

func TestReset(t *testing.T) {
	r, _ := open(t, pdftest.SimpleDocument(""))
	ctx := context.Background()
	_, err := r.Get(ctx, key(1))
	require.NoError(t, err)
	require.Equal(t, 1, r.Stats().Cached)

	r.Reset()
	assert.Zero(t, r.Stats().Cached)
}
