// Package pdftest assembles small PDF files in memory for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Member is one object stored inside an object stream.
type Member struct {
	Number int
	Body   string
}

type compressedEntry struct {
	container int
	index     int
}

// Builder writes objects and cross-reference sections. Each call to
// XRefTable or XRefStream closes a section covering the objects written
// since the previous one, so several calls produce incremental updates.
type Builder struct {
	buf        bytes.Buffer
	offsets    map[int]int64
	gens       map[int]int
	section    []int
	compressed map[int]compressedEntry
	maxNum     int
	lastXRef   int64
	sections   int
}

// New starts a file with the given header version, e.g. "1.7".
func New(version string) *Builder {
	b := &Builder{
		offsets:    make(map[int]int64),
		gens:       make(map[int]int),
		compressed: make(map[int]compressedEntry),
		lastXRef:   -1,
	}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

func (b *Builder) track(num, gen int) {
	b.offsets[num] = int64(b.buf.Len())
	b.gens[num] = gen
	b.section = append(b.section, num)
	if num > b.maxNum {
		b.maxNum = num
	}
}

// Object writes "num 0 obj body endobj" and returns its offset.
func (b *Builder) Object(num int, body string) int64 {
	return b.ObjectGen(num, 0, body)
}

// ObjectGen writes an object with an explicit generation number.
func (b *Builder) ObjectGen(num, gen int, body string) int64 {
	b.track(num, gen)
	off := b.offsets[num]
	fmt.Fprintf(&b.buf, "%d %d obj\n%s\nendobj\n", num, gen, body)
	return off
}

// Stream writes a stream object. dict is the dictionary content without
// the surrounding << >>; /Length is appended.
func (b *Builder) Stream(num int, dict string, data []byte) int64 {
	b.track(num, 0)
	off := b.offsets[num]
	fmt.Fprintf(&b.buf, "%d 0 obj\n<<%s /Length %d>>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	return off
}

// ObjectStream writes an uncompressed object stream holding members and
// records compressed entries for them in the next XRefStream.
func (b *Builder) ObjectStream(num int, members []Member) int64 {
	return b.ObjectStreamDict(num, "", members)
}

// ObjectStreamDict is ObjectStream with extra dictionary entries, such as
// a /Filter. The member data is still written unencoded.
func (b *Builder) ObjectStreamDict(num int, dict string, members []Member) int64 {
	var header, body strings.Builder
	for i, m := range members {
		fmt.Fprintf(&header, "%d %d ", m.Number, body.Len())
		body.WriteString(m.Body)
		body.WriteString("\n")
		b.compressed[m.Number] = compressedEntry{container: num, index: i}
		if m.Number > b.maxNum {
			b.maxNum = m.Number
		}
	}
	first := header.Len()
	data := header.String() + body.String()
	return b.Stream(num, fmt.Sprintf("/Type /ObjStm /N %d /First %d%s", len(members), first, dict), []byte(data))
}

// Raw appends arbitrary bytes.
func (b *Builder) Raw(s string) {
	b.buf.WriteString(s)
}

// Offset returns where object num was last written.
func (b *Builder) Offset(num int) int64 {
	return b.offsets[num]
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int64 {
	return int64(b.buf.Len())
}

func (b *Builder) prevEntry() string {
	if b.lastXRef < 0 {
		return ""
	}
	return fmt.Sprintf(" /Prev %d", b.lastXRef)
}

// XRefTable writes a classic table for the current section, the trailer
// and the startxref footer. trailer holds extra trailer entries such as
// "/Root 1 0 R". It returns the offset of the xref keyword.
func (b *Builder) XRefTable(trailer string) int64 {
	off := int64(b.buf.Len())
	b.buf.WriteString("xref\n")
	if b.sections == 0 {
		b.buf.WriteString("0 1\n0000000000 65535 f \n")
	}
	nums := append([]int(nil), b.section...)
	sort.Ints(nums)
	for _, n := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d %05d n \n", n, b.offsets[n], b.gens[n])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d%s %s >>\n", b.maxNum+1, b.prevEntry(), trailer)
	b.footer(off)
	return off
}

// XRefStream writes an uncompressed cross-reference stream as object num
// for the current section, including compressed entries registered by
// ObjectStream.
func (b *Builder) XRefStream(num int, trailer string) int64 {
	off := int64(b.buf.Len())
	b.offsets[num] = off
	b.gens[num] = 0
	if num > b.maxNum {
		b.maxNum = num
	}
	type row struct {
		num  int
		data []byte
	}
	var rows []row
	for _, n := range append(b.section, num) {
		o := b.offsets[n]
		rows = append(rows, row{n, []byte{1, byte(o >> 24), byte(o >> 16), byte(o >> 8), byte(o), 0, byte(b.gens[n])}})
	}
	for n, c := range b.compressed {
		rows = append(rows, row{n, []byte{2, byte(c.container >> 24), byte(c.container >> 16), byte(c.container >> 8), byte(c.container), byte(c.index >> 8), byte(c.index)}})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].num < rows[j].num })
	var data bytes.Buffer
	var index strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&index, "%d 1 ", r.num)
		data.Write(r.data)
	}
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Index [%s]%s %s /Length %d >>\nstream\n",
		num, b.maxNum+1, strings.TrimSpace(index.String()), b.prevEntry(), trailer, data.Len())
	b.buf.Write(data.Bytes())
	b.buf.WriteString("\nendstream\nendobj\n")
	b.compressed = make(map[int]compressedEntry)
	b.footer(off)
	return off
}

func (b *Builder) footer(off int64) {
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", off)
	b.lastXRef = off
	b.section = nil
	b.sections++
}

// Bytes returns the file written so far.
func (b *Builder) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

// SimpleDocument returns a one-page document whose page draws content.
// Objects: 1 catalog, 2 pages, 3 page, 4 content stream, 5 font.
func SimpleDocument(content string) []byte {
	b := New("1.7")
	b.Object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>")
	b.Object(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>")
	b.Stream(4, "", []byte(content))
	b.Object(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.XRefTable("/Root 1 0 R")
	return b.Bytes()
}
