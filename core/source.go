package core

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Source is random-access storage for a document's bytes.
type Source interface {
	// Length returns the total size in bytes.
	Length() int64
	// Read returns length bytes starting at offset. A short read at the end
	// of the source is not an error.
	Read(ctx context.Context, offset int64, length int) ([]byte, error)
}

// MemorySource serves reads from an in-memory buffer without copying.
type MemorySource []byte

func (m MemorySource) Length() int64 { return int64(len(m)) }

func (m MemorySource) Read(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || offset > int64(len(m)) {
		return nil, errors.Errorf("offset %d out of range [0,%d]", offset, len(m))
	}
	end := offset + int64(length)
	if end > int64(len(m)) {
		end = int64(len(m))
	}
	return m[offset:end], nil
}

// ReaderAtSource reads through an io.ReaderAt, which allows concurrent
// positioned reads.
type ReaderAtSource struct {
	r    io.ReaderAt
	size int64
}

func NewReaderAtSource(r io.ReaderAt, size int64) *ReaderAtSource {
	return &ReaderAtSource{r: r, size: size}
}

func (s *ReaderAtSource) Length() int64 { return s.size }

func (s *ReaderAtSource) Read(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset+int64(length) > s.size {
		length = int(s.size - offset)
	}
	if length <= 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	n, err := s.r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read %d bytes at %d", length, offset)
	}
	return buf[:n], nil
}

// SeekerSource wraps a single positioned stream. Seek and read pairs are
// serialized behind one mutex.
type SeekerSource struct {
	mu   sync.Mutex
	rs   io.ReadSeeker
	size int64
}

// NewSeekerSource determines the stream size by seeking to its end.
func NewSeekerSource(rs io.ReadSeeker) (*SeekerSource, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "determine source size")
	}
	return &SeekerSource{rs: rs, size: size}, nil
}

func (s *SeekerSource) Length() int64 { return s.size }

func (s *SeekerSource) Read(ctx context.Context, offset int64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset+int64(length) > s.size {
		length = int(s.size - offset)
	}
	if length <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.rs.Seek(offset, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "seek to %d", offset)
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(s.rs, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrapf(err, "read %d bytes at %d", length, offset)
	}
	return buf[:n], nil
}

const readChunk = 1 << 20

// ReadAll loads the whole source into one immutable buffer. Memory
// sources are returned as-is; others are read in chunks with the
// context checked between chunks.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	if m, ok := src.(MemorySource); ok {
		return []byte(m), nil
	}
	size := src.Length()
	out := make([]byte, 0, size)
	for off := int64(0); off < size; {
		n := readChunk
		if rem := size - off; rem < int64(n) {
			n = int(rem)
		}
		chunk, err := src.Read(ctx, off, n)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		out = append(out, chunk...)
		off += int64(len(chunk))
	}
	return out, nil
}
