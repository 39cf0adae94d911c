package core

import "github.com/pkg/errors"

var (
	// ErrNoStartXRef is returned when the startxref pointer cannot be found.
	ErrNoStartXRef = errors.New("startxref not found")
	// ErrInvalidXRef is returned when a cross-reference section cannot be parsed.
	ErrInvalidXRef = errors.New("invalid cross-reference section")
	// ErrNoObjectHeader is returned when "<num> <gen> obj" is not found at an offset.
	ErrNoObjectHeader = errors.New("object header not found")
	// ErrUnsupportedFilter is returned for a filter with no registered decoder.
	ErrUnsupportedFilter = errors.New("unsupported filter")
)
