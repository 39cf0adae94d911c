package core

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/tsawler/pdfexec/internal/filters"
)

// StreamDecoder applies a stream's /Filter chain. deref turns an indirect
// /Filter or /DecodeParms value into a direct one.
type StreamDecoder interface {
	DecodeStream(s *Stream, deref func(Object) Object) ([]byte, error)
}

// Filter decodes one stage of a filter chain.
type Filter func(data []byte, params *Dict) ([]byte, error)

// FilterRegistry maps filter names, including their abbreviations, to
// decoders. It is safe for concurrent use.
type FilterRegistry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// NewFilterRegistry returns an empty registry.
func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{filters: make(map[string]Filter)}
}

// DefaultFilters returns a registry with every filter this package knows.
// Image codecs pass their data through unchanged.
func DefaultFilters() *FilterRegistry {
	r := NewFilterRegistry()
	r.Register("FlateDecode", withParams(filters.FlateDecode), "Fl")
	r.Register("LZWDecode", withParams(filters.LZWDecode), "LZW")
	r.Register("ASCIIHexDecode", noParams(filters.ASCIIHexDecode), "AHx")
	r.Register("ASCII85Decode", noParams(filters.ASCII85Decode), "A85")
	r.Register("RunLengthDecode", noParams(filters.RunLengthDecode), "RL")
	r.Register("CCITTFaxDecode", withParams(filters.CCITTFaxDecode), "CCF")
	r.Register("DCTDecode", passThrough, "DCT")
	r.Register("JPXDecode", passThrough)
	r.Register("JBIG2Decode", passThrough)
	return r
}

// Register adds or replaces a filter under name and any aliases.
func (r *FilterRegistry) Register(name string, f Filter, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = f
	for _, a := range aliases {
		r.filters[a] = f
	}
}

// Lookup returns the filter registered under name.
func (r *FilterRegistry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Names lists the registered names in sorted order.
func (r *FilterRegistry) Names() []string {
	r.mu.RLock()
	names := maps.Keys(r.filters)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// DecodeStream applies every filter named in /Filter in order, each with
// its matching /DecodeParms entry.
func (r *FilterRegistry) DecodeStream(s *Stream, deref func(Object) Object) ([]byte, error) {
	if deref == nil {
		deref = func(o Object) Object { return o }
	}
	names, params, err := filterChain(s.Dict, deref)
	if err != nil {
		return nil, err
	}
	data := s.Raw()
	for i, name := range names {
		f, ok := r.Lookup(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedFilter, "%s", name)
		}
		data, err = f(data, params[i])
		if err != nil {
			return nil, errors.Wrapf(err, "filter %d (%s)", i, name)
		}
	}
	return data, nil
}

// filterChain lists the filter names of a stream and the parameter
// dictionary for each.
func filterChain(dict *Dict, deref func(Object) Object) ([]string, []*Dict, error) {
	var names []string
	switch f := deref(dict.Get("Filter")).(type) {
	case nil, Null:
		return nil, nil, nil
	case Name:
		names = []string{string(f)}
	case Array:
		for i, elem := range f {
			n, ok := deref(elem).(Name)
			if !ok {
				return nil, nil, errors.Errorf("filter %d is %s, not a name", i, elem.Type())
			}
			names = append(names, string(n))
		}
	default:
		return nil, nil, errors.Errorf("invalid /Filter of type %s", f.Type())
	}

	params := make([]*Dict, len(names))
	parms := deref(dict.Get("DecodeParms"))
	if parms == nil {
		parms = deref(dict.Get("DP"))
	}
	switch p := parms.(type) {
	case *Dict:
		params[0] = p
	case Array:
		for i := range names {
			if i < len(p) {
				params[i], _ = deref(p[i]).(*Dict)
			}
		}
	}
	return names, params, nil
}

// decodeStream decodes s with dec, or returns the raw bytes when s has no
// filters and no decoder is configured.
func decodeStream(dec StreamDecoder, s *Stream) ([]byte, error) {
	return s.Decoded(func(s *Stream) ([]byte, error) {
		if dec != nil {
			return dec.DecodeStream(s, nil)
		}
		if IsNull(s.Dict.Get("Filter")) {
			return s.Raw(), nil
		}
		return nil, errors.Wrap(ErrUnsupportedFilter, "no stream decoder configured")
	})
}

func passThrough(data []byte, _ *Dict) ([]byte, error) {
	return data, nil
}

func noParams(fn func([]byte) ([]byte, error)) Filter {
	return func(data []byte, _ *Dict) ([]byte, error) {
		return fn(data)
	}
}

func withParams(fn func([]byte, filters.Params) ([]byte, error)) Filter {
	return func(data []byte, params *Dict) ([]byte, error) {
		return fn(data, dictToParams(params))
	}
}

// dictToParams converts a parameter dictionary to filters.Params,
// translating PDF object types to Go primitive types.
func dictToParams(dict *Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, dict.Len())
	for _, k := range dict.Keys() {
		switch obj := dict.Get(k).(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		}
	}
	return params
}
