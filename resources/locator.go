package resources

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/resolver"
)

// Category is a resource dictionary subcategory
type Category string

const (
	CategoryFont       Category = "Font"
	CategoryXObject    Category = "XObject"
	CategoryExtGState  Category = "ExtGState"
	CategoryColorSpace Category = "ColorSpace"
	CategoryPattern    Category = "Pattern"
	CategoryShading    Category = "Shading"
	CategoryProperties Category = "Properties"
)

// Scope is a resource dictionary and the scope it is nested in.
type Scope struct {
	Resources *core.Dict
	Parent    *Scope
}

// NewScope returns a scope for res inside parent. Either may be nil.
func NewScope(res *core.Dict, parent *Scope) *Scope {
	return &Scope{Resources: res, Parent: parent}
}

// Depth counts the scopes from s to the outermost one.
func (s *Scope) Depth() int {
	n := 0
	for ; s != nil; s = s.Parent {
		n++
	}
	return n
}

type cacheKey struct {
	scope    *Scope
	category Category
	name     string
}

type cacheEntry struct {
	obj   core.Object
	found bool
}

// Locator resolves resource names. Results, including misses, are cached
// per scope, so a Locator should live no longer than one execution. It
// is not safe for concurrent use.
type Locator struct {
	acc   resolver.Accessor
	cache map[cacheKey]cacheEntry
}

// NewLocator creates a locator that dereferences through acc.
func NewLocator(acc resolver.Accessor) *Locator {
	return &Locator{acc: acc, cache: make(map[cacheKey]cacheEntry)}
}

// Accessor returns the accessor used for dereferencing
func (l *Locator) Accessor() resolver.Accessor {
	return l.acc
}

// Resolve finds name in category, searching scope and then its parents.
// The nearest definition wins. Category dictionaries and their entries
// are dereferenced one level; an entry that resolves to null counts as
// absent.
func (l *Locator) Resolve(scope *Scope, category Category, name string) (core.Object, bool) {
	key := cacheKey{scope: scope, category: category, name: name}
	if e, ok := l.cache[key]; ok {
		return e.obj, e.found
	}
	var e cacheEntry
	for s := scope; s != nil; s = s.Parent {
		cat, ok := l.category(s, category)
		if !ok {
			continue
		}
		v, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		if obj := l.acc.Resolve(v); obj != nil && !core.IsNull(obj) {
			e = cacheEntry{obj: obj, found: true}
			break
		}
	}
	l.cache[key] = e
	return e.obj, e.found
}

// ResolveDict is Resolve for resources that must be dictionaries or
// streams, returning the dictionary.
func (l *Locator) ResolveDict(scope *Scope, category Category, name string) (*core.Dict, bool) {
	obj, ok := l.Resolve(scope, category, name)
	if !ok {
		return nil, false
	}
	return resolver.AsDict(obj)
}

func (l *Locator) category(s *Scope, category Category) (*core.Dict, bool) {
	if s.Resources == nil {
		return nil, false
	}
	return l.acc.GetDict(s.Resources, string(category))
}

// Names lists every name visible in category from scope, sorted.
func (l *Locator) Names(scope *Scope, category Category) []string {
	seen := make(map[string]bool)
	for s := scope; s != nil; s = s.Parent {
		if cat, ok := l.category(s, category); ok {
			for _, k := range cat.Keys() {
				seen[k] = true
			}
		}
	}
	names := maps.Keys(seen)
	sort.Strings(names)
	return names
}

// Cached returns the number of cached lookups, misses included.
func (l *Locator) Cached() int {
	return len(l.cache)
}
