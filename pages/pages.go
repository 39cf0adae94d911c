package pages

import (
	"github.com/pkg/errors"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/resolver"
	"github.com/tsawler/pdfexec/resources"
)

// ErrNoPages is returned when the catalog has no usable /Pages entry.
var ErrNoPages = errors.New("catalog has no page tree")

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict *core.Dict
	acc  resolver.Accessor
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict *core.Dict, acc resolver.Accessor) *Catalog {
	return &Catalog{dict: dict, acc: acc}
}

// Dict returns the catalog dictionary
func (c *Catalog) Dict() *core.Dict {
	return c.dict
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	n, _ := c.acc.GetName(c.dict, "Type")
	return string(n)
}

// Pages returns the page tree root
func (c *Catalog) Pages() (*core.Dict, error) {
	d, ok := c.acc.GetDict(c.dict, "Pages")
	if !ok {
		return nil, errors.Wrapf(ErrNoPages, "/Pages is %s", kindOf(c.acc.Get(c.dict, "Pages")))
	}
	return d, nil
}

// Metadata returns the XMP metadata stream if present
func (c *Catalog) Metadata() (*core.Stream, bool) {
	return c.acc.GetStream(c.dict, "Metadata")
}

// Version returns the /Version entry, which overrides the header
// version when it is newer.
func (c *Catalog) Version() string {
	n, _ := c.acc.GetName(c.dict, "Version")
	return string(n)
}

// inherited holds the attributes a page takes from its ancestors.
type inherited struct {
	mediaBox core.Object
	cropBox  core.Object
	rotate   core.Object
	scope    *resources.Scope
}

// PageTree represents the PDF page tree
type PageTree struct {
	root  *core.Dict
	acc   resolver.Accessor
	warn  core.WarningSink
	pages []*Page
	err   error
	done  bool
}

// NewPageTree creates a new page tree from the root pages dictionary.
// Damage found while walking the tree is reported to warn.
func NewPageTree(root *core.Dict, acc resolver.Accessor, warn core.WarningSink) *PageTree {
	if warn == nil {
		warn = core.Discard
	}
	return &PageTree{root: root, acc: acc, warn: warn}
}

// Count returns the /Count the root declares, which may disagree with
// the number of pages actually reachable.
func (t *PageTree) Count() int {
	n, _ := t.acc.GetInt(t.root, "Count")
	return n
}

// Pages returns every reachable page in document order. The only error
// is the accessor's context ending.
func (t *PageTree) Pages() ([]*Page, error) {
	if !t.done {
		t.load()
	}
	return t.pages, t.err
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, errors.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}
	return pages[index], nil
}

func (t *PageTree) load() {
	t.pages = make([]*Page, 0, t.Count())
	visited := make(map[*core.Dict]bool)
	t.err = t.walk(t.root, core.ObjectKey{}, inherited{}, visited)
	t.done = true
}

// walk visits a node and its kids depth first. A node reached a second
// time is skipped, which breaks /Kids cycles.
func (t *PageTree) walk(node *core.Dict, key core.ObjectKey, inh inherited, visited map[*core.Dict]bool) error {
	if err := t.acc.Context().Err(); err != nil {
		return err
	}
	if visited[node] {
		core.Warnf(t.warn, core.WarnCycle, -1, key, "page tree node reached twice, skipped")
		return nil
	}
	visited[node] = true

	if v := node.Get("MediaBox"); v != nil {
		inh.mediaBox = v
	}
	if v := node.Get("CropBox"); v != nil {
		inh.cropBox = v
	}
	if v := node.Get("Rotate"); v != nil {
		inh.rotate = v
	}
	if res, ok := t.acc.GetDict(node, "Resources"); ok {
		inh.scope = resources.NewScope(res, inh.scope)
	}

	typ, _ := t.acc.GetName(node, "Type")
	kids, hasKids := t.acc.GetArray(node, "Kids")
	switch {
	case typ == "Page", typ != "Pages" && !hasKids:
		if typ != "Page" {
			core.Warnf(t.warn, core.WarnSyntax, -1, key, "page tree leaf has /Type %q", typ)
		}
		t.pages = append(t.pages, &Page{
			Index:     len(t.pages),
			Key:       key,
			dict:      node,
			acc:       t.acc,
			inherited: inh,
		})
		return nil
	case !hasKids:
		core.Warnf(t.warn, core.WarnSyntax, -1, key, "Pages node has no /Kids")
		return nil
	}

	for i, kid := range kids {
		var kidKey core.ObjectKey
		if ref, ok := kid.(core.IndirectRef); ok {
			kidKey = ref.Key()
		}
		d, ok := t.acc.Resolve(kid).(*core.Dict)
		if !ok {
			core.Warnf(t.warn, core.WarnSyntax, -1, key, "kid %d is not a dictionary", i)
			continue
		}
		if err := t.walk(d, kidKey, inh, visited); err != nil {
			return err
		}
	}
	return nil
}

// Page represents a single PDF page
type Page struct {
	// Index is the 0-based position in document order
	Index int
	// Key identifies the page object; zero for a direct kid
	Key core.ObjectKey

	dict *core.Dict
	acc  resolver.Accessor
	inherited
}

// Dict returns the page dictionary
func (p *Page) Dict() *core.Dict {
	return p.dict
}

// Type returns the page type (should be "Page")
func (p *Page) Type() string {
	n, _ := p.acc.GetName(p.dict, "Type")
	return string(n)
}

// MediaBox returns the page media box, inherited when the page has none.
func (p *Page) MediaBox() (model.Rect, error) {
	return p.box("MediaBox", p.mediaBox)
}

// CropBox returns the visible region: the inherited crop box clipped to
// the media box, or the media box itself.
func (p *Page) CropBox() (model.Rect, error) {
	media, err := p.MediaBox()
	if err != nil {
		return model.Rect{}, err
	}
	crop, err := p.box("CropBox", p.cropBox)
	if err != nil {
		return media, nil
	}
	if r := crop.Intersect(media); !r.IsEmpty() {
		return r, nil
	}
	return media, nil
}

func (p *Page) box(name string, obj core.Object) (model.Rect, error) {
	if obj == nil {
		return model.Rect{}, errors.Errorf("%s not found", name)
	}
	vals, ok := p.acc.Floats(obj)
	if !ok {
		return model.Rect{}, errors.Errorf("invalid %s type: %s", name, kindOf(p.acc.Resolve(obj)))
	}
	r, ok := model.RectFrom(vals)
	if !ok {
		return model.Rect{}, errors.Errorf("invalid %s length: %d (expected 4)", name, len(vals))
	}
	return r, nil
}

// Width returns the page width (from MediaBox)
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box.Width(), nil
}

// Height returns the page height (from MediaBox)
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box.Height(), nil
}

// Rotate returns the page rotation normalized to 0, 90, 180 or 270.
// Values that are not multiples of 90 count as 0.
func (p *Page) Rotate() int {
	if p.rotate == nil {
		return 0
	}
	v, ok := core.Number(p.acc.Resolve(p.rotate))
	if !ok || int(v)%90 != 0 {
		return 0
	}
	return (int(v)%360 + 360) % 360
}

// Scope returns the resource scope of the page. Resources of ancestors
// that the page does not override stay visible through the parent
// chain, so lookups find the nearest definition.
func (p *Page) Scope() *resources.Scope {
	return p.scope
}

// Resources returns the nearest resource dictionary, or nil.
func (p *Page) Resources() *core.Dict {
	if p.scope == nil {
		return nil
	}
	return p.scope.Resources
}

// ContentStreams returns the page's content streams in order. Entries
// that are not streams are skipped.
func (p *Page) ContentStreams() []*core.Stream {
	switch v := p.acc.Get(p.dict, "Contents").(type) {
	case *core.Stream:
		return []*core.Stream{v}
	case core.Array:
		out := make([]*core.Stream, 0, len(v))
		for _, elem := range v {
			if s, ok := p.acc.Resolve(elem).(*core.Stream); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Contents returns the decoded content of the page. Several streams are
// joined with a newline so that no token spans two of them.
func (p *Page) Contents() []byte {
	r := p.acc.Resolver()
	ctx := p.acc.Context()
	var out []byte
	for i, s := range p.ContentStreams() {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, r.StreamData(ctx, s)...)
	}
	return out
}

func kindOf(obj core.Object) string {
	if obj == nil {
		return "missing"
	}
	return obj.Type().String()
}
