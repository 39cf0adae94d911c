package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfexec/contentstream"
	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/graphicsstate"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/pages"
	"github.com/tsawler/pdfexec/resolver"
)

var (
	// ErrNoRoot is returned when no document catalog can be found, even
	// after rebuilding the cross-reference index.
	ErrNoRoot = errors.New("no document catalog")
	// ErrClosed is returned by every method of a closed Document.
	ErrClosed = errors.New("document is closed")
)

// DefaultConcurrency is how many pages ExecutePages runs at once.
const DefaultConcurrency = 4

// headerWindow is how far into the file the %PDF- header is searched.
const headerWindow = 1024

var headerPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than o.
func (v PDFVersion) Less(o PDFVersion) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// ParseVersion reads "x.y".
func ParseVersion(s string) (PDFVersion, bool) {
	m := headerPattern.FindStringSubmatch("%PDF-" + s)
	if m == nil {
		return PDFVersion{}, false
	}
	return versionOf(m)
}

func versionOf(m []string) (PDFVersion, bool) {
	major, err1 := strconv.Atoi(m[1])
	minor, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return PDFVersion{}, false
	}
	return PDFVersion{Major: major, Minor: minor}, true
}

// parseHeader finds %PDF-x.y near the start of the file. Some writers put
// junk before it, so the header need not be at offset 0.
func parseHeader(data []byte) (PDFVersion, int64, bool) {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	loc := headerPattern.FindSubmatchIndex(window)
	if loc == nil {
		return PDFVersion{}, -1, false
	}
	v, ok := versionOf([]string{"", string(window[loc[2]:loc[3]]), string(window[loc[4]:loc[5]])})
	return v, int64(loc[0]), ok
}

// Document is an open PDF. It is safe for concurrent use; pages may be
// executed in parallel.
type Document struct {
	cfg config

	mu       sync.RWMutex
	closed   bool
	data     []byte
	version  PDFVersion
	index    *core.Index
	resolver *resolver.Resolver
	interp   *contentstream.Interpreter
	root     core.IndirectRef

	warnings *core.Warnings
	sink     core.WarningSink
}

// Open reads src and indexes it. A damaged cross-reference section is
// rebuilt by scanning the file; only a missing catalog, a failed read or
// ctx ending make Open fail.
func Open(ctx context.Context, src core.Source, opts ...Option) (*Document, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Document{cfg: cfg, warnings: &core.Warnings{}}
	d.sink = d.warningSink()

	data, err := core.ReadAll(ctx, src)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	d.data = data

	if v, at, ok := parseHeader(data); ok {
		d.version = v
		if at > 0 {
			core.Warnf(d.sink, core.WarnSyntax, at, core.ObjectKey{}, "%d bytes before the header", at)
		}
	} else {
		core.Warnf(d.sink, core.WarnSyntax, 0, core.ObjectKey{}, "no %%PDF- header in the first %d bytes", headerWindow)
	}

	idx, err := core.NewIndexBuilder(data, cfg.filters, d.sink).Open(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(err, "index document")
	}
	d.index = idx

	d.resolver = resolver.NewResolver(data, idx,
		resolver.WithMaxHops(cfg.maxHops),
		resolver.WithDecoder(cfg.filters),
		resolver.WithWarnings(d.sink),
	)
	root, ok := idx.Root()
	if !ok {
		return nil, ErrNoRoot
	}
	if _, ok := d.resolver.Deref(ctx, root).(*core.Dict); !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Wrapf(ErrNoRoot, "object %s is not a dictionary", root.Key())
	}
	d.root = root

	interpOpts := []contentstream.Option{
		contentstream.WithMaxDepth(cfg.maxFormDepth),
		contentstream.WithWarnings(d.sink),
	}
	if cfg.fontLoader != nil {
		interpOpts = append(interpOpts, contentstream.WithFontLoader(cfg.fontLoader))
	}
	d.interp = contentstream.New(d.resolver, interpOpts...)

	cfg.logger.Debug("opened document",
		slog.String("version", d.version.String()),
		slog.Int("objects", idx.Len()),
		slog.Bool("recovered", idx.Recovered),
	)
	return d, nil
}

// OpenFile opens the named file. The file is read into memory and closed
// before OpenFile returns.
func OpenFile(ctx context.Context, name string, opts ...Option) (*Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat file")
	}
	return Open(ctx, core.NewReaderAtSource(f, info.Size()), opts...)
}

// OpenBytes opens an in-memory document without copying it.
func OpenBytes(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	return Open(ctx, core.MemorySource(data), opts...)
}

// warningSink collects warnings and mirrors them to the logger.
func (d *Document) warningSink() core.WarningSink {
	logger := d.cfg.logger
	extra := d.cfg.warn
	return core.WarnFunc(func(w core.Warning) {
		d.warnings.Warn(w)
		if extra != nil {
			extra.Warn(w)
		}
		logger.Warn(w.Message,
			slog.String("kind", w.Kind.String()),
			slog.Int64("offset", w.Offset),
			slog.String("object", w.Key.String()),
		)
	})
}

func (d *Document) check() error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

// Close releases the document's buffers and caches. Pages obtained
// earlier must not be used afterwards.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	d.resolver.Reset()
	d.data = nil
	return nil
}

// Version returns the PDF version: the header version, or the catalog's
// /Version when that is newer.
func (d *Document) Version(ctx context.Context) (PDFVersion, error) {
	cat, err := d.Catalog(ctx)
	if err != nil {
		return PDFVersion{}, err
	}
	if v, ok := ParseVersion(cat.Version()); ok && d.version.Less(v) {
		return v, nil
	}
	return d.version, nil
}

// HeaderVersion returns the version named in the file header.
func (d *Document) HeaderVersion() PDFVersion {
	return d.version
}

// Index returns the cross-reference index.
func (d *Document) Index() *core.Index {
	return d.index
}

// Resolver returns the object resolver of the document.
func (d *Document) Resolver() *resolver.Resolver {
	return d.resolver
}

// Trailer returns the merged trailer dictionary
func (d *Document) Trailer() *core.Dict {
	return d.index.Trailer
}

// Warnings returns every warning reported so far.
func (d *Document) Warnings() []core.Warning {
	return d.warnings.List()
}

// Catalog returns the document catalog.
func (d *Document) Catalog(ctx context.Context) (*pages.Catalog, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc := d.resolver.Accessor(ctx)
	dict, ok := acc.Resolve(d.root).(*core.Dict)
	if !ok {
		return nil, ErrNoRoot
	}
	return pages.NewCatalog(dict, acc), nil
}

// Info returns the document information dictionary, if any.
func (d *Document) Info(ctx context.Context) (*core.Dict, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.check() != nil {
		return nil, false
	}
	return d.resolver.Accessor(ctx).GetDict(d.index.Trailer, "Info")
}

// Pages returns every page in document order.
func (d *Document) Pages(ctx context.Context) ([]*pages.Page, error) {
	cat, err := d.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	root, err := cat.Pages()
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pages.NewPageTree(root, d.resolver.Accessor(ctx), d.sink).Pages()
}

// PageCount returns the number of reachable pages.
func (d *Document) PageCount(ctx context.Context) (int, error) {
	list, err := d.Pages(ctx)
	return len(list), err
}

// PageResult is the outcome of executing one page.
type PageResult struct {
	// Page holds what the page draws
	Page *model.Page
	// State is the graphics state when the page's content ended
	State *graphicsstate.GraphicsState
	// Operations counts operators executed, forms included
	Operations int
}

// ExecutePage runs the content of the page at index (0-based).
func (d *Document) ExecutePage(ctx context.Context, index int) (*PageResult, error) {
	list, err := d.Pages(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, errors.Errorf("page index %d out of range [0, %d)", index, len(list))
	}
	return d.execute(ctx, list[index])
}

// ExecutePages runs every page, up to the configured number at once.
// Results are in page order. The first error cancels the rest.
func (d *Document) ExecutePages(ctx context.Context) ([]*PageResult, error) {
	list, err := d.Pages(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]*PageResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.concurrency)
	for i, p := range list {
		i, p := i, p
		g.Go(func() error {
			res, err := d.execute(gctx, p)
			if err != nil {
				return errors.Wrapf(err, "page %d", i+1)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Document) execute(ctx context.Context, p *pages.Page) (*PageResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.check(); err != nil {
		return nil, err
	}

	out := &model.Page{Number: p.Index + 1, Rotate: p.Rotate()}
	if box, err := p.MediaBox(); err == nil {
		out.MediaBox = box
		out.CropBox, _ = p.CropBox()
	} else {
		core.Warnf(d.sink, core.WarnSyntax, -1, p.Key, "page %d: %v", p.Index+1, err)
	}

	content := p.Contents()
	res, err := d.interp.Execute(ctx, content, p.Scope(), out)
	if err != nil {
		return nil, err
	}
	d.cfg.logger.Debug("executed page",
		slog.Int("page", out.Number),
		slog.Int("operations", res.Operations),
		slog.Int("elements", len(out.Elements)),
	)
	return &PageResult{Page: out, State: res.State, Operations: res.Operations}, nil
}

// Object returns the object stored under key, following references.
func (d *Document) Object(ctx context.Context, key core.ObjectKey) (core.Object, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.check(); err != nil {
		return nil, err
	}
	return d.resolver.Get(ctx, key)
}

// Bytes returns the document's bytes. They must not be modified.
func (d *Document) Bytes() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}
