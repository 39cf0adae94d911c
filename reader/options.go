package reader

import (
	"io"
	"log/slog"

	"github.com/tsawler/pdfexec/contentstream"
	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/font"
	"github.com/tsawler/pdfexec/resolver"
)

type config struct {
	maxHops      int
	maxFormDepth int
	concurrency  int
	filters      *core.FilterRegistry
	fontLoader   font.Loader
	logger       *slog.Logger
	warn         core.WarningSink
}

func defaultConfig() config {
	return config{
		maxHops:      resolver.DefaultMaxHops,
		maxFormDepth: contentstream.DefaultMaxDepth,
		concurrency:  DefaultConcurrency,
		filters:      core.DefaultFilters(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures Open
type Option func(*config)

// WithMaxHops sets how many chained indirect references are followed
// before a chain counts as a cycle.
func WithMaxHops(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxHops = n
		}
	}
}

// WithMaxFormDepth sets how deeply form XObjects may nest.
func WithMaxFormDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxFormDepth = n
		}
	}
}

// WithConcurrency sets how many pages ExecutePages runs at once.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithFilters replaces the stream filters. Register extra decoders on
// core.DefaultFilters() to keep the built-in ones.
func WithFilters(r *core.FilterRegistry) Option {
	return func(c *config) {
		if r != nil {
			c.filters = r
		}
	}
}

// WithFontLoader replaces font.Load.
func WithFontLoader(l font.Loader) Option {
	return func(c *config) {
		c.fontLoader = l
	}
}

// WithLogger mirrors every warning as a WARN record with kind, offset
// and object attributes. Debug records trace opening and page execution.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWarnings forwards every warning to w as well.
func WithWarnings(w core.WarningSink) Option {
	return func(c *config) {
		c.warn = w
	}
}
