package contentstream

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/font"
	"github.com/tsawler/pdfexec/graphicsstate"
	"github.com/tsawler/pdfexec/model"
	"github.com/tsawler/pdfexec/resolver"
	"github.com/tsawler/pdfexec/resources"
)

// DefaultMaxDepth bounds form XObject nesting
const DefaultMaxDepth = 16

// Interpreter executes content streams against a graphics state and
// records what they draw. One Interpreter may run many streams, also
// concurrently; each Execute call has its own state.
type Interpreter struct {
	r        *resolver.Resolver
	loadFont font.Loader
	warn     core.WarningSink
	maxDepth int
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithMaxDepth sets how deeply form XObjects may nest.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithWarnings sets where execution problems are reported.
func WithWarnings(w core.WarningSink) Option {
	return func(in *Interpreter) {
		if w != nil {
			in.warn = w
		}
	}
}

// WithFontLoader replaces font.Load.
func WithFontLoader(l font.Loader) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.loadFont = l
		}
	}
}

// New creates an interpreter that resolves resources through r.
func New(r *resolver.Resolver, opts ...Option) *Interpreter {
	in := &Interpreter{
		r:        r,
		loadFont: font.Load,
		warn:     core.Discard,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Result describes a finished execution.
type Result struct {
	// State is the current graphics state when the stream ended
	State *graphicsstate.GraphicsState
	// Operations counts the operators executed, nested forms included
	Operations int
}

// Execute runs content from the default graphics state. Drawn elements
// are appended to page, which may be nil.
func (in *Interpreter) Execute(ctx context.Context, content []byte, scope *resources.Scope, page *model.Page) (Result, error) {
	return in.ExecuteFrom(ctx, content, scope, nil, page)
}

// ExecuteFrom runs content starting from a copy of base. A nil base
// means the default state. The only errors are those of ctx.
func (in *Interpreter) ExecuteFrom(ctx context.Context, content []byte, scope *resources.Scope, base *graphicsstate.GraphicsState, page *model.Page) (Result, error) {
	if base == nil {
		base = graphicsstate.NewGraphicsState()
	} else {
		base = base.Clone()
	}
	if page == nil {
		page = &model.Page{}
	}
	x := &execution{
		in:       in,
		ctx:      ctx,
		acc:      in.r.Accessor(ctx),
		page:     page,
		fonts:    make(map[*core.Dict]font.Font),
		badFonts: make(map[string]bool),
		chain:    make(map[*core.Stream]bool),
	}
	x.locator = resources.NewLocator(x.acc)
	f := &frame{execution: x, stack: graphicsstate.NewStack(base), scope: scope}
	err := f.run(content)
	return Result{State: f.stack.Current(), Operations: x.ops}, err
}

// execution is the state shared by a page and the forms it invokes.
type execution struct {
	in       *Interpreter
	ctx      context.Context
	acc      resolver.Accessor
	locator  *resources.Locator
	page     *model.Page
	fonts    map[*core.Dict]font.Font
	badFonts map[string]bool
	// chain holds the forms currently being executed
	chain map[*core.Stream]bool
	ops   int
}

type clipMode int

const (
	clipNone clipMode = iota
	clipNonZero
	clipEvenOdd
)

// frame executes one content stream: a page or a form.
type frame struct {
	*execution
	stack  *graphicsstate.Stack
	path   graphicsstate.Path
	clip   clipMode
	scope  *resources.Scope
	depth  int
	inText bool
	marked int
	compat int
	op     Operation
}

// errOperands marks operands of the wrong type or value
var errOperands = errors.New("bad operands")

func (f *frame) gs() *graphicsstate.GraphicsState {
	return f.stack.Current()
}

func (f *frame) warnf(kind core.WarningKind, format string, args ...interface{}) {
	core.Warnf(f.in.warn, kind, f.op.Offset, core.ObjectKey{}, f.op.Operator+": "+format, args...)
}

func (f *frame) run(content []byte) error {
	p := NewParser(content)
	p.SetWarningSink(f.in.warn)
	for {
		if err := f.ctx.Err(); err != nil {
			return err
		}
		op, ok := p.Next()
		if !ok {
			break
		}
		if err := f.dispatch(op); err != nil {
			return err
		}
	}
	f.op = Operation{Operator: "end of stream", Offset: int64(len(content))}
	if n := f.stack.Depth(); n > 0 {
		f.warnf(core.WarnState, "%d q without matching Q", n)
	}
	if f.marked > 0 {
		f.warnf(core.WarnState, "%d marked-content sequences left open", f.marked)
	}
	if f.inText {
		f.warnf(core.WarnState, "text object left open")
	}
	return nil
}

// dispatch fits the operands to the operator's arity and calls it.
// Missing operands are filled from the operator's defaults, or the
// operator is skipped; of extra operands only the trailing ones are used.
func (f *frame) dispatch(op Operation) error {
	f.op = op
	def, ok := operators[op.Operator]
	if !ok {
		if f.compat == 0 {
			f.warnf(core.WarnUnknownOperator, "unknown operator, %d operands discarded", len(op.Operands))
		}
		return nil
	}
	f.ops++
	args := op.Operands
	if def.arity >= 0 {
		switch {
		case len(args) < def.arity && def.defaults == nil:
			f.warnf(core.WarnOperands, "need %d operands, have %d", def.arity, len(args))
			return nil
		case len(args) < def.arity:
			args = append(args[:len(args):len(args)], def.defaults[len(args):]...)
		case len(args) > def.arity:
			args = args[len(args)-def.arity:]
		}
	}
	err := def.fn(f, args)
	if errors.Is(err, errOperands) {
		f.warnf(core.WarnOperands, "%v", err)
		return nil
	}
	return err
}

func number(obj core.Object) (float64, error) {
	if v, ok := core.Number(obj); ok {
		return v, nil
	}
	return 0, errors.Wrapf(errOperands, "expected a number, got %s", kindOf(obj))
}

func numbers(args []core.Object) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := number(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func name(obj core.Object) (string, error) {
	if n, ok := obj.(core.Name); ok {
		return string(n), nil
	}
	return "", errors.Wrapf(errOperands, "expected a name, got %s", kindOf(obj))
}

func kindOf(obj core.Object) string {
	if obj == nil {
		return "nothing"
	}
	return obj.Type().String()
}
