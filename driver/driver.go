package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ardnew/ftdr/cont"
	"github.com/ardnew/ftdr/log"
	"github.com/ardnew/ftdr/pkg"
	"github.com/ardnew/ftdr/resolve"
)

// Loader supplies the source of a module. A nil source means the module
// does not exist.
type Loader interface {
	Load(ctx context.Context, module string) (*string, error)
}

// Runner runs a data processor and returns its YAML or JSON encoded
// result.
type Runner interface {
	Run(ctx context.Context, call resolve.ProcessorCall) (string, error)
}

// Provider supplies the serialized value of a foreign variable. A nil
// value means the variable does not exist.
type Provider interface {
	Lookup(ctx context.Context, name string) (*string, error)
}

// Option configures a run.
type Option func(*Driver)

// WithLoader sets the module loader.
func WithLoader(l Loader) Option {
	return func(d *Driver) { d.loader = l }
}

// WithRunner sets the processor runner.
func WithRunner(r Runner) Option {
	return func(d *Driver) { d.runner = r }
}

// WithProvider sets the foreign variable provider.
func WithProvider(p Provider) Option {
	return func(d *Driver) { d.provider = p }
}

// WithTimeout bounds the time spent answering one batch of requests.
// Zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.timeout = timeout }
}

// WithLogger sets the logger for I/O events. The logger is passed on to
// the resolver for its trace events.
func WithLogger(logger log.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithResolveOptions passes options through to [resolve.New].
func WithResolveOptions(opts ...resolve.Option) Option {
	return func(d *Driver) { d.resolve = append(d.resolve, opts...) }
}

// Driver answers the suspensions of one run.
type Driver struct {
	loader   Loader
	runner   Runner
	provider Provider
	timeout  time.Duration
	logger   log.Logger
	resolve  []resolve.Option

	batches int
}

// New returns a driver with the given options applied over the defaults:
// no modules, no processors and no foreign variables.
func New(opts ...Option) *Driver {
	d := &Driver{
		loader:   Modules{},
		runner:   Processors{},
		provider: Variables{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run resolves the root document named name with source and returns the
// output of the run.
func Run(
	ctx context.Context,
	name, source string,
	opts ...Option,
) (*resolve.Output, error) {
	return New(opts...).Run(ctx, name, source)
}

// Run resolves the root document named name with source.
func (d *Driver) Run(
	ctx context.Context,
	name, source string,
) (*resolve.Output, error) {
	opts := append([]resolve.Option{resolve.WithLogger(d.logger)}, d.resolve...)
	st := resolve.New(name, source, opts...)

	d.logger.DebugContext(ctx, "resolve start", slog.String("document", name))

	res, err := resolve.Continue(st)

	for err == nil && !res.Done() {
		if err = ctx.Err(); err != nil {
			break
		}

		res, err = d.answer(ctx, res)
	}

	if err != nil {
		d.logger.DebugContext(ctx, "resolve failed",
			slog.String("document", name),
			slog.Any("error", err))

		return nil, err
	}

	d.logger.DebugContext(ctx, "resolve done",
		slog.String("document", name),
		slog.Int("batches", d.batches),
		slog.Int("diagnostics", len(res.Output.Diagnostics)))

	return res.Output, nil
}

// Batches returns the number of suspensions answered so far.
func (d *Driver) Batches() int { return d.batches }

func (d *Driver) answer(ctx context.Context, res resolve.Result) (resolve.Result, error) {
	d.batches++

	bctx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc

		bctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	switch res.Status {
	case resolve.StatusStuckOnImport:
		answers := batch(bctx, res.Imports(), d.module)
		if err := ctx.Err(); err != nil {
			return resolve.Result{}, err
		}

		return resolve.ContinueAfter(res.State, answers)

	case resolve.StatusStuckOnProcessor:
		answers := batch(bctx, res.Processors(), d.process)
		if err := ctx.Err(); err != nil {
			return resolve.Result{}, err
		}

		return resolve.ContinueAfter(res.State, answers)

	case resolve.StatusStuckOnForeignVariable:
		answers := batch(bctx, res.Foreign(), d.variable)
		if err := ctx.Err(); err != nil {
			return resolve.Result{}, err
		}

		return resolve.ContinueAfter(res.State, answers)
	}

	return resolve.Result{}, ErrUnknownStatus.With(
		slog.String("status", res.Status.String()),
	)
}

func (d *Driver) module(ctx context.Context, r resolve.ImportRequest) resolve.ModuleSource {
	src, err := d.loader.Load(ctx, r.Module)
	if err != nil {
		d.failed(ctx, "load module", err,
			slog.String("module", r.Module),
			slog.String("importer", r.Importer))

		return resolve.ModuleSource{Module: r.Module}
	}

	d.logger.DebugContext(ctx, "load module",
		slog.String("module", r.Module),
		slog.Bool("found", src != nil))

	return resolve.ModuleSource{Module: r.Module, Source: src}
}

func (d *Driver) process(ctx context.Context, c resolve.ProcessorCall) resolve.ProcessorResult {
	out, err := d.runner.Run(ctx, c)
	if err != nil {
		d.failed(ctx, "run processor", err,
			slog.String("processor", c.Qualified),
			slog.String("call", c.ID))

		return resolve.ProcessorResult{ID: c.ID, Err: err.Error()}
	}

	d.logger.DebugContext(ctx, "run processor",
		slog.String("processor", c.Qualified),
		slog.String("call", c.ID))

	return resolve.ProcessorResult{ID: c.ID, Value: &out}
}

func (d *Driver) variable(ctx context.Context, r resolve.ForeignRequest) resolve.ForeignValue {
	v, err := d.provider.Lookup(ctx, r.Variable)
	if err != nil {
		d.failed(ctx, "lookup variable", err, slog.String("variable", r.Variable))

		return resolve.ForeignValue{Variable: r.Variable}
	}

	d.logger.DebugContext(ctx, "lookup variable",
		slog.String("variable", r.Variable),
		slog.Bool("found", v != nil))

	return resolve.ForeignValue{Variable: r.Variable, Value: v}
}

// failed logs a collaborator error. Not-found errors are expected and
// logged at Debug.
func (d *Driver) failed(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Any("error", err))

	if errors.Is(err, pkg.ErrModuleNotFound) || errors.Is(err, pkg.ErrProcessorNotFound) {
		d.logger.DebugContext(ctx, msg, attrs...)

		return
	}

	d.logger.WarnContext(ctx, msg, attrs...)
}

// batch answers every request concurrently and returns the answers in
// request order.
func batch[Q, A cont.Keyed](
	ctx context.Context,
	requests []Q,
	answer func(context.Context, Q) A,
) []A {
	answers := make([]A, len(requests))

	var wg sync.WaitGroup

	for i, q := range requests {
		wg.Go(func() { answers[i] = answer(ctx, q) })
	}

	wg.Wait()

	return answers
}
