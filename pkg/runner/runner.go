package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// ReadFunc reads a file from disk.
type ReadFunc func(path string) ([]byte, error)

// Runner compiles documents in parallel. Each document gets its own
// engine, so imports of one document never observe another's
// synthesized slot.
type Runner struct {
	engineOpts []engine.Option
	logger     *log.Logger
	readFile   ReadFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithEngineOptions passes options to every engine the runner creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(r *Runner) {
		r.engineOpts = append(r.engineOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithReadFile replaces os.ReadFile for documents and requested resources.
func WithReadFile(fn ReadFunc) Option {
	return func(r *Runner) {
		r.readFile = fn
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	if r.readFile == nil {
		r.readFile = os.ReadFile
	}
	return r
}

// Run discovers documents under opts.Paths and compiles them.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("discovered documents", logging.FieldDocuments, len(files))

	return r.run(ctx, opts, len(files), func(i int) (Input, error) {
		data, err := r.readFile(files[i])
		if err != nil {
			return Input{Path: files[i]}, fmt.Errorf("read %s: %w", files[i], err)
		}
		return Input{Path: files[i], Text: string(data)}, nil
	})
}

// RunInputs compiles documents that are already in memory.
func (r *Runner) RunInputs(ctx context.Context, inputs []Input, opts Options) (*Result, error) {
	return r.run(ctx, opts, len(inputs), func(i int) (Input, error) {
		return inputs[i], nil
	})
}

func (r *Runner) run(ctx context.Context, opts Options, n int, input func(int) (Input, error)) (*Result, error) {
	result := &Result{
		Documents: make([]DocumentOutcome, 0, n),
		Stats:     newStats(),
	}
	result.Stats.DocumentsDiscovered = n
	if n == 0 {
		return result, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, n)
	cfg := opts.effectiveConfig()

	// Each slot is written by exactly one goroutine, so results come back
	// in input order without locking.
	outcomes := make([]DocumentOutcome, n)
	done := make([]bool, n)

	var group errgroup.Group
	group.SetLimit(jobs)
	for i := range n {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in, err := input(i)
			if err != nil {
				outcomes[i] = DocumentOutcome{Path: in.Path, Error: err}
			} else {
				outcomes[i] = r.compile(ctx, in, cfg, opts.ResolveRounds)
			}
			done[i] = true
			return nil
		})
	}
	waitErr := group.Wait()

	for i := range n {
		if done[i] {
			result.accumulate(outcomes[i])
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}
	if waitErr != nil {
		return result, fmt.Errorf("run: %w", waitErr)
	}
	return result, nil
}

func (r *Runner) compile(ctx context.Context, in Input, cfg *config.Config, rounds int) DocumentOutcome {
	out := DocumentOutcome{Path: in.Path, Text: in.Text}

	eng := engine.New(append([]engine.Option{engine.WithLogger(r.logger)}, r.engineOpts...)...)
	h, err := eng.Open(filepath.ToSlash(in.Path))
	if err != nil {
		out.Error = err
		return out
	}
	defer func() { _ = eng.Close(h) }()

	if err := eng.SetConfig(h, cfg.Render); err != nil {
		out.Error = err
		return out
	}

	out.Result, out.Loaded, out.Error = r.Resolve(ctx, eng, h, in.Text, cfg.Prelude, rounds)
	return out
}

// Resolve compiles text in the document h. While rounds remain and the
// compiler asks for sources or files, they are read from disk, inserted
// into eng and the text is compiled again. It returns the last result and
// the requests that were satisfied on the way.
func (r *Runner) Resolve(
	ctx context.Context, eng *engine.Engine, h engine.Handle, text, prelude string, rounds int,
) (*engine.CompileResult, []typeset.Request, error) {
	var loaded []typeset.Request
	for round := 0; ; round++ {
		res, err := eng.Compile(ctx, h, text, prelude)
		if err != nil {
			return nil, loaded, err
		}
		if round >= rounds || len(res.Requests) == 0 {
			return res, loaded, nil
		}

		got, err := LoadRequests(eng, res.Requests, r.readFile)
		if err != nil {
			r.logger.Debug("unresolved requests", logging.FieldHandle, h, logging.FieldError, err)
		}
		if len(got) == 0 {
			return res, loaded, nil
		}
		loaded = append(loaded, got...)
	}
}

// LoadRequests reads the source and file resources named by reqs and
// inserts them into eng. Package and font requests are left alone. It
// returns the satisfied requests together with the joined failures.
func LoadRequests(eng *engine.Engine, reqs []typeset.Request, read ReadFunc) ([]typeset.Request, error) {
	if read == nil {
		read = os.ReadFile
	}

	var (
		loaded []typeset.Request
		errs   []error
	)
	for _, req := range reqs {
		if req.Kind != typeset.RequestSource && req.Kind != typeset.RequestFile {
			continue
		}
		data, err := read(filepath.FromSlash(req.Path))
		if err == nil {
			if req.Kind == typeset.RequestSource {
				err = eng.InsertSource(req.Path, string(data))
			} else {
				err = eng.InsertFile(req.Path, data)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s %s: %w", req.Kind, req.Path, err))
			continue
		}
		loaded = append(loaded, req)
	}
	return loaded, errors.Join(errs...)
}
