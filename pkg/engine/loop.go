package engine

import (
	"context"
	"fmt"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/source"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// loopResult is the outcome of a fault-tolerant compilation.
type loopResult struct {
	// document is nil when the loop aborted.
	document *typeset.Document

	diagnostics []typeset.Diagnostic
	requests    []typeset.Request
	compiles    int
	aborted     bool
}

type diagKey struct {
	severity typeset.Severity
	message  string
	span     typeset.Span
}

func (r *loopResult) collect(res typeset.Result, seenDiags map[diagKey]bool, seenReqs map[typeset.Request]bool) {
	for _, d := range res.Diagnostics {
		key := diagKey{severity: d.Severity, message: d.Message, span: d.Span}
		if seenDiags[key] {
			continue
		}
		seenDiags[key] = true
		r.diagnostics = append(r.diagnostics, d)
	}
	for _, req := range res.Requests {
		if seenReqs[req] {
			continue
		}
		seenReqs[req] = true
		r.requests = append(r.requests, req)
	}
}

// culprit returns the index of the first live block that intersects one of
// the errors, or -1.
func culprit(world typeset.World, main source.ID, syn *Synthesis, errs []typeset.Diagnostic) int {
	type span struct{ start, end int }
	var mapped []span
	for _, d := range errs {
		if a, b, ok := locate(world, main, syn.Mapper, d); ok {
			mapped = append(mapped, span{a, b})
		}
	}
	for i, blk := range syn.Blocks {
		if blk.Neutralized {
			continue
		}
		for _, s := range mapped {
			if s.start <= blk.End && s.end >= blk.Start {
				return i
			}
		}
	}
	return -1
}

// blank replaces the synthesized bytes of block i with spaces.
func blank(main *source.Source, syn *Synthesis, i int) error {
	blk := &syn.Blocks[i]
	start, ok := syn.Mapper.AToB(blk.Start)
	if !ok {
		return fmt.Errorf("block %d: start %d does not map", i, blk.Start)
	}
	end, ok := syn.Mapper.AToB(blk.End)
	if !ok {
		return fmt.Errorf("block %d: end %d does not map", i, blk.End)
	}
	if err := main.Edit(start, end, source.Blank(main.Slice(start, end))); err != nil {
		return fmt.Errorf("blank block %d: %w", i, err)
	}
	blk.Neutralized = true
	return nil
}

// compileLoop compiles the synthesized slot of doc, blanking one failing
// block per iteration until the compilation succeeds or no failing block can
// be found. The slot holds syn.Text again when the loop returns.
func (e *Engine) compileLoop(ctx context.Context, doc *DocumentContext, syn *Synthesis) (*loopResult, error) {
	main := e.files.SetSource(doc.main, syn.Text)
	defer main.Replace(syn.Text)

	logger := e.logger.With(logging.FieldHandle, doc.handle)
	out := &loopResult{}
	seenDiags := make(map[diagKey]bool)
	seenReqs := make(map[typeset.Request]bool)

	for iteration := 0; iteration <= len(syn.Blocks); iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", doc.main, err)
		}

		res := e.backend.Compile(ctx, doc.world)
		out.compiles++
		out.collect(res, seenDiags, seenReqs)

		if !res.HasErrors() {
			out.document = res.Document
			logger.Debug("compile succeeded",
				logging.FieldIteration, iteration,
				logging.FieldCompiles, out.compiles)
			return out, nil
		}

		i := culprit(doc.world, doc.main, syn, res.Errors())
		if i < 0 {
			logger.Debug("no block to blank, aborting",
				logging.FieldIteration, iteration,
				logging.FieldDiagnostics, len(res.Errors()))
			out.aborted = true
			return out, nil
		}
		if err := blank(main, syn, i); err != nil {
			return nil, err
		}
		logger.Debug("blanked failing block",
			logging.FieldIteration, iteration,
			logging.FieldBlock, i,
			logging.FieldRange, fmt.Sprintf("%d..%d", syn.Blocks[i].Start, syn.Blocks[i].End))
	}

	out.aborted = true
	return out, nil
}
