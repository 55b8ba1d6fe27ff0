package understory

import (
	"context"
	"errors"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
	"github.com/jward/understory/internal/walk"
)

// parsePhase runs the front-ends over the walked files with a bounded
// worker pool. Raw entity records are value-typed and independent, so
// per-file parsing may run concurrently; results land in a slice indexed
// by walk order, which preserves the stable path ordering the builder
// depends on regardless of task completion order.
func (a *Analyzer) parsePhase(ctx context.Context, entries []walk.FileEntry, frontends map[string]frontend.FrontEnd) ([]*frontend.FileRecord, []model.Diagnostic) {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type slot struct {
		record *frontend.FileRecord
		diag   *model.Diagnostic
	}
	slots := make([]slot, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range entries {
		i, entry := i, entry
		fe, ok := frontends[entry.Language]
		if !ok {
			continue // front-end disabled or degraded
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil // cooperative cancellation at file boundaries
			}
			source, err := os.ReadFile(entry.AbsPath)
			if err != nil {
				slots[i].diag = &model.Diagnostic{
					Category: model.DiagWalkFailure,
					Path:     entry.RelPath,
					Message:  err.Error(),
				}
				return nil
			}
			rec, err := fe.ParseFile(gctx, entry.RelPath, source)
			if err != nil {
				a.log.Warn("parse: file skipped", "path", entry.RelPath, "err", err)
				slots[i].diag = parseDiagnostic(entry, fe.Language(), err)
				return nil
			}
			slots[i].record = rec
			return nil
		})
	}
	g.Wait()

	var records []*frontend.FileRecord
	var diags []model.Diagnostic
	for _, s := range slots {
		if s.record != nil {
			records = append(records, s.record)
		}
		if s.diag != nil {
			diags = append(diags, *s.diag)
		}
	}
	return records, diags
}

// parseDiagnostic attributes a front-end failure to its stage.
func parseDiagnostic(entry walk.FileEntry, feName string, err error) *model.Diagnostic {
	d := &model.Diagnostic{
		Category: model.DiagParseFailure,
		Path:     entry.RelPath,
		FrontEnd: feName,
		Stage:    model.StageParse,
		Message:  err.Error(),
	}
	var pe *frontend.ParseError
	if errors.As(err, &pe) {
		d.Stage = pe.Stage
		d.Line = pe.Line
		d.Message = pe.Msg
	}
	return d
}
