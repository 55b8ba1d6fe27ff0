// Package understory analyses a multi-language source tree — Python, PHP,
// JavaScript, TypeScript — into a language-neutral semantic model:
// entities, containment, directional relationships, and bounded
// inter-procedural call flows. The pipeline runs Walk → Parse → Build →
// Detect → Analyze and returns an immutable AnalysisResult; rendering,
// querying, and persistence are consumers' concerns.
package understory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jward/understory/internal/build"
	"github.com/jward/understory/internal/flow"
	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/frontend/jsfe"
	"github.com/jward/understory/internal/frontend/phpfe"
	"github.com/jward/understory/internal/frontend/pythonfe"
	"github.com/jward/understory/internal/model"
	"github.com/jward/understory/internal/relate"
	"github.com/jward/understory/internal/walk"
)

// Analyzer runs the analysis pipeline with a fixed configuration.
type Analyzer struct {
	cfg Config
	log *slog.Logger

	helperTimeout time.Duration
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the structured logger; default slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// WithHelperTimeout bounds each JS/TS helper request.
func WithHelperTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.helperTimeout = d }
}

// New validates the configuration and creates an Analyzer. Configuration
// errors are fatal and reported before any file is opened.
func New(cfg Config, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze runs the full pipeline over the project root. Non-fatal
// conditions accumulate as diagnostics on the result; only identifier
// collisions and internal integrity failures abort. A cancellation
// between phases yields a partial model marked incomplete.
func Analyze(ctx context.Context, root string, cfg Config, opts ...Option) (*AnalysisResult, error) {
	a, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, root)
}

// Analyze runs the pipeline over one project root.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*AnalysisResult, error) {
	// ---- Walk ----
	walker, err := walk.New(root, walk.Options{
		ExcludeDirs:      a.cfg.ExcludeDirs,
		ExcludeGlobs:     a.cfg.ExcludeFiles,
		Extensions:       a.cfg.ExtensionMap(),
		RespectGitignore: a.cfg.RespectGitignore,
		Logger:           a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err)
	}
	entries, diags, err := walker.Files(ctx)
	if err != nil && ctx.Err() == nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return a.partialResult(root, diags), nil
	}

	// ---- Parse ----
	frontends, helper, helperDiag := a.buildFrontEnds(ctx)
	if helperDiag != nil {
		diags = append(diags, *helperDiag)
	}
	records, parseDiags := a.parsePhase(ctx, entries, frontends)
	if helper != nil {
		// The helper's lifetime spans the parse phase only.
		helper.Close()
	}
	diags = append(diags, parseDiags...)
	if ctx.Err() != nil {
		return a.partialResult(root, diags), nil
	}

	// ---- Build ----
	builder := build.New(a.log)
	m, ix, err := builder.Build(ctx, root, records)
	if err != nil {
		return nil, err
	}
	m.Diagnostics = append(diags, m.Diagnostics...)
	if m.Incomplete {
		return newResult(m), nil
	}

	// ---- Detect ----
	detector := relate.New(relate.Kinds{
		Imports:     a.cfg.detects("imports"),
		Composition: a.cfg.detects("composition"),
		Aggregation: a.cfg.detects("aggregation"),
		Association: a.cfg.detects("association"),
	}, a.log)
	detector.Run(ctx, m, ix)
	if m.Incomplete {
		return newResult(m), nil
	}

	// ---- Analyze flows ----
	analyzer := flow.New(flow.Options{
		MaxDepth:    a.cfg.Flow.MaxDepth,
		EntryPoints: a.cfg.Flow.EntryPoints,
	}, a.log)
	analyzer.Run(ctx, m, ix)

	m.SortEdges()
	m.SortTraces()
	return newResult(m), nil
}

// buildFrontEnds instantiates the enabled front-ends. A JS/TS helper
// launch failure disables those front-ends for the run and degrades with
// a diagnostic instead of failing.
func (a *Analyzer) buildFrontEnds(ctx context.Context) (map[string]frontend.FrontEnd, *jsfe.Helper, *model.Diagnostic) {
	frontends := make(map[string]frontend.FrontEnd)

	if a.cfg.LanguageEnabled(LangPython) {
		frontends[LangPython] = pythonfe.New(frontend.Options{
			Docstrings: a.cfg.docstringsFor(LangPython),
			Types:      a.cfg.typesFor(LangPython),
		})
	}
	if a.cfg.LanguageEnabled(LangPHP) {
		frontends[LangPHP] = phpfe.New(frontend.Options{
			Docstrings: a.cfg.docstringsFor(LangPHP),
			Types:      a.cfg.typesFor(LangPHP),
		})
	}

	wantJS := a.cfg.LanguageEnabled(LangJavaScript)
	wantTS := a.cfg.LanguageEnabled(LangTypeScript)
	if !wantJS && !wantTS {
		return frontends, nil, nil
	}

	helper, err := jsfe.StartHelper(ctx, a.cfg.HelperCommand, a.helperTimeout, a.log)
	if err != nil {
		a.log.Warn("js/ts helper unavailable; front-end disabled for this run", "err", err)
		return frontends, nil, &model.Diagnostic{
			Category: model.DiagHelperUnavailable,
			FrontEnd: "javascript",
			Message:  err.Error(),
		}
	}
	if wantJS {
		frontends[LangJavaScript] = jsfe.New(helper, LangJavaScript, frontend.Options{
			Docstrings: a.cfg.docstringsFor(LangJavaScript),
			Types:      a.cfg.typesFor(LangJavaScript),
		})
	}
	if wantTS {
		frontends[LangTypeScript] = jsfe.New(helper, LangTypeScript, frontend.Options{
			Docstrings: a.cfg.docstringsFor(LangTypeScript),
			Types:      a.cfg.typesFor(LangTypeScript),
		})
	}
	return frontends, helper, nil
}

// partialResult wraps walk-phase diagnostics when cancellation struck
// before the model existed.
func (a *Analyzer) partialResult(root string, diags []model.Diagnostic) *AnalysisResult {
	m := model.NewModel(root)
	m.Diagnostics = diags
	m.Incomplete = true
	return newResult(m)
}
