// Package flow reconstructs bounded inter-procedural call chains. Each
// entry routine yields one trace per top-level call site, so a renderer
// can draw one sequence diagram per scenario. The analyzer never follows
// calls across External nodes, never expands a routine twice along one
// path, and never crosses language boundaries.
package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jward/understory/internal/build"
	"github.com/jward/understory/internal/model"
)

// Options bounds the analysis.
type Options struct {
	// MaxDepth bounds the number of non-terminal hops per trace.
	MaxDepth int
	// EntryPoints lists explicit "Class.method" or "function" entries.
	// Empty means every public routine is an entry.
	EntryPoints []string
}

// Analyzer adds flow traces to the model.
type Analyzer struct {
	opts Options
	log  *slog.Logger
}

// New creates an Analyzer.
func New(opts Options, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 5
	}
	return &Analyzer{opts: opts, log: log}
}

// Run analyses every entry routine. Cancellation is cooperative at entity
// boundaries.
func (a *Analyzer) Run(ctx context.Context, m *model.Model, ix *build.Index) {
	for _, rid := range a.entries(m) {
		if ctx.Err() != nil {
			m.Incomplete = true
			return
		}
		a.traceEntry(m, ix, rid)
	}
}

// entries selects the entry routines, sorted by identifier.
func (a *Analyzer) entries(m *model.Model) []model.ID {
	all := m.SortedRoutineIDs()
	if len(a.opts.EntryPoints) == 0 {
		var out []model.ID
		for _, rid := range all {
			if m.Routines[rid].Visibility == model.Public {
				out = append(out, rid)
			}
		}
		return out
	}

	wanted := make(map[string]bool, len(a.opts.EntryPoints))
	for _, e := range a.opts.EntryPoints {
		wanted[e] = true
	}
	var out []model.ID
	for _, rid := range all {
		r := m.Routines[rid]
		if wanted[r.Name] && model.KindOf(r.Owner) == model.KindModule {
			out = append(out, rid)
			continue
		}
		if owner, ok := m.Types[r.Owner]; ok && wanted[owner.Name+"."+r.Name] {
			out = append(out, rid)
		}
	}
	return out
}

// traceEntry emits one trace per top-level call site of the entry.
func (a *Analyzer) traceEntry(m *model.Model, ix *build.Index, entry model.ID) {
	r := m.Routines[entry]
	for _, site := range r.CallSites {
		path := map[model.ID]bool{entry: true}
		var hops []model.Hop
		terminal := a.expand(m, ix, r, site, 1, path, &hops)
		if len(hops) == 0 {
			continue
		}
		m.AddTrace(model.FlowTrace{
			Entry:    entry,
			Hops:     hops,
			Depth:    len(hops),
			Terminal: terminal,
		})
	}
}

// expand resolves one call site, appends its hop, and recurses into the
// callee. The returned terminal classifies why this branch stopped; for a
// branching callee the last branch's terminal stands for the trace.
func (a *Analyzer) expand(m *model.Model, ix *build.Index, caller *model.Routine, site model.CallSite, depth int, path map[model.ID]bool, hops *[]model.Hop) model.Terminal {
	callee, note := a.resolve(m, ix, caller, site)
	if callee == "" {
		*hops = append(*hops, model.Hop{
			Caller:     caller.ID,
			Callee:     model.External,
			CalleeText: site.Callee,
			Line:       site.Line,
		})
		return model.TerminalUnresolved
	}

	hop := model.Hop{
		Caller:     caller.ID,
		Callee:     callee,
		CalleeText: site.Callee,
		Line:       site.Line,
		Note:       note,
	}
	*hops = append(*hops, hop)

	if path[callee] {
		return model.TerminalCycleBreak
	}
	target := m.Routines[callee]
	if len(target.CallSites) == 0 {
		return model.TerminalLeaf
	}
	if depth >= a.opts.MaxDepth {
		return model.TerminalDepthLimit
	}

	path[callee] = true
	terminal := model.TerminalLeaf
	for _, next := range target.CallSites {
		terminal = a.expand(m, ix, target, next, depth+1, path, hops)
	}
	delete(path, callee)
	return terminal
}

// resolve maps a call site to a routine ID using the cascade: direct name
// in the enclosing scope, self/this dispatch with MRO, receiver with a
// known declared type, otherwise unresolved. Local helpers win over
// imported names; calls never cross a language boundary.
func (a *Analyzer) resolve(m *model.Model, ix *build.Index, caller *model.Routine, site model.CallSite) (model.ID, string) {
	callee := strings.TrimSpace(site.Callee)
	if callee == "" {
		return "", ""
	}
	lang := m.Modules[caller.Module].Language

	// Free-standing name.
	if site.Receiver == "" && !strings.ContainsAny(callee, ".\\") {
		// (a) same module first: local wins over imported.
		if rid := ix.FunctionIn(caller.Module, callee); rid != "" {
			return rid, ""
		}
		// Sibling method called without receiver only exists in PHP/JS as
		// bare functions; Python sibling methods arrive as self.<name>.
		if bound := ix.Binding(caller.Module, callee); bound != "" {
			if model.KindOf(bound) == model.KindRoutine && a.sameLanguage(m, bound, lang) {
				return bound, ""
			}
		}
		return "", ""
	}

	recv, method := splitReceiver(callee, site.Receiver)
	if method == "" {
		return "", ""
	}

	// (b) self/this dispatch within the owning type, walking the MRO.
	if recv == "self" || recv == "this" || recv == "static" || recv == "parent" {
		owner := ix.TypeDeclaring(caller)
		if owner == nil {
			return "", ""
		}
		start := owner.ID
		if recv == "parent" {
			for _, base := range owner.Bases {
				if base.Resolved() {
					start = base.Target
					break
				}
			}
			if start == owner.ID {
				return "", ""
			}
		}
		if rid, note := ix.MethodOn(start, method); rid != "" {
			return rid, note
		}
		return "", ""
	}

	// (c) receiver with a declared or syntactically evident type.
	if tid := a.receiverType(m, ix, caller, recv); tid != "" {
		if !a.sameLanguage(m, tid, lang) {
			return "", ""
		}
		if rid, note := ix.MethodOn(tid, method); rid != "" {
			return rid, note
		}
		return "", ""
	}

	// Module-qualified function call through an import binding.
	if bound := ix.Binding(caller.Module, recv); bound != "" && model.KindOf(bound) == model.KindModule {
		if rid := ix.FunctionIn(bound, method); rid != "" && a.sameLanguage(m, rid, lang) {
			return rid, ""
		}
	}
	return "", ""
}

// receiverType infers the receiver's type: a parameter annotation, an
// attribute with a declared or constructed type, a local constructor
// assignment, or the receiver being a type name (static dispatch).
func (a *Analyzer) receiverType(m *model.Model, ix *build.Index, caller *model.Routine, recv string) model.ID {
	// Attribute access on self/this: self.engine.start().
	if rest, ok := cutReceiverPrefix(recv); ok {
		if owner := ix.TypeDeclaring(caller); owner != nil {
			for _, aid := range owner.Attributes {
				attr := m.Attributes[aid]
				if attr.Name != rest {
					continue
				}
				if attr.Type.Resolved() {
					return attr.Type.Target
				}
				if attr.AssignedNew != "" {
					if id := ix.ResolveName(caller.Module, attr.AssignedNew); model.KindOf(id) == model.KindType {
						return id
					}
				}
				if attr.Type.Text != "" {
					if id := ix.ResolveName(caller.Module, attr.Type.Text); model.KindOf(id) == model.KindType {
						return id
					}
				}
				return ""
			}
		}
		return ""
	}

	// Parameter with a declared type.
	for _, p := range caller.Params {
		if p.Name != recv {
			continue
		}
		if p.Type.Resolved() {
			return p.Type.Target
		}
		if p.Type.Text != "" {
			if id := ix.ResolveName(caller.Module, p.Type.Text); model.KindOf(id) == model.KindType {
				return id
			}
		}
		return ""
	}

	// Local constructor assignment or annotation.
	for _, l := range caller.Locals {
		if l.Name != recv {
			continue
		}
		if l.Type.Resolved() {
			return l.Type.Target
		}
		if l.Type.Text != "" {
			if id := ix.ResolveName(caller.Module, l.Type.Text); model.KindOf(id) == model.KindType {
				return id
			}
		}
		return ""
	}

	// The receiver spelled as a type name: static dispatch.
	if id := ix.ResolveName(caller.Module, recv); model.KindOf(id) == model.KindType {
		return id
	}
	return ""
}

func (a *Analyzer) sameLanguage(m *model.Model, id model.ID, lang string) bool {
	switch model.KindOf(id) {
	case model.KindRoutine:
		return m.Modules[m.Routines[id].Module].Language == lang
	case model.KindType:
		return m.Modules[m.Types[id].Module].Language == lang
	case model.KindModule:
		return m.Modules[id].Language == lang
	}
	return false
}

// splitReceiver separates the receiver chain from the method name in a
// dotted callee expression.
func splitReceiver(callee, receiver string) (recv, method string) {
	sep := strings.LastIndexAny(callee, ".\\")
	if sep < 0 {
		return receiver, callee
	}
	method = callee[sep+1:]
	if receiver != "" {
		return receiver, method
	}
	return callee[:sep], method
}

// cutReceiverPrefix strips a self./this. prefix from a receiver chain,
// returning the remaining single attribute name.
func cutReceiverPrefix(recv string) (string, bool) {
	for _, prefix := range []string{"self.", "this."} {
		if rest, ok := strings.CutPrefix(recv, prefix); ok {
			if !strings.Contains(rest, ".") {
				return rest, true
			}
			return "", false
		}
	}
	return "", false
}
