package store

import (
	"fmt"

	"github.com/jward/understory/internal/model"
)

// SaveSnapshot replaces the database contents with one snapshot, inside a
// single transaction. Section ordering follows the snapshot's own
// deterministic ordering, so row IDs are reproducible too.
func (s *Store) SaveSnapshot(snap *model.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"flow_hops", "flow_traces", "relationships", "routine_params",
		"attributes", "routines", "types", "module_imports", "modules",
		"diagnostics",
	} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("save snapshot: clear %s: %w", table, err)
		}
	}

	for _, mod := range snap.Modules {
		doc := ""
		if mod.Doc != nil {
			doc = mod.Doc.Text
		}
		if _, err := tx.Exec(
			`INSERT INTO modules (id, path, language, name, namespace, doc, best_effort)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			mod.ID, mod.Path, mod.Language, mod.Name, mod.Namespace, doc, mod.BestEffort,
		); err != nil {
			return fmt.Errorf("save snapshot: module %s: %w", mod.ID, err)
		}
		for _, imp := range mod.Imports {
			if _, err := tx.Exec(
				`INSERT INTO module_imports (module_id, kind, target, resolved, line)
				 VALUES (?, ?, ?, ?, ?)`,
				mod.ID, imp.Kind, imp.Module, imp.Resolved, imp.Line,
			); err != nil {
				return fmt.Errorf("save snapshot: import in %s: %w", mod.ID, err)
			}
		}
	}

	for _, t := range snap.Types {
		doc := ""
		if t.Doc != nil {
			doc = t.Doc.Text
		}
		if _, err := tx.Exec(
			`INSERT INTO types (id, module_id, name, qualified, kind, visibility,
			                    abstract, final, start_line, end_line, doc, best_effort)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Module, t.Name, t.Qualified, t.Kind, t.Visibility,
			t.Abstract, t.Final, t.StartLine, t.EndLine, doc, t.BestEffort,
		); err != nil {
			return fmt.Errorf("save snapshot: type %s: %w", t.ID, err)
		}
	}

	for _, r := range snap.Routines {
		doc := ""
		if r.Doc != nil {
			doc = r.Doc.Text
		}
		returns := ""
		if r.Returns != nil {
			returns = r.Returns.Text
		}
		if _, err := tx.Exec(
			`INSERT INTO routines (id, owner_id, module_id, name, qualified, kind,
			                       visibility, static, abstract, async, generator,
			                       returns, start_line, end_line, doc, best_effort)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Owner, r.Module, r.Name, r.Qualified, r.Kind,
			r.Visibility, r.Static, r.Abstract, r.Async, r.Generator,
			returns, r.StartLine, r.EndLine, doc, r.BestEffort,
		); err != nil {
			return fmt.Errorf("save snapshot: routine %s: %w", r.ID, err)
		}
		for ordinal, p := range r.Params {
			if _, err := tx.Exec(
				`INSERT INTO routine_params (routine_id, ordinal, name, type,
				                             has_default, default_expr, variadic)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				r.ID, ordinal, p.Name, p.Type, p.HasDefault, p.Default,
				p.Variadic || p.KeywordVariadic,
			); err != nil {
				return fmt.Errorf("save snapshot: param of %s: %w", r.ID, err)
			}
		}
	}

	for _, a := range snap.Attributes {
		if _, err := tx.Exec(
			`INSERT INTO attributes (id, owner_id, module_id, name, kind, type,
			                         type_target, default_expr, static, visibility, line)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Owner, a.Module, a.Name, a.Kind, a.Type,
			a.TypeTarget, a.Default, a.Static, a.Visibility, a.Line,
		); err != nil {
			return fmt.Errorf("save snapshot: attribute %s: %w", a.ID, err)
		}
	}

	for _, e := range snap.Relationships {
		if _, err := tx.Exec(
			`INSERT INTO relationships (source, target, kind, cardinality,
			                            optional, file, line, note)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Source, e.Target, e.Kind, e.Cardinality, e.Optional, e.File, e.Line, e.Note,
		); err != nil {
			return fmt.Errorf("save snapshot: edge %s→%s: %w", e.Source, e.Target, err)
		}
	}

	for _, entry := range snap.Flows {
		for _, trace := range entry.Traces {
			res, err := tx.Exec(
				"INSERT INTO flow_traces (entry_id, depth, terminal) VALUES (?, ?, ?)",
				entry.RoutineID, trace.Depth, trace.Terminal,
			)
			if err != nil {
				return fmt.Errorf("save snapshot: trace for %s: %w", entry.RoutineID, err)
			}
			traceID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("save snapshot: trace id: %w", err)
			}
			for ordinal, hop := range trace.Hops {
				if _, err := tx.Exec(
					`INSERT INTO flow_hops (trace_id, ordinal, caller, callee,
					                        callee_text, line, note)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					traceID, ordinal, hop.Caller, hop.Callee, hop.CalleeText, hop.Line, hop.Note,
				); err != nil {
					return fmt.Errorf("save snapshot: hop in trace %d: %w", traceID, err)
				}
			}
		}
	}

	for _, d := range snap.Diagnostics {
		if _, err := tx.Exec(
			`INSERT INTO diagnostics (category, path, line, front_end, stage, message)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			d.Category, d.Path, d.Line, d.FrontEnd, d.Stage, d.Message,
		); err != nil {
			return fmt.Errorf("save snapshot: diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}
