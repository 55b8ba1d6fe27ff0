package store

import "fmt"

// EdgeRow is one persisted relationship edge.
type EdgeRow struct {
	Source      string
	Target      string
	Kind        string
	Cardinality string
	Optional    bool
	File        string
	Line        int
	Note        string
}

// EdgesByKind returns the persisted edges of one kind, in insertion
// order (which mirrors the snapshot's sorted order).
func (s *Store) EdgesByKind(kind string) ([]EdgeRow, error) {
	rows, err := s.db.Query(
		`SELECT source, target, kind, cardinality, optional, file, line, note
		 FROM relationships WHERE kind = ? ORDER BY id`, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("edges by kind %s: %w", kind, err)
	}
	defer rows.Close()

	var out []EdgeRow
	for rows.Next() {
		var e EdgeRow
		if err := rows.Scan(&e.Source, &e.Target, &e.Kind, &e.Cardinality,
			&e.Optional, &e.File, &e.Line, &e.Note); err != nil {
			return nil, fmt.Errorf("edges by kind %s: scan: %w", kind, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TypeIDsByModule returns the type identifiers declared in one module.
func (s *Store) TypeIDsByModule(moduleID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT id FROM types WHERE module_id = ? ORDER BY id", moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("types by module: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("types by module: scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// TraceEntryIDs returns the distinct entry routines that have traces.
func (s *Store) TraceEntryIDs() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT entry_id FROM flow_traces ORDER BY entry_id")
	if err != nil {
		return nil, fmt.Errorf("trace entries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("trace entries: scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Counts returns row counts per table, for summaries and sanity checks.
func (s *Store) Counts() (map[string]int, error) {
	out := make(map[string]int)
	for _, table := range []string{
		"modules", "types", "routines", "attributes", "relationships",
		"flow_traces", "diagnostics",
	} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
