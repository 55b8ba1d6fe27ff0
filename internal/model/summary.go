package model

// Summary holds the per-run counters exposed on an AnalysisResult.
type Summary struct {
	Entities    map[string]int `json:"entities" yaml:"entities"`
	Edges       map[string]int `json:"edges" yaml:"edges"`
	Terminals   map[string]int `json:"terminals" yaml:"terminals"`
	Languages   map[string]int `json:"languages" yaml:"languages"`
	Diagnostics int            `json:"diagnostics" yaml:"diagnostics"`
}

// Summarize computes counts per entity kind, edge kind, trace terminal
// marker, and language.
func (m *Model) Summarize() Summary {
	s := Summary{
		Entities:  map[string]int{},
		Edges:     map[string]int{},
		Terminals: map[string]int{},
		Languages: map[string]int{},
	}
	s.Entities[string(KindModule)] = len(m.Modules)
	s.Entities[string(KindType)] = len(m.Types)
	s.Entities[string(KindRoutine)] = len(m.Routines)
	s.Entities[string(KindAttribute)] = len(m.Attributes)
	for _, e := range m.Edges {
		s.Edges[string(e.Kind)]++
	}
	for _, t := range m.Traces {
		s.Terminals[string(t.Terminal)]++
	}
	for _, mod := range m.Modules {
		s.Languages[mod.Language]++
	}
	s.Diagnostics = len(m.Diagnostics)
	return s
}
