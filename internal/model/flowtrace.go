package model

import "sort"

// Terminal classifies why a flow trace stopped.
type Terminal string

const (
	TerminalDepthLimit Terminal = "depth-limit"
	TerminalLeaf       Terminal = "leaf"
	TerminalCycleBreak Terminal = "cycle-break"
	TerminalUnresolved Terminal = "unresolved"
)

// Hop is one caller→callee step in a flow trace. Callee is External when
// the analyzer could not resolve the call; CalleeText preserves the
// original call expression for diagnostic display.
type Hop struct {
	Caller     ID
	Callee     ID
	CalleeText string
	Line       int
	Note       string
}

// FlowTrace is an ordered sequence of call hops rooted at an entry routine.
// One trace is emitted per top-level call site of the entry routine, so a
// renderer can draw one sequence diagram per scenario.
type FlowTrace struct {
	Entry    ID
	Hops     []Hop
	Depth    int
	Terminal Terminal
}

// AddTrace appends a flow trace to the model.
func (m *Model) AddTrace(t FlowTrace) {
	m.Traces = append(m.Traces, t)
}

// TracesByEntry returns the traces rooted at the given routine, in stored
// order.
func (m *Model) TracesByEntry(entry ID) []FlowTrace {
	var out []FlowTrace
	for _, t := range m.Traces {
		if t.Entry == entry {
			out = append(out, t)
		}
	}
	return out
}

// SortTraces orders traces by entry routine ID, then by the first hop's
// line number, for deterministic serialisation.
func (m *Model) SortTraces() {
	sort.SliceStable(m.Traces, func(i, j int) bool {
		a, b := m.Traces[i], m.Traces[j]
		if a.Entry != b.Entry {
			return a.Entry < b.Entry
		}
		al, bl := 0, 0
		if len(a.Hops) > 0 {
			al = a.Hops[0].Line
		}
		if len(b.Hops) > 0 {
			bl = b.Hops[0].Line
		}
		return al < bl
	})
}
