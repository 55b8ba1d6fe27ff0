package understory

import "github.com/jward/understory/internal/model"

// Public type aliases for internal model types used in the AnalysisResult
// API. These are Go type aliases (=) — identical to the internal types at
// compile time. External consumers use these names; no conversion is
// needed.

type ID = model.ID
type Module = model.Module
type TypeDecl = model.TypeDecl
type Routine = model.Routine
type Attribute = model.Attribute
type Param = model.Param
type Ref = model.Ref
type Doc = model.Doc
type DocParam = model.DocParam
type Decorator = model.Decorator
type Import = model.Import
type ImportedName = model.ImportedName
type Edge = model.Edge
type EdgeKind = model.EdgeKind
type Provenance = model.Provenance
type FlowTrace = model.FlowTrace
type Hop = model.Hop
type Terminal = model.Terminal
type Diagnostic = model.Diagnostic
type Summary = model.Summary
type Snapshot = model.Snapshot

// External is the sentinel identifier for references that resolve to no
// project entity.
const External = model.External

// Edge kinds.
const (
	EdgeInherits   = model.EdgeInherits
	EdgeImplements = model.EdgeImplements
	EdgeUsesTrait  = model.EdgeUsesTrait
	EdgeImports    = model.EdgeImports
	EdgeComposes   = model.EdgeComposes
	EdgeAggregates = model.EdgeAggregates
	EdgeAssociates = model.EdgeAssociates
)

// Flow trace terminal markers.
const (
	TerminalDepthLimit = model.TerminalDepthLimit
	TerminalLeaf       = model.TerminalLeaf
	TerminalCycleBreak = model.TerminalCycleBreak
	TerminalUnresolved = model.TerminalUnresolved
)

// Diagnostic categories.
const (
	DiagWalkFailure       = model.DiagWalkFailure
	DiagParseFailure      = model.DiagParseFailure
	DiagResolutionMiss    = model.DiagResolutionMiss
	DiagHelperUnavailable = model.DiagHelperUnavailable
)
