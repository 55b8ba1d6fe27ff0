// Package understory produces a language-neutral semantic model of a
// multi-language source tree.
//
// The pipeline has five stages with hard phase boundaries:
//
//	Walk    enumerate source files under the project root, applying the
//	        configured exclude rules, in stable lexicographic order
//	Parse   run one language front-end per file, producing raw entity
//	        records; Python and PHP parse in-process via tree-sitter, JS
//	        and TS through an out-of-process Node helper
//	Build   merge records into the project-wide model: namespace tree,
//	        stable identifiers, cross-file reference resolution
//	Detect  infer composition, aggregation, association, and module
//	        import edges from declared or syntactically evident types
//	Analyze reconstruct bounded call chains as flow traces, one per
//	        entry-routine call site
//
// The entry point is Analyze (or New + Analyzer.Analyze for a reusable
// configuration):
//
//	result, err := understory.Analyze(ctx, root, understory.DefaultConfig())
//
// Outputs are deterministic: for a fixed input tree and configuration the
// serialised AnalysisResult is byte-identical across runs. Parse failures,
// unreadable files, and unresolved references never abort the run; they
// accumulate in the result's diagnostics. Only configuration errors and
// identifier collisions are fatal.
//
// The core does not read configuration files, parse command-line flags,
// render output, or touch the network; those belong to consumers such as
// cmd/understory.
package understory
