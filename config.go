package understory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrConfig marks an invalid configuration. Configuration errors are fatal
// and detected before any file is opened.
var ErrConfig = errors.New("invalid configuration")

// Supported language names, as accepted in Config.Languages.
const (
	LangPython     = "python"
	LangPHP        = "php"
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
)

// defaultExtensions maps each language to its default extension set.
var defaultExtensions = map[string][]string{
	LangPython:     {".py"},
	LangPHP:        {".php"},
	LangJavaScript: {".js", ".jsx", ".mjs", ".cjs"},
	LangTypeScript: {".ts", ".tsx"},
}

// Relationship kinds accepted in Config.Relationships.
var detectableRelationships = map[string]bool{
	"imports":     true,
	"composition": true,
	"aggregation": true,
	"association": true,
}

// LanguageConfig controls one front-end's participation.
type LanguageConfig struct {
	// Enabled defaults to true; a disabled front-end emits nothing.
	Enabled *bool `yaml:"enabled"`
	// Extensions overrides the extension set the walker associates with
	// this front-end. Each entry must start with a dot.
	Extensions []string `yaml:"extensions"`
	// DetectDocstrings and DetectTypes override the top-level toggles for
	// this front-end only.
	DetectDocstrings *bool `yaml:"detect_docstrings"`
	DetectTypes      *bool `yaml:"detect_types"`
}

// FlowConfig bounds the flow analyzer.
type FlowConfig struct {
	// MaxDepth bounds call-chain recursion. Must be >= 1. Default 5.
	MaxDepth int `yaml:"max_depth"`
	// EntryPoints is an optional explicit list of "Class.method" or
	// "function" names. Empty means every public routine is an entry.
	EntryPoints []string `yaml:"entry_points"`
}

// Config is the full pipeline configuration. The zero value is not valid;
// start from DefaultConfig. The core never reads configuration files —
// callers construct a Config and hand it to Analyze.
type Config struct {
	// ExcludeDirs prunes any directory with a matching name during the
	// walk, at any depth.
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// ExcludeFiles skips files whose base name matches any of these globs.
	ExcludeFiles []string `yaml:"exclude_files"`
	// RespectGitignore additionally prunes paths ignored by the project's
	// .gitignore files.
	RespectGitignore bool `yaml:"respect_gitignore"`

	// Languages configures the front-ends. Keys must be supported language
	// names. A language absent from the map runs with defaults.
	Languages map[string]LanguageConfig `yaml:"languages"`

	// DetectDocstrings and DetectTypes are the project-wide defaults for
	// documentation extraction and type-annotation capture.
	DetectDocstrings bool `yaml:"detect_docstrings"`
	DetectTypes      bool `yaml:"detect_types"`

	Flow FlowConfig `yaml:"flow"`

	// Relationships selects which edge kinds the detector computes.
	// Subset of {imports, composition, aggregation, association}.
	Relationships []string `yaml:"relationships"`

	// Workers bounds parallel per-file parsing. 0 means one per CPU.
	Workers int `yaml:"workers"`

	// HelperCommand overrides the JS/TS helper launch command. Empty means
	// the default ("node" plus the embedded helper script).
	HelperCommand []string `yaml:"helper_command"`
}

// DefaultConfig returns the configuration used when the caller has no
// opinions: all languages enabled, docstrings and types captured, all
// relationship kinds detected, flow depth 5.
func DefaultConfig() Config {
	return Config{
		ExcludeDirs:      []string{".git", "node_modules", "vendor", "__pycache__", ".venv"},
		DetectDocstrings: true,
		DetectTypes:      true,
		Flow:             FlowConfig{MaxDepth: 5},
		Relationships:    []string{"imports", "composition", "aggregation", "association"},
	}
}

// Validate checks the configuration. All failures wrap ErrConfig.
func (c *Config) Validate() error {
	if c.Flow.MaxDepth < 1 {
		return fmt.Errorf("%w: flow.max_depth must be >= 1, got %d", ErrConfig, c.Flow.MaxDepth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrConfig, c.Workers)
	}
	for lang, lc := range c.Languages {
		if _, ok := defaultExtensions[lang]; !ok {
			return fmt.Errorf("%w: unknown language %q", ErrConfig, lang)
		}
		for _, ext := range lc.Extensions {
			if !strings.HasPrefix(ext, ".") {
				return fmt.Errorf("%w: language %s: extension %q must start with a dot", ErrConfig, lang, ext)
			}
		}
	}
	for _, kind := range c.Relationships {
		if !detectableRelationships[kind] {
			return fmt.Errorf("%w: unknown relationship kind %q", ErrConfig, kind)
		}
	}
	return nil
}

// LanguageEnabled reports whether a front-end participates in this run.
func (c *Config) LanguageEnabled(lang string) bool {
	if _, ok := defaultExtensions[lang]; !ok {
		return false
	}
	lc, ok := c.Languages[lang]
	if !ok || lc.Enabled == nil {
		return true
	}
	return *lc.Enabled
}

// ExtensionMap returns extension→language for every enabled front-end, in
// a fresh map. Languages are applied in alphabetical order, so when two
// enabled languages list the same extension the later one wins; Validate
// does not check the extension sets for overlap.
func (c *Config) ExtensionMap() map[string]string {
	out := make(map[string]string)
	langs := make([]string, 0, len(defaultExtensions))
	for lang := range defaultExtensions {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if !c.LanguageEnabled(lang) {
			continue
		}
		exts := defaultExtensions[lang]
		if lc, ok := c.Languages[lang]; ok && len(lc.Extensions) > 0 {
			exts = lc.Extensions
		}
		for _, ext := range exts {
			out[strings.ToLower(ext)] = lang
		}
	}
	return out
}

// docstringsFor resolves the documentation-extraction toggle for one
// front-end, honouring the per-language override.
func (c *Config) docstringsFor(lang string) bool {
	if lc, ok := c.Languages[lang]; ok && lc.DetectDocstrings != nil {
		return *lc.DetectDocstrings
	}
	return c.DetectDocstrings
}

// typesFor resolves the type-capture toggle for one front-end.
func (c *Config) typesFor(lang string) bool {
	if lc, ok := c.Languages[lang]; ok && lc.DetectTypes != nil {
		return *lc.DetectTypes
	}
	return c.DetectTypes
}

// detects reports whether the named relationship kind is selected.
func (c *Config) detects(kind string) bool {
	for _, k := range c.Relationships {
		if k == kind {
			return true
		}
	}
	return false
}
