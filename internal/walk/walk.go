// Package walk enumerates the source files of a project, applying the
// configured include/exclude rules and tagging each file with the language
// front-end responsible for it.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/understory/internal/model"
)

// FileEntry is one discovered source file.
type FileEntry struct {
	AbsPath  string
	RelPath  string // forward-slash, relative to the project root
	Language string
}

// Options configures a Walker.
type Options struct {
	// ExcludeDirs prunes directories by name at any depth.
	ExcludeDirs []string
	// ExcludeGlobs skips files whose base name matches any glob.
	ExcludeGlobs []string
	// Extensions maps lowercase file extensions to language names. Files
	// with unmapped extensions are ignored without a diagnostic.
	Extensions map[string]string
	// RespectGitignore additionally honours the root .gitignore.
	RespectGitignore bool
	Logger           *slog.Logger
}

// Walker enumerates files under a project root in stable lexicographic
// order by relative path.
type Walker struct {
	root     string
	excluded map[string]bool
	globs    []glob.Glob
	exts     map[string]string
	gi       *ignore.GitIgnore
	log      *slog.Logger
}

// New creates a Walker. Glob compilation failures are configuration
// errors and surface immediately.
func New(root string, opts Options) (*Walker, error) {
	w := &Walker{
		root:     root,
		excluded: make(map[string]bool, len(opts.ExcludeDirs)),
		exts:     opts.Extensions,
		log:      opts.Logger,
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	for _, d := range opts.ExcludeDirs {
		w.excluded[d] = true
	}
	for _, pattern := range opts.ExcludeGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude glob %q: %w", pattern, err)
		}
		w.globs = append(w.globs, g)
	}
	if opts.RespectGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			w.gi = gi
		}
	}
	return w, nil
}

// Files walks the tree and returns the matching entries sorted by relative
// path, plus diagnostics for entries that could not be accessed. Unreadable
// entries never abort the walk. Symbolic links are not followed, so a link
// can never lead the walk outside the project root. Cancellation is
// cooperative at file boundaries.
func (w *Walker) Files(ctx context.Context) ([]FileEntry, []model.Diagnostic, error) {
	var entries []FileEntry
	var diags []model.Diagnostic

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			rel := w.relOf(path)
			w.log.Warn("walk: skipping inaccessible entry", "path", rel, "err", err)
			diags = append(diags, model.Diagnostic{
				Category: model.DiagWalkFailure,
				Path:     rel,
				Message:  err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == w.root {
				return nil
			}
			if w.excluded[name] {
				return filepath.SkipDir
			}
			if w.gi != nil && w.gi.MatchesPath(w.relOf(path)+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		// Only regular files; symlinks are never followed.
		if !d.Type().IsRegular() {
			return nil
		}

		lang, ok := w.exts[strings.ToLower(filepath.Ext(name))]
		if !ok {
			return nil
		}
		for _, g := range w.globs {
			if g.Match(name) {
				return nil
			}
		}
		rel := w.relOf(path)
		if w.gi != nil && w.gi.MatchesPath(rel) {
			return nil
		}
		entries = append(entries, FileEntry{AbsPath: path, RelPath: rel, Language: lang})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return entries, diags, ctx.Err()
		}
		return nil, diags, fmt.Errorf("walk %s: %w", w.root, err)
	}

	// WalkDir visits in directory order; re-sort by the forward-slash
	// relative path so identifier assignment downstream is deterministic
	// across platforms.
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, diags, nil
}

func (w *Walker) relOf(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
