package phpfe

import (
	"path"
	"regexp"
	"strings"

	"github.com/jward/understory/internal/docparse"
	"github.com/jward/understory/internal/frontend"
	"github.com/jward/understory/internal/model"
)

// The regex reader extracts a strict subset of the syntactic parse:
// namespace, use imports, class/interface/trait names with their
// inheritance clauses, method signatures with visibility, and the
// immediately preceding doc-blocks. Every entity it produces carries the
// best-effort provenance flag so downstream consumers can treat it
// cautiously.
var (
	fbNamespaceRe = regexp.MustCompile(`(?m)^\s*namespace\s+([A-Za-z_\\][A-Za-z0-9_\\]*)\s*;`)
	fbUseRe       = regexp.MustCompile(`(?m)^\s*use\s+([A-Za-z_\\][A-Za-z0-9_\\]*)(?:\s+as\s+([A-Za-z_][A-Za-z0-9_]*))?\s*;`)
	fbTypeRe      = regexp.MustCompile(`(?m)^\s*(?:(abstract|final)\s+)?(class|interface|trait)\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s+extends\s+([A-Za-z_\\][A-Za-z0-9_\\,\s]*?))?(?:\s+implements\s+([A-Za-z_\\][A-Za-z0-9_\\,\s]*?))?\s*\{`)
	fbMethodRe    = regexp.MustCompile(`(?m)^\s*(?:(public|protected|private)\s+)?(?:(static)\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)
	fbDocBlockRe  = regexp.MustCompile(`/\*\*[\s\S]*?\*/`)
)

// parseFallback is the degraded reader used when the syntactic parse is
// unavailable.
func (fe *FrontEnd) parseFallback(relPath string, source []byte) (*frontend.FileRecord, error) {
	text := string(source)
	rec := &frontend.FileRecord{
		RelPath:    relPath,
		Language:   "php",
		ModuleName: strings.TrimSuffix(path.Base(relPath), path.Ext(relPath)),
		BestEffort: true,
	}

	if m := fbNamespaceRe.FindStringSubmatch(text); m != nil {
		rec.Namespace = m[1]
	}
	for _, m := range fbUseRe.FindAllStringSubmatchIndex(text, -1) {
		target := text[m[2]:m[3]]
		var alias string
		if m[4] >= 0 {
			alias = text[m[4]:m[5]]
		}
		short := target
		if k := strings.LastIndexByte(short, '\\'); k >= 0 {
			short = short[k+1:]
		}
		rec.Imports = append(rec.Imports, frontend.ImportRecord{
			Kind:   model.ImportNamed,
			Module: target,
			Names:  []model.ImportedName{{Name: short, Alias: alias}},
			Line:   lineAt(text, m[0]),
		})
	}

	typeMatches := fbTypeRe.FindAllStringSubmatchIndex(text, -1)
	for ti, m := range typeMatches {
		tr := frontend.TypeRecord{
			Visibility: model.Public,
			StartLine:  lineAt(text, m[0]),
			BestEffort: true,
		}
		if m[2] >= 0 {
			switch text[m[2]:m[3]] {
			case "abstract":
				tr.Abstract = true
			case "final":
				tr.Final = true
			}
		}
		switch text[m[4]:m[5]] {
		case "interface":
			tr.Kind = model.TypeInterface
		case "trait":
			tr.Kind = model.TypeTrait
		default:
			tr.Kind = model.TypeClass
		}
		tr.Name = text[m[6]:m[7]]
		if m[8] >= 0 {
			tr.Bases = splitNameList(text[m[8]:m[9]])
		}
		if m[10] >= 0 {
			tr.Implements = splitNameList(text[m[10]:m[11]])
		}
		if fe.opts.Docstrings {
			if db := docBlockBefore(text, m[0]); db != "" {
				tr.Doc = docparse.ParsePHPDoc(db)
			}
		}

		// Methods between this declaration and the next one are attributed
		// to this type; nesting is beyond the fallback's ambitions.
		end := len(text)
		if ti+1 < len(typeMatches) {
			end = typeMatches[ti+1][0]
		}
		tr.EndLine = lineAt(text, end-1)
		segment := text[m[1]:end]
		for _, mm := range fbMethodRe.FindAllStringSubmatchIndex(segment, -1) {
			rr := frontend.RoutineRecord{
				Kind:       model.RoutineMethod,
				Visibility: model.Public,
				StartLine:  lineAt(text, m[1]+mm[0]),
			}
			rr.EndLine = rr.StartLine
			if mm[2] >= 0 {
				rr.Visibility = visibilityOf(segment[mm[2]:mm[3]])
			}
			rr.Static = mm[4] >= 0
			rr.Name = segment[mm[6]:mm[7]]
			rr.Params = fallbackParams(segment[mm[8]:mm[9]])
			if fe.opts.Docstrings {
				if db := docBlockBefore(segment, mm[0]); db != "" {
					rr.Doc = docparse.ParsePHPDoc(db)
				}
			}
			tr.Methods = append(tr.Methods, rr)
		}
		rec.Types = append(rec.Types, tr)
	}
	return rec, nil
}

// fallbackParams splits a raw parameter list into records; types and
// defaults are recognised in the common `Type $name = default` shape.
func fallbackParams(raw string) []frontend.ParamRecord {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []frontend.ParamRecord
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p := frontend.ParamRecord{}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			p.HasDefault = true
			p.Default = strings.TrimSpace(part[eq+1:])
			part = strings.TrimSpace(part[:eq])
		}
		fields := strings.Fields(part)
		for _, f := range fields {
			if strings.HasPrefix(f, "...$") {
				p.Variadic = true
				p.Name = strings.TrimPrefix(f, "...$")
			} else if strings.HasPrefix(f, "$") {
				p.Name = strings.TrimPrefix(f, "$")
			} else if p.Type == "" {
				p.Type = f
			}
		}
		if p.Name != "" {
			out = append(out, p)
		}
	}
	return out
}

// docBlockBefore returns a doc-block that ends just before offset, with
// only whitespace in between.
func docBlockBefore(text string, offset int) string {
	head := text[:offset]
	locs := fbDocBlockRe.FindAllStringIndex(head, -1)
	if len(locs) == 0 {
		return ""
	}
	last := locs[len(locs)-1]
	if strings.TrimSpace(head[last[1]:]) != "" {
		return ""
	}
	return head[last[0]:last[1]]
}

func splitNameList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lineAt(text string, offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
