package docparse

import (
	"regexp"
	"strings"

	"github.com/jward/understory/internal/model"
)

// JSDoc is a parsed /** ... */ comment preceding a JS/TS declaration.
// Beyond the common Doc fields it carries the marker tags the JS front-end
// folds into modifier flags and inheritance hints.
type JSDoc struct {
	model.Doc
	Extends    []string
	Implements []string
	Async      bool
	Generator  bool
	Static     bool
	Abstract   bool
	Override   bool
	Class      bool
}

var (
	jsParamRe  = regexp.MustCompile(`^@param\s+(?:\{([^}]*)\}\s+)?(\[?[A-Za-z_$][A-Za-z0-9_$.]*\]?)\s*(?:-\s*)?(.*)$`)
	jsReturnRe = regexp.MustCompile(`^@returns?\s+(?:\{([^}]*)\}\s*)?(.*)$`)
	jsThrowsRe = regexp.MustCompile(`^@throws\s+(?:\{([^}]*)\}\s*)?(.*)$`)
	jsExtRe    = regexp.MustCompile(`^@(extends|implements)\s+\{?([A-Za-z_$][A-Za-z0-9_$.<>]*)\}?`)
)

// ParseJSDoc parses a JSDoc comment. Tag order is irrelevant; unknown tags
// are skipped.
func ParseJSDoc(comment string) JSDoc {
	body := StripDocBlock(comment)
	var doc JSDoc
	var descLines []string
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		switch {
		case t == "@async":
			doc.Async = true
		case t == "@generator":
			doc.Generator = true
		case t == "@static":
			doc.Static = true
		case t == "@abstract":
			doc.Abstract = true
		case t == "@override":
			doc.Override = true
		case t == "@class" || strings.HasPrefix(t, "@class "):
			doc.Class = true
		default:
			if m := jsParamRe.FindStringSubmatch(t); m != nil && strings.HasPrefix(t, "@param") {
				name := strings.Trim(m[2], "[]")
				doc.Params = append(doc.Params, model.DocParam{Name: name, Desc: strings.TrimSpace(m[3])})
				continue
			}
			if m := jsReturnRe.FindStringSubmatch(t); m != nil && strings.HasPrefix(t, "@return") {
				ret := strings.TrimSpace(m[2])
				if ret == "" {
					ret = m[1]
				}
				doc.Returns = ret
				continue
			}
			if m := jsThrowsRe.FindStringSubmatch(t); m != nil && strings.HasPrefix(t, "@throws") {
				name := m[1]
				if name == "" {
					name = strings.TrimSpace(m[2])
				}
				if name != "" {
					doc.Throws = append(doc.Throws, name)
				}
				continue
			}
			if m := jsExtRe.FindStringSubmatch(t); m != nil {
				if m[1] == "extends" {
					doc.Extends = append(doc.Extends, m[2])
				} else {
					doc.Implements = append(doc.Implements, m[2])
				}
				continue
			}
			if strings.HasPrefix(t, "@") {
				continue
			}
			descLines = append(descLines, t)
		}
	}
	doc.Text = strings.TrimSpace(strings.Join(descLines, "\n"))
	return doc
}
