package docparse

import (
	"regexp"
	"strings"

	"github.com/jward/understory/internal/model"
)

var (
	phpParamRe  = regexp.MustCompile(`^@param\s+(?:(\S+)\s+)?\$([A-Za-z_][A-Za-z0-9_]*)\s*(.*)$`)
	phpReturnRe = regexp.MustCompile(`^@returns?\s+(.*)$`)
	phpThrowsRe = regexp.MustCompile(`^@throws\s+(\S+)`)
)

// StripDocBlock removes the comment delimiters and leading asterisks from a
// /** ... */ block, returning the bare text lines.
func StripDocBlock(comment string) string {
	s := strings.TrimSpace(comment)
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		if len(line) > 0 && line[0] == ' ' {
			line = line[1:]
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// ParsePHPDoc parses a doc-block comment immediately preceding a PHP
// declaration. @param/@return/@throws tags feed the structured fields; the
// untagged prefix becomes the description text.
func ParsePHPDoc(comment string) model.Doc {
	body := StripDocBlock(comment)
	var doc model.Doc
	var descLines []string
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if m := phpParamRe.FindStringSubmatch(t); m != nil {
			doc.Params = append(doc.Params, model.DocParam{Name: m[2], Desc: strings.TrimSpace(m[3])})
			continue
		}
		if m := phpReturnRe.FindStringSubmatch(t); m != nil {
			doc.Returns = strings.TrimSpace(m[1])
			continue
		}
		if m := phpThrowsRe.FindStringSubmatch(t); m != nil {
			doc.Throws = append(doc.Throws, m[1])
			continue
		}
		if strings.HasPrefix(t, "@") {
			continue
		}
		descLines = append(descLines, t)
	}
	doc.Text = strings.TrimSpace(strings.Join(descLines, "\n"))
	return doc
}
