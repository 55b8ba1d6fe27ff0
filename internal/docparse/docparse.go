// Package docparse extracts structured information from documentation
// text: the three common Python docstring conventions, PHP doc-blocks, and
// JSDoc comments. The grammars are regular enough for a hand-written
// reader; tag parsing is order-insensitive, section headers are
// style-specific.
package docparse

import (
	"regexp"
	"strings"

	"github.com/jward/understory/internal/model"
)

// Google-style section headers ("Args:"), matched after trimming.
var keywordParamHeaders = map[string]bool{
	"Args:":       true,
	"Arguments:":  true,
	"Parameters:": true,
}

var keywordOtherHeaders = map[string]bool{
	"Returns:": true,
	"Return:":  true,
	"Yields:":  true,
	"Raises:":  true,
	"Note:":    true,
	"Notes:":   true,
	"Example:":  true,
	"Examples:": true,
	"Attributes:": true,
}

var (
	sphinxParamRe   = regexp.MustCompile(`^:param\s+(?:[^\s:]+\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)
	sphinxReturnRe  = regexp.MustCompile(`^:returns?\s*:\s*(.*)$`)
	sphinxRaisesRe  = regexp.MustCompile(`^:raises?\s+([^\s:]+)\s*:`)
	numpyEntryRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*(.*))?$`)
	keywordEntryRe  = regexp.MustCompile(`^([A-Za-z_*][A-Za-z0-9_*]*)\s*(?:\(([^)]*)\))?\s*:\s*(.*)$`)
	dashesRe        = regexp.MustCompile(`^-{3,}\s*$`)
)

// ParseDocstring parses a Python docstring. The raw text is always
// preserved; parameter, return and raise information is extracted when one
// of the three conventions is recognised: keyword-led (Args:), colon-led
// (:param x:), or field-led (Parameters / ----------).
func ParseDocstring(text string) model.Doc {
	doc := model.Doc{Text: strings.TrimSpace(text)}
	if doc.Text == "" {
		return doc
	}
	lines := strings.Split(doc.Text, "\n")

	switch {
	case hasSphinxFields(lines):
		parseSphinx(lines, &doc)
	case hasNumpySection(lines):
		parseNumpy(lines, &doc)
	default:
		parseKeyword(lines, &doc)
	}
	return doc
}

func hasSphinxFields(lines []string) bool {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if sphinxParamRe.MatchString(t) || sphinxReturnRe.MatchString(t) {
			return true
		}
	}
	return false
}

func hasNumpySection(lines []string) bool {
	for i := 0; i+1 < len(lines); i++ {
		head := strings.TrimSpace(lines[i])
		if (head == "Parameters" || head == "Returns" || head == "Raises") &&
			dashesRe.MatchString(strings.TrimSpace(lines[i+1])) {
			return true
		}
	}
	return false
}

// parseKeyword reads Google-style sections: a header line, then indented
// "name: description" entries until a blank line or the next header.
func parseKeyword(lines []string, doc *model.Doc) {
	i := 0
	for i < len(lines) {
		head := strings.TrimSpace(lines[i])
		switch {
		case keywordParamHeaders[head]:
			i++
			for i < len(lines) {
				entry := strings.TrimSpace(lines[i])
				if entry == "" || keywordParamHeaders[entry] || keywordOtherHeaders[entry] {
					break
				}
				if m := keywordEntryRe.FindStringSubmatch(entry); m != nil {
					doc.Params = append(doc.Params, model.DocParam{
						Name: strings.TrimLeft(m[1], "*"),
						Desc: strings.TrimSpace(m[3]),
					})
				} else if len(doc.Params) > 0 {
					// Continuation line of the previous description.
					last := &doc.Params[len(doc.Params)-1]
					last.Desc = strings.TrimSpace(last.Desc + " " + entry)
				}
				i++
			}
		case head == "Returns:" || head == "Return:":
			i++
			var ret []string
			for i < len(lines) {
				entry := strings.TrimSpace(lines[i])
				if entry == "" || keywordParamHeaders[entry] || keywordOtherHeaders[entry] {
					break
				}
				ret = append(ret, entry)
				i++
			}
			doc.Returns = strings.Join(ret, " ")
		case head == "Raises:":
			i++
			for i < len(lines) {
				entry := strings.TrimSpace(lines[i])
				if entry == "" || keywordParamHeaders[entry] || keywordOtherHeaders[entry] {
					break
				}
				if m := keywordEntryRe.FindStringSubmatch(entry); m != nil {
					doc.Throws = append(doc.Throws, m[1])
				}
				i++
			}
		default:
			i++
		}
	}
}

// parseSphinx reads colon-led fields, order-insensitive.
func parseSphinx(lines []string, doc *model.Doc) {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if m := sphinxParamRe.FindStringSubmatch(t); m != nil {
			doc.Params = append(doc.Params, model.DocParam{Name: m[1], Desc: strings.TrimSpace(m[2])})
			continue
		}
		if m := sphinxReturnRe.FindStringSubmatch(t); m != nil {
			doc.Returns = strings.TrimSpace(m[1])
			continue
		}
		if m := sphinxRaisesRe.FindStringSubmatch(t); m != nil {
			doc.Throws = append(doc.Throws, m[1])
		}
	}
}

// parseNumpy reads field-led sections: a header, an underline of dashes,
// then "name : type" entries whose descriptions are the following indented
// lines, until a blank line or the next underlined header.
func parseNumpy(lines []string, doc *model.Doc) {
	i := 0
	for i < len(lines) {
		head := strings.TrimSpace(lines[i])
		underlined := i+1 < len(lines) && dashesRe.MatchString(strings.TrimSpace(lines[i+1]))
		if !underlined {
			i++
			continue
		}
		switch head {
		case "Parameters":
			i += 2
			for i < len(lines) {
				entry := strings.TrimSpace(lines[i])
				if entry == "" || isNumpyHeader(lines, i) {
					break
				}
				if m := numpyEntryRe.FindStringSubmatch(entry); m != nil && !strings.HasPrefix(lines[i], "    ") {
					p := model.DocParam{Name: m[1]}
					// Description is the indented block that follows.
					j := i + 1
					var desc []string
					for j < len(lines) {
						dl := lines[j]
						if strings.TrimSpace(dl) == "" || !strings.HasPrefix(dl, " ") || isNumpyHeader(lines, j) {
							break
						}
						desc = append(desc, strings.TrimSpace(dl))
						j++
					}
					p.Desc = strings.Join(desc, " ")
					doc.Params = append(doc.Params, p)
					i = j
					continue
				}
				i++
			}
		case "Returns":
			i += 2
			var ret []string
			for i < len(lines) {
				entry := strings.TrimSpace(lines[i])
				if entry == "" || isNumpyHeader(lines, i) {
					break
				}
				ret = append(ret, entry)
				i++
			}
			doc.Returns = strings.Join(ret, " ")
		case "Raises":
			i += 2
			for i < len(lines) {
				entry := strings.TrimSpace(lines[i])
				if entry == "" || isNumpyHeader(lines, i) {
					break
				}
				if !strings.HasPrefix(lines[i], " ") {
					doc.Throws = append(doc.Throws, entry)
				}
				i++
			}
		default:
			i += 2
		}
	}
}

func isNumpyHeader(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	head := strings.TrimSpace(lines[i])
	return head != "" && !strings.HasPrefix(lines[i], " ") &&
		dashesRe.MatchString(strings.TrimSpace(lines[i+1]))
}
