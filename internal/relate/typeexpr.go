package relate

import "strings"

// TypeExpr is the interpreted form of a declared type expression: the
// element type name, whether the declaration is a container of that type,
// and whether it is optional/nullable.
type TypeExpr struct {
	Name     string
	Many     bool
	Optional bool
}

// containerNames are generic heads that mean "many of the element type".
// For map-shaped containers the value type is the element.
var containerNames = map[string]bool{
	"list": true, "List": true,
	"set": true, "Set": true, "frozenset": true, "FrozenSet": true,
	"tuple": true, "Tuple": true,
	"dict": true, "Dict": true,
	"Sequence": true, "Iterable": true, "Iterator": true, "Collection": true,
	"Mapping": true, "MutableMapping": true,
	"Array": true, "ReadonlyArray": true, "Map": true,
	"array": true,
}

// mapNames are containers whose LAST type argument is the element.
var mapNames = map[string]bool{
	"dict": true, "Dict": true, "Mapping": true, "MutableMapping": true, "Map": true,
}

// ParseTypeExpr interprets a declared type expression conservatively. Only
// the regular container/optional shapes of the three language families are
// recognised; anything else yields the bare trimmed name, or an empty name
// when the expression is not name-like at all.
func ParseTypeExpr(text, language string) TypeExpr {
	var expr TypeExpr
	s := strings.TrimSpace(text)
	if s == "" {
		return expr
	}

	// PHP nullable prefix.
	if strings.HasPrefix(s, "?") {
		expr.Optional = true
		s = strings.TrimSpace(s[1:])
	}

	// Union types: strip null-ish members; a single remaining member is
	// interpreted, more than one is too ambiguous to use.
	if strings.ContainsRune(s, '|') {
		var kept []string
		for _, part := range strings.Split(s, "|") {
			part = strings.TrimSpace(part)
			switch part {
			case "None", "null", "undefined", "":
				expr.Optional = true
			default:
				kept = append(kept, part)
			}
		}
		if len(kept) != 1 {
			return TypeExpr{Optional: expr.Optional}
		}
		s = kept[0]
	}

	// Array suffix: T[].
	if strings.HasSuffix(s, "[]") {
		inner := ParseTypeExpr(strings.TrimSuffix(s, "[]"), language)
		inner.Many = true
		inner.Optional = inner.Optional || expr.Optional
		return inner
	}

	// Generic application: Head[Args] or Head<Args>.
	head, args, ok := splitGeneric(s)
	if ok {
		switch {
		case head == "Optional":
			inner := ParseTypeExpr(args, language)
			inner.Optional = true
			return inner
		case containerNames[head]:
			element := args
			if mapNames[head] {
				element = lastTypeArg(args)
			} else {
				element = firstTypeArg(args)
			}
			inner := ParseTypeExpr(element, language)
			inner.Many = true
			inner.Optional = inner.Optional || expr.Optional
			return inner
		default:
			// Unknown generic: use the head as the referenced name.
			expr.Name = cleanName(head)
			return expr
		}
	}

	expr.Name = cleanName(s)
	return expr
}

// splitGeneric splits Head[Args] / Head<Args> at the top level.
func splitGeneric(s string) (head, args string, ok bool) {
	for _, pair := range [][2]byte{{'[', ']'}, {'<', '>'}} {
		open := strings.IndexByte(s, pair[0])
		if open > 0 && s[len(s)-1] == pair[1] {
			return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1]), true
		}
	}
	return "", "", false
}

// firstTypeArg returns the first top-level comma-separated argument.
func firstTypeArg(args string) string {
	return splitTypeArgs(args, true)
}

// lastTypeArg returns the last top-level comma-separated argument.
func lastTypeArg(args string) string {
	return splitTypeArgs(args, false)
}

func splitTypeArgs(args string, first bool) string {
	depth := 0
	last := 0
	var parts []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '[', '<', '(':
			depth++
		case ']', '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(args[last:i]))
				last = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(args[last:]))
	if first {
		return parts[0]
	}
	return parts[len(parts)-1]
}

// cleanName validates a dotted or backslashed name chain; anything with
// other punctuation is not a usable type name.
func cleanName(s string) string {
	s = strings.TrimPrefix(s, "\\")
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '.', c == '\\':
		default:
			return ""
		}
	}
	return s
}
