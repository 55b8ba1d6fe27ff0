package relate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTypeExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		language string
		want     TypeExpr
	}{
		{"Engine", "python", TypeExpr{Name: "Engine"}},
		{"pkg.Engine", "python", TypeExpr{Name: "pkg.Engine"}},
		{"List[Engine]", "python", TypeExpr{Name: "Engine", Many: true}},
		{"list[Engine]", "python", TypeExpr{Name: "Engine", Many: true}},
		{"Dict[str, Engine]", "python", TypeExpr{Name: "Engine", Many: true}},
		{"Optional[Engine]", "python", TypeExpr{Name: "Engine", Optional: true}},
		{"Optional[List[Engine]]", "python", TypeExpr{Name: "Engine", Many: true, Optional: true}},
		{"Engine | None", "python", TypeExpr{Name: "Engine", Optional: true}},
		{"Engine[]", "typescript", TypeExpr{Name: "Engine", Many: true}},
		{"Array<Engine>", "typescript", TypeExpr{Name: "Engine", Many: true}},
		{"Map<string, Engine>", "typescript", TypeExpr{Name: "Engine", Many: true}},
		{"Engine | null", "typescript", TypeExpr{Name: "Engine", Optional: true}},
		{"?Engine", "php", TypeExpr{Name: "Engine", Optional: true}},
		{`App\Engine`, "php", TypeExpr{Name: `App\Engine`}},
		{"Engine|null", "php", TypeExpr{Name: "Engine", Optional: true}},
		{"int | str", "python", TypeExpr{}}, // ambiguous union: no name
		{"", "python", TypeExpr{}},
		{"(a, b)", "python", TypeExpr{}}, // not name-like
		{"Promise<User>", "typescript", TypeExpr{Name: "Promise"}},
	}

	for _, tt := range tests {
		got := ParseTypeExpr(tt.in, tt.language)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
