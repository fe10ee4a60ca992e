package mathexpr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 - 4 - 3", 3},
		{"20 / 4 / 5", 1},
		{"10 % 3", 1},
		{"2 ^ 10", 1024},
		{"2 ^ 3 ^ 2", 512}, // right associative
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"--4", 4},
		{"1.5 * 2", 3},
		{"1e3 + 1", 1001},
		{"2.5e-1", 0.25},
		{"pi", math.Pi},
		{"E", math.E},
		{"abs(-3)", 3},
		{"sqrt(16)", 4},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"round(2.5)", 3},
		{"pow(2, 8)", 256},
		{"min(3, 1, 2)", 1},
		{"max(3, 1, 2)", 3},
		{"sqrt(abs(-16)) + max(1, 2)", 6},
		{"2 * pi", 2 * math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Evaluate(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "expression is empty"},
		{"blank", "   ", "expression is empty"},
		{"division by zero", "1 / 0", "division by zero"},
		{"modulo by zero", "1 % 0", "modulo by zero"},
		{"unknown identifier", "x + 1", "unknown identifier"},
		{"unknown function", "foo(1)", "unknown function"},
		{"sqrt negative", "sqrt(-1)", "sqrt of negative number"},
		{"bad arity", "pow(2)", "expects 2 argument(s)"},
		{"min arity", "min(1)", "at least 2 arguments"},
		{"unclosed paren", "(1 + 2", "expected ')'"},
		{"dangling operator", "1 +", "unexpected end of expression"},
		{"trailing garbage", "1 2", "unexpected token"},
		{"overflow", "10 ^ 1000", "not a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// Inputs shaped like code must be rejected by the grammar, never interpreted.
func TestEvaluate_RejectsCodeLikeInput(t *testing.T) {
	inputs := []string{
		"__import__('os')",
		"os.system('ls')",
		`exec("rm -rf /")`,
		"eval(1)",
		"a = 1",
		"2; 3",
		"lambda: 0",
		"open('/etc/passwd')",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Evaluate(input)
			assert.Error(t, err)
		})
	}
}
