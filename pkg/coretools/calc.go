package coretools

import (
	"context"
	"strings"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/mathexpr"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

func calculateTool() toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression. Supports + - * / % ^, parentheses and a fixed set of math functions (abs, sqrt, min, max, pow, floor, ceil, round).",
		Category:    toolexec.CategoryCompute,
		Parameters: []toolexec.ToolParameter{
			{Name: "expression", Type: "string", Description: "Arithmetic expression to evaluate", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			expression, _ := params["expression"].(string)
			if strings.TrimSpace(expression) == "" {
				return nil, toolexec.Argumentf("expression is required")
			}

			// The expression grammar is fixed; anything outside it is
			// rejected here, never evaluated as code.
			value, err := mathexpr.Evaluate(expression)
			if err != nil {
				if isGrammarError(err.Error()) {
					return nil, toolexec.Argumentf("unsafe or invalid expression: %v", err)
				}
				return nil, err
			}

			return map[string]interface{}{
				"expression": expression,
				"value":      value,
			}, nil
		},
	}
}

// isGrammarError distinguishes inputs outside the fixed grammar (rejected as
// invalid arguments) from evaluation faults like division by zero (surfaced
// as execution errors).
func isGrammarError(message string) bool {
	for _, marker := range []string{
		"unexpected character",
		"unexpected token",
		"unknown identifier",
		"unknown function",
		"expression is empty",
		"invalid number",
		"expected",
		"unexpected end",
	} {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}
