// Package calculator provides the catalog's arithmetic tools. Unlike the
// conversion tools it runs entirely locally; it exists because the original
// application shipped a small calculator section alongside the converters.
package calculator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/dptools869/dp-tools-server/internal/registry"
	"github.com/dptools869/dp-tools-server/internal/tools"
	"github.com/sirupsen/logrus"
)

// Calculator implements the tools.Tool interface for basic arithmetic
type Calculator struct{}

// init registers the tool with the registry
func init() {
	registry.Register(&Calculator{})
}

// Definition returns the tool's definition for catalog registration
func (c *Calculator) Definition() tools.Definition {
	return tools.Definition{
		Name:        "calculator",
		Description: "Evaluate arithmetic expressions. Supports +, -, *, /, %, parentheses and decimal numbers.",
		Category:    tools.CategoryCalculator,
		Parameters: []tools.Parameter{
			{Name: "expression", Description: "Single expression to evaluate, e.g. '2 + 3 * 4'."},
			{Name: "expressions", Description: "Array of expressions to evaluate in one call."},
		},
	}
}

// Execute evaluates one expression or a batch of them
func (c *Calculator) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]interface{}) (*tools.Result, error) {
	logger.Info("Executing calculator")

	if raw, ok := args["expression"]; ok {
		expression, ok := raw.(string)
		if !ok {
			return nil, tools.NewArgumentError("expression must be a string")
		}

		value, err := Evaluate(expression)
		if err != nil {
			return nil, err
		}

		return tools.NewResult(map[string]interface{}{
			"expression": expression,
			"result":     value,
		}), nil
	}

	if raw, ok := args["expressions"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, tools.NewArgumentError("expressions must be an array")
		}
		if len(list) == 0 {
			return nil, tools.NewArgumentError("expressions array cannot be empty")
		}

		results := make([]map[string]interface{}, 0, len(list))
		for i, item := range list {
			expression, ok := item.(string)
			if !ok {
				return nil, tools.NewArgumentError("expression at index %d must be a string", i)
			}
			value, err := Evaluate(expression)
			if err != nil {
				return nil, fmt.Errorf("error in expression %d: %w", i, err)
			}
			results = append(results, map[string]interface{}{
				"expression": expression,
				"result":     value,
			})
		}

		return tools.NewResult(map[string]interface{}{"results": results}), nil
	}

	return nil, tools.NewArgumentError("either 'expression' or 'expressions' parameter is required")
}

// Evaluate parses and evaluates one arithmetic expression. Whole-number
// results come back as int64 so JSON output reads naturally.
func Evaluate(expression string) (interface{}, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("expression cannot be empty")
	}

	ev := &evaluator{input: expression}
	value, err := ev.additive()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression '%s': %w", expression, err)
	}

	ev.skipSpaces()
	if ev.pos < len(ev.input) {
		return nil, fmt.Errorf("unexpected characters after expression: %s", ev.input[ev.pos:])
	}

	if value == float64(int64(value)) {
		return int64(value), nil
	}
	return value, nil
}

// evaluator is a small recursive-descent evaluator over the input string.
type evaluator struct {
	input string
	pos   int
}

func (e *evaluator) skipSpaces() {
	for e.pos < len(e.input) && unicode.IsSpace(rune(e.input[e.pos])) {
		e.pos++
	}
}

func (e *evaluator) peek() byte {
	if e.pos >= len(e.input) {
		return 0
	}
	return e.input[e.pos]
}

// additive handles + and -
func (e *evaluator) additive() (float64, error) {
	left, err := e.multiplicative()
	if err != nil {
		return 0, err
	}
	for {
		e.skipSpaces()
		op := e.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		e.pos++
		right, err := e.multiplicative()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// multiplicative handles *, / and %
func (e *evaluator) multiplicative() (float64, error) {
	left, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		e.skipSpaces()
		op := e.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		e.pos++
		right, err := e.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = float64(int64(left) % int64(right))
		}
	}
}

// unary handles leading + and - and delegates to primary
func (e *evaluator) unary() (float64, error) {
	e.skipSpaces()
	switch e.peek() {
	case '-':
		e.pos++
		value, err := e.unary()
		return -value, err
	case '+':
		e.pos++
		return e.unary()
	}
	return e.primary()
}

// primary handles numbers and parenthesised sub-expressions
func (e *evaluator) primary() (float64, error) {
	e.skipSpaces()

	if e.peek() == '(' {
		e.pos++
		value, err := e.additive()
		if err != nil {
			return 0, err
		}
		e.skipSpaces()
		if e.peek() != ')' {
			return 0, fmt.Errorf("expected closing parenthesis")
		}
		e.pos++
		return value, nil
	}

	start := e.pos
	for e.pos < len(e.input) && (unicode.IsDigit(rune(e.input[e.pos])) || e.input[e.pos] == '.') {
		e.pos++
	}
	if start == e.pos {
		if e.pos >= len(e.input) {
			return 0, fmt.Errorf("unexpected end of expression")
		}
		return 0, fmt.Errorf("unexpected character '%c'", e.input[e.pos])
	}

	value, err := strconv.ParseFloat(e.input[start:e.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", e.input[start:e.pos])
	}
	return value, nil
}
