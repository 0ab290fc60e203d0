package calculator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool"
)

// SumInput holds the two operands of [Sum].
type SumInput struct {
	A float64 `json:"a" jsonschema:"description=Primeiro número,required"`
	B float64 `json:"b" jsonschema:"description=Segundo número,required"`
}

// NewSumTool returns the "sum" tool.
func NewSumTool() *tool.Tool[SumInput, string] {
	return tool.NewTool[SumInput, string](
		"sum",
		Sum,
		tool.WithDescription("Soma dois números. O primeiro número é 'a' e o segundo é 'b'."),
	)
}

// Sum adds a and b and returns the result as text.
func Sum(ctx context.Context, input SumInput) (string, error) {
	return formatNumber(input.A + input.B), nil
}

// SumListInput carries two numbers separated by a comma, e.g. "15.5, 42".
type SumListInput struct {
	Values string `json:"values" jsonschema:"description=Dois números separados por vírgula,required"`
}

// NewSumListTool returns the "sum_list" tool.
func NewSumListTool() *tool.Tool[SumListInput, string] {
	return tool.NewTool[SumListInput, string](
		"sum_list",
		SumList,
		tool.WithDescription("Soma dois números separados por vírgula."),
	)
}

// SumList parses exactly two comma-separated numbers and adds them. Malformed
// input yields an "Erro ao somar" message instead of an error.
func SumList(ctx context.Context, input SumListInput) (string, error) {
	parts := strings.Split(input.Values, ",")
	if len(parts) != 2 {
		return fmt.Sprintf("Erro ao somar: esperados 2 valores, recebidos %d", len(parts)), nil
	}

	var total float64
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Sprintf("Erro ao somar: valor inválido %q", strings.TrimSpace(part)), nil
		}
		total += value
	}
	return formatNumber(total), nil
}

// Input holds the two operands and the operation to be applied by [Calc].
type Input struct {
	A  float64 `json:"a"  jsonschema:"description=First operand,required"`
	B  float64 `json:"b"  jsonschema:"description=Second operand,required"`
	Op string  `json:"op" jsonschema:"description=Operation type,enum=add,enum=sub,enum=mul,enum=div,required"`
}

// Output carries the result produced by [Calc]. Error is set instead of
// Result when the operation cannot be performed.
type Output struct {
	Result float64 `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// NewCalculatorTool returns the "calculator" tool for basic arithmetic.
func NewCalculatorTool() *tool.Tool[Input, Output] {
	return tool.NewTool[Input, Output](
		"calculator",
		Calc,
		tool.WithDescription("A simple calculator to perform basic arithmetic operations like addition, subtraction, multiplication, and division."),
	)
}

// Calc performs the arithmetic operation specified by req.Op on the operands
// req.A and req.B. Supported operations are "add"/"+", "sub"/"-",
// "mul"/"*", and "div"/"/".
//
// Example:
//
//	result, _ := Calc(ctx, calculator.Input{A: 10, B: 4, Op: "div"})
//	fmt.Println(result.Result) // 2.5
func Calc(ctx context.Context, req Input) (Output, error) {
	switch strings.ToLower(strings.TrimSpace(req.Op)) {
	case "add", "+":
		return Output{Result: req.A + req.B}, nil
	case "sub", "-":
		return Output{Result: req.A - req.B}, nil
	case "mul", "*":
		return Output{Result: req.A * req.B}, nil
	case "div", "/":
		if req.B == 0 {
			return Output{Error: "division by zero"}, nil
		}
		return Output{Result: req.A / req.B}, nil
	default:
		return Output{Error: fmt.Sprintf("unsupported operation %q", req.Op)}, nil
	}
}

// Tools returns every calculator tool.
func Tools() []tool.GenericTool {
	return []tool.GenericTool{NewSumTool(), NewSumListTool(), NewCalculatorTool()}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
