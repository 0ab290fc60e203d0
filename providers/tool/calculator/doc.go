// Package calculator provides locally-executed arithmetic tools: [NewSumTool]
// adds two numbers, [NewSumListTool] adds a comma-separated pair given as
// text and [NewCalculatorTool] applies one of the four basic operations.
//
// Failures a model can recover from (malformed input, division by zero,
// unknown operation) are returned as textual results rather than errors, so
// they reach the model as ordinary tool output.
package calculator
