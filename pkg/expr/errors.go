package expr

import "fmt"

// EvalError is a tree-walking evaluation failure, carrying the offending
// node's source position. Evaluation never swallows a failure: failures
// the evaluator detects itself are returned as an EvalError, and errors
// from the Resolver are returned unchanged.
type EvalError struct {
	Position Position
	Message  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

func evalErrf(pos Position, format string, args ...any) error {
	return &EvalError{Position: pos, Message: fmt.Sprintf(format, args...)}
}
