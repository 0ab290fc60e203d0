package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for every failure class. The typed errors below match them
// with errors.Is, so callers can branch on the class without a type switch.
var (
	// ErrDuplicateNode: a node name was registered twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrUnknownNode: a builder call referenced a node that is not registered.
	ErrUnknownNode = errors.New("unknown node")

	// ErrGraphValidation: Compile found structural violations.
	ErrGraphValidation = errors.New("graph validation failed")

	// ErrNodeExecution: a step function failed; fatal to the run.
	ErrNodeExecution = errors.New("node execution failed")

	// ErrUnmappedRoutingKey: a router returned a key with no target.
	ErrUnmappedRoutingKey = errors.New("unmapped routing key")

	// ErrLoopGuardExceeded: the activation budget was exhausted.
	ErrLoopGuardExceeded = errors.New("loop guard exceeded")

	// ErrRunCancelled: the caller's context ended between activations.
	ErrRunCancelled = errors.New("run cancelled")
)

// DuplicateNodeError is returned by [Builder.AddNode] when the name is taken.
type DuplicateNodeError struct {
	Node string
}

func (err *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %q", err.Node)
}

func (err *DuplicateNodeError) Is(target error) bool { return target == ErrDuplicateNode }

// UnknownNodeError is returned by builder calls that reference a node that
// has not been registered.
type UnknownNodeError struct {
	Node string
	// Op is the builder operation that failed (e.g. "add_edge").
	Op string
}

func (err *UnknownNodeError) Error() string {
	return fmt.Sprintf("%s: unknown node %q", err.Op, err.Node)
}

func (err *UnknownNodeError) Is(target error) bool { return target == ErrUnknownNode }

// ValidationError aggregates every structural violation found by
// [Builder.Compile]. Violations are sorted for stable output.
type ValidationError struct {
	Violations []string
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("graph validation failed with %d violation(s): %s",
		len(err.Violations), strings.Join(err.Violations, "; "))
}

func (err *ValidationError) Is(target error) bool { return target == ErrGraphValidation }

// NodeExecutionError reports a step function failure. History holds the
// nodes activated successfully before the failing one.
type NodeExecutionError struct {
	Node    string
	Cause   error
	History []string
}

func (err *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", err.Node, err.Cause)
}

func (err *NodeExecutionError) Unwrap() error { return err.Cause }

func (err *NodeExecutionError) Is(target error) bool { return target == ErrNodeExecution }

// UnmappedRoutingKeyError reports a router returning a key that its
// conditional edge does not map. History includes the routing node itself,
// whose activation completed before routing.
type UnmappedRoutingKeyError struct {
	Node    string
	Key     string
	History []string
}

func (err *UnmappedRoutingKeyError) Error() string {
	return fmt.Sprintf("router of node %q returned unmapped key %q", err.Node, err.Key)
}

func (err *UnmappedRoutingKeyError) Is(target error) bool { return target == ErrUnmappedRoutingKey }

// LoopGuardError reports that a run reached its activation budget without
// terminating, which usually signals an unintended cycle.
type LoopGuardError struct {
	Limit   int
	Next    string
	History []string
}

func (err *LoopGuardError) Error() string {
	return fmt.Sprintf("loop guard exceeded: %d activations reached before node %q", err.Limit, err.Next)
}

func (err *LoopGuardError) Is(target error) bool { return target == ErrLoopGuardExceeded }

// CancelledError reports that the run's context was done before the next
// activation could start.
type CancelledError struct {
	Cause   error
	History []string
}

func (err *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled after %d activation(s): %v", len(err.History), err.Cause)
}

func (err *CancelledError) Unwrap() error { return err.Cause }

func (err *CancelledError) Is(target error) bool { return target == ErrRunCancelled }

// HistoryOf extracts the activation history attached to a run-time error.
// It returns nil for errors that carry no history.
func HistoryOf(err error) []string {
	var nodeErr *NodeExecutionError
	if errors.As(err, &nodeErr) {
		return nodeErr.History
	}
	var routingErr *UnmappedRoutingKeyError
	if errors.As(err, &routingErr) {
		return routingErr.History
	}
	var guardErr *LoopGuardError
	if errors.As(err, &guardErr) {
		return guardErr.History
	}
	var cancelErr *CancelledError
	if errors.As(err, &cancelErr) {
		return cancelErr.History
	}
	return nil
}
