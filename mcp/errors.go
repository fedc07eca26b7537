package mcp

import (
	"fmt"
	"time"
)

// ConnectionError reports a failed spawn or handshake. It is fatal to the
// session; callers surface it without retrying.
type ConnectionError struct {
	Server string // Logical server key from the launch configuration
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mcp: connecting to server %q: %v", e.Server, e.Err)
}

// Unwrap exposes the underlying transport or handshake error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// NotConnectedError reports an operation attempted on a session that is not
// in the ready state. This is a programmer error, not a transient condition.
type NotConnectedError struct {
	Op    string // Operation that was attempted
	State State  // Session state at the time of the call
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("mcp: %s requires a ready session (state: %s)", e.Op, e.State)
}

// ToolError reports a failure signaled by the tool itself, either as an
// error-flagged result or a protocol-level call failure.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp: tool %q failed: %s", e.Tool, e.Message)
}

// TimeoutError reports that a tool call produced no response within its
// deadline.
type TimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("mcp: tool %q timed out after %s", e.Tool, e.Timeout)
}
