// Package channel implements named method-call channels: a component
// publishes one handler under a channel name on a Messenger it is given,
// and callers invoke methods on that name.
package channel

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by a handler for a method it does not serve
	ErrNotImplemented = errors.New("method not implemented")

	// ErrNoHandler means nothing is registered under the channel name
	ErrNoHandler = errors.New("no handler registered for channel")
)

// MethodCall is one invocation on a channel
type MethodCall struct {
	Method    string
	Arguments any
}

// Handler answers method calls for a single channel
type Handler func(ctx context.Context, call MethodCall) (any, error)

// Messenger routes channel names to handlers
type Messenger interface {
	// SetMethodCallHandler installs h for name; a nil h removes it
	SetMethodCallHandler(name string, h Handler)
}

// Error is a failure result with a machine-readable code
type Error struct {
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
