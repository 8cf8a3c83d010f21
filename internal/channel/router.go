package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Router is an in-process Messenger
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]Handler),
	}
}

// SetMethodCallHandler installs or removes the handler for name
func (r *Router) SetMethodCallHandler(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == nil {
		delete(r.handlers, name)
		log.Debug().Str("channel", name).Msg("handler removed")
		return
	}
	r.handlers[name] = h
	log.Debug().Str("channel", name).Msg("handler registered")
}

// Invoke dispatches call to the handler registered under name.
// A panicking handler is reported as an error.
func (r *Router) Invoke(ctx context.Context, name string, call MethodCall) (result any, err error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, name)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("channel", name).
				Str("method", call.Method).
				Interface("panic", p).
				Msg("method handler panicked")
			result = nil
			err = fmt.Errorf("handler for %s.%s panicked: %v", name, call.Method, p)
		}
	}()

	return h(ctx, call)
}
