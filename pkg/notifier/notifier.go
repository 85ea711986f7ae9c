package notifier

import (
	"context"
	"reflect"
	"sync"
)

// Function signature used for Around subscriptions
type AroundHandler = func(context.Context, func(ctx context.Context))

// Function signature used for On subscriptions
type OnHandler = func(context.Context)

type Notifier interface {
	Around(name any, handler AroundHandler)
	On(name any, handler OnHandler)
	RemoveOn(name any, handler OnHandler)
	RemoveAround(name any, handler AroundHandler)
	Emit(name any, ctx context.Context, f func(context.Context))
}

type nullNotifier struct{}

var _ Notifier = (*nullNotifier)(nil)

// NullNotifier drops every subscription and only runs the emitted function.
var NullNotifier = &nullNotifier{}

func (n *nullNotifier) Around(name any, handler AroundHandler)       {}
func (n *nullNotifier) On(name any, handler OnHandler)               {}
func (n *nullNotifier) RemoveOn(name any, handler OnHandler)         {}
func (n *nullNotifier) RemoveAround(name any, handler AroundHandler) {}
func (n *nullNotifier) Emit(name any, ctx context.Context, f func(context.Context)) {
	f(ctx)
}

// DefaultNotifier runs subscriptions synchronously in the goroutine calling
// Emit. Subscribing while events are being emitted is safe.
type DefaultNotifier struct {
	around map[any][]AroundHandler
	on     map[any][]OnHandler

	mu sync.RWMutex
}

var _ Notifier = (*DefaultNotifier)(nil)

func New() *DefaultNotifier {
	return &DefaultNotifier{
		around: make(map[any][]AroundHandler),
		on:     make(map[any][]OnHandler),
	}
}

// Emit calls every On subscription for name, then runs f wrapped by the
// Around subscriptions. The first Around subscription is the outermost one
// and each one decides which context is handed inward.
func (n *DefaultNotifier) Emit(name any, ctx context.Context, f func(ctx context.Context)) {
	n.mu.RLock()
	on := n.on[name]
	around := n.around[name]
	n.mu.RUnlock()

	for _, handler := range on {
		handler(ctx)
	}

	chain := f
	for i := len(around) - 1; i >= 0; i-- {
		handler, next := around[i], chain
		chain = func(ctx context.Context) {
			handler(ctx, next)
		}
	}

	chain(ctx)
}

// Around subscribes handler to name. The handler must call the provided
// callback exactly once for the event to run.
func (n *DefaultNotifier) Around(name any, handler AroundHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.around[name] = append(n.around[name][:len(n.around[name]):len(n.around[name])], handler)
}

// On subscribes handler to name. It sees the context but cannot replace it.
func (n *DefaultNotifier) On(name any, handler OnHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.on[name] = append(n.on[name][:len(n.on[name]):len(n.on[name])], handler)
}

func (n *DefaultNotifier) RemoveOn(name any, handler OnHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.on[name] = without(n.on[name], handler)
	if len(n.on[name]) == 0 {
		delete(n.on, name)
	}
}

func (n *DefaultNotifier) RemoveAround(name any, handler AroundHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.around[name] = without(n.around[name], handler)
	if len(n.around[name]) == 0 {
		delete(n.around, name)
	}
}

// without returns a new slice so that callers of Emit holding the old one are
// not affected.
func without[T any](handlers []T, handler T) []T {
	target := reflect.ValueOf(handler).Pointer()
	kept := make([]T, 0, len(handlers))

	for _, h := range handlers {
		if reflect.ValueOf(h).Pointer() != target {
			kept = append(kept, h)
		}
	}

	return kept
}
