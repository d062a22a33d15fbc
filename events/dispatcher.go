package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Handler processes one dispatched event. Handlers run on their own
// goroutines and are expected to perform I/O; honor the context.
type Handler func(ctx context.Context, event Event) error

// handlerGroup is all handlers registered at one priority value, kept in
// registration order.
type handlerGroup struct {
	priority int
	handlers []Handler
}

// Dispatcher routes domain events to registered handlers.
//
// Handlers registered at the same priority run concurrently; groups run
// strictly in ascending priority order, each group joined before the
// next starts. Registration normally happens once at startup but the
// registry tolerates concurrent registration and dispatch.
type Dispatcher struct {
	mu             sync.RWMutex
	handlers       map[string][]*handlerGroup
	handlerTimeout time.Duration
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]*handlerGroup)}
}

// SetHandlerTimeout bounds every handler invocation. On expiry the
// handler counts as failed for its group's error aggregation without
// delaying its siblings. Zero disables the bound.
func (d *Dispatcher) SetHandlerTimeout(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlerTimeout = timeout
}

// Register adds a handler for an event type at the given priority.
// Groups are kept sorted at registration time so Invoke never sorts.
func (d *Dispatcher) Register(eventType string, priority int, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	groups := d.handlers[eventType]
	for _, g := range groups {
		if g.priority == priority {
			g.handlers = append(g.handlers, handler)
			return
		}
	}

	groups = append(groups, &handlerGroup{priority: priority, handlers: []Handler{handler}})
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].priority < groups[j].priority })
	d.handlers[eventType] = groups
}

// Invoke runs all handlers registered for the event's type. An event
// with no handlers is a no-op.
//
// Within a group every handler is awaited even when a sibling fails; a
// group with failures aborts the remaining lower-priority groups and
// Invoke returns a *DispatchError aggregating that group's failures.
func (d *Dispatcher) Invoke(ctx context.Context, event Event) error {
	d.mu.RLock()
	groups := d.handlers[event.EventType()]
	timeout := d.handlerTimeout
	// Snapshot each group's handler slice so late registrations cannot
	// race the dispatch loop.
	snapshot := make([]handlerGroup, len(groups))
	for i, g := range groups {
		snapshot[i] = handlerGroup{priority: g.priority, handlers: g.handlers}
	}
	d.mu.RUnlock()

	for _, group := range snapshot {
		results := make([]error, len(group.handlers))
		var wg sync.WaitGroup
		for i, handler := range group.handlers {
			wg.Add(1)
			go func(i int, h Handler) {
				defer wg.Done()
				results[i] = runHandler(ctx, h, event, timeout)
			}(i, handler)
		}
		wg.Wait()

		var failures []HandlerError
		for i, err := range results {
			if err != nil {
				failures = append(failures, HandlerError{Index: i, Err: err})
			}
		}
		if len(failures) > 0 {
			return &DispatchError{
				EventType: event.EventType(),
				Priority:  group.priority,
				Handlers:  len(group.handlers),
				Errors:    failures,
			}
		}
	}

	return nil
}

// runHandler executes one handler, converting panics to errors and
// enforcing the optional per-handler timeout.
func runHandler(ctx context.Context, h Handler, event Event, timeout time.Duration) (err error) {
	if timeout <= 0 {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		return h(ctx, event)
	}

	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panicked: %v", r)
			}
		}()
		done <- h(hctx, event)
	}()

	select {
	case err := <-done:
		return err
	case <-hctx.Done():
		// The handler goroutine keeps running until it observes the
		// canceled context; the tier moves on without it.
		return hctx.Err()
	}
}

// HandlerError is one handler failure inside a priority group, Index
// being the handler's registration position within the group.
type HandlerError struct {
	Index int
	Err   error
}

// DispatchError aggregates the failures of one priority group.
type DispatchError struct {
	EventType string
	Priority  int
	Handlers  int
	Errors    []HandlerError
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s priority %d: %d of %d handlers failed: %v",
		e.EventType, e.Priority, len(e.Errors), e.Handlers, e.Errors[0].Err)
}

// Unwrap exposes the underlying handler errors for errors.Is/As.
func (e *DispatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, he := range e.Errors {
		errs[i] = he.Err
	}
	return errs
}
