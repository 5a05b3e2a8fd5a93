// Package event provides the subscription registry shared by the transport,
// the emulators and the session controller. Every registration returns an
// unsubscribe func, and callers collect those funcs so teardown can release
// them all.
package event

import "sync"

// Listeners is a concurrency-safe, ordered set of callbacks.
type Listeners[T any] struct {
	mu     sync.Mutex
	nextID uint64
	items  []entry[T]
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Add registers fn and returns a func that removes it. The returned func is
// idempotent.
func (l *Listeners[T]) Add(fn func(T)) (unsubscribe func()) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.items = append(l.items, entry[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *Listeners[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.items {
		if e.id == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return
		}
	}
}

// Emit calls every registered callback with v in registration order. The
// registry lock is not held while callbacks run, so a callback may
// unsubscribe itself.
func (l *Listeners[T]) Emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), len(l.items))
	for i, e := range l.items {
		fns[i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of registered callbacks.
func (l *Listeners[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Clear removes every callback.
func (l *Listeners[T]) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// Group collects unsubscribe funcs for release in one call.
type Group struct {
	mu    sync.Mutex
	funcs []func()
}

// Add records an unsubscribe func.
func (g *Group) Add(unsubscribe func()) {
	if unsubscribe == nil {
		return
	}
	g.mu.Lock()
	g.funcs = append(g.funcs, unsubscribe)
	g.mu.Unlock()
}

// Release calls every recorded func once, most recent first, and forgets them.
func (g *Group) Release() {
	g.mu.Lock()
	funcs := g.funcs
	g.funcs = nil
	g.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		funcs[i]()
	}
}

// Len reports how many funcs are pending release.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.funcs)
}
