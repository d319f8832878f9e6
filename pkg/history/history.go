package history

import (
	"sync"
)

// Adapter synchronizes the router with a session history stack.
// Paths passed in and out are relative to Base.
type Adapter interface {
	// Base returns the normalized base path ("" for the domain root).
	Base() string

	// CurrentPath returns the active path with the base stripped.
	CurrentPath() string

	// Push adds a new history entry for path. Push and Replace must not
	// invoke change listeners.
	Push(path string) error

	// Replace overwrites the current history entry with path.
	Replace(path string) error

	// OnChange registers fn to be called after back/forward navigation
	// with the new stripped path. The returned function removes it.
	OnChange(fn func(path string)) (cancel func())
}

// Traverser is implemented by adapters that can move through history
// programmatically.
type Traverser interface {
	// Go moves delta entries through history; negative is back.
	Go(delta int) error
}

// Locator is implemented by adapters that know the browser-visible
// location, base included. The router uses it to tell a location outside
// the base from one inside it.
type Locator interface {
	Location() string
}

// listeners is a set of change callbacks shared by the adapters.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(string)
	// order keeps registration order for deterministic notification.
	order []int
}

func (l *listeners) add(fn func(string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(string))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	l.order = append(l.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
			for i, v := range l.order {
				if v == id {
					l.order = append(l.order[:i], l.order[i+1:]...)
					break
				}
			}
		})
	}
}

// notify calls every listener outside the lock so callbacks may
// register or cancel listeners.
func (l *listeners) notify(path string) {
	l.mu.Lock()
	fns := make([]func(string), 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(path)
	}
}

func (l *listeners) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
