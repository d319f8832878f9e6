package history

import (
	"sync"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/routepath"
)

// Memory is an in-process session history.
//
// Entries hold browser-visible locations (base applied). Push discards any
// forward entries, as a browser does. Traversal past either end is ignored.
type Memory struct {
	mu      sync.Mutex
	base    string
	entries []string
	index   int

	changes listeners
}

// NewMemory creates a history with a single entry at location.
// location is browser-visible (it includes the base); "" means the base root.
func NewMemory(base, location string) (*Memory, error) {
	nb, err := routepath.NormalizeBase(base)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidBase).WithDetailf("%q", base).Wrap(err)
	}
	if location == "" {
		location = routepath.JoinBase(nb, "/")
	}
	return &Memory{
		base:    nb,
		entries: []string{location},
	}, nil
}

// Base implements Adapter.
func (m *Memory) Base() string {
	return m.base
}

// CurrentPath implements Adapter.
func (m *Memory) CurrentPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return routepath.StripBase(m.base, m.entries[m.index])
}

// Location returns the browser-visible location of the current entry.
func (m *Memory) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Push implements Adapter.
func (m *Memory) Push(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], routepath.JoinBase(m.base, path))
	m.index++
	return nil
}

// Replace implements Adapter.
func (m *Memory) Replace(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = routepath.JoinBase(m.base, path)
	return nil
}

// OnChange implements Adapter.
func (m *Memory) OnChange(fn func(path string)) func() {
	return m.changes.add(fn)
}

// Go implements Traverser. Listeners fire only when the cursor moves.
func (m *Memory) Go(delta int) error {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return nil
	}
	m.index = target
	path := routepath.StripBase(m.base, m.entries[target])
	m.mu.Unlock()

	m.changes.notify(path)
	return nil
}

// Back moves one entry back.
func (m *Memory) Back() error { return m.Go(-1) }

// Forward moves one entry forward.
func (m *Memory) Forward() error { return m.Go(1) }

// Len returns the number of entries in the stack.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Index returns the cursor position.
func (m *Memory) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

var (
	_ Adapter   = (*Memory)(nil)
	_ Traverser = (*Memory)(nil)
	_ Locator   = (*Memory)(nil)
)
