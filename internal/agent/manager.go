package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Factory func() (*Adapter, error)

// Manager owns at most one live adapter, resolved from a registered factory
// by its type tag. The held instance is reused while requests keep asking
// for the same tag and swapped only through Adapter/Switch; there is no
// ambient global adapter state.
type Manager struct {
	mu        sync.Mutex
	factories map[string]Factory
	current   *Adapter
}

func NewManager() *Manager {
	return &Manager{factories: make(map[string]Factory)}
}

func (m *Manager) Register(name string, f Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = f
}

// Adapter returns the held instance when its tag matches, otherwise builds
// the requested type and swaps it in.
func (m *Manager) Adapter(name string) (*Adapter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.Name() == name {
		return m.current, nil
	}
	return m.swap(name)
}

// Switch discards the held instance and builds a fresh adapter of the
// requested type.
func (m *Manager) Switch(name string) (*Adapter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.swap(name)
}

func (m *Manager) swap(name string) (*Adapter, error) {
	f, ok := m.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown adapter type: %s", name)
	}
	a, err := f()
	if err != nil {
		return nil, err
	}
	m.current = a
	return a, nil
}

func (m *Manager) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.factories))
	for n := range m.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
