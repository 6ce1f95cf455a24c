package session

import "sync"

const flashKey = "_flash"

// Memory is an in-process Storage holding a single session.
type Memory struct {
	mu     sync.Mutex
	values map[any]any
	saves  int
}

func NewMemory() *Memory {
	return &Memory{values: map[any]any{}}
}

func (m *Memory) Get(key any) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *Memory) Set(key, val any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = val
}

func (m *Memory) Delete(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[any]any{}
}

func (m *Memory) AddFlash(value any, vars ...string) {
	key := flashKeyFor(vars)
	m.mu.Lock()
	defer m.mu.Unlock()
	flashes, _ := m.values[key].([]any)
	m.values[key] = append(flashes, value)
}

func (m *Memory) Flashes(vars ...string) []any {
	key := flashKeyFor(vars)
	m.mu.Lock()
	defer m.mu.Unlock()
	flashes, _ := m.values[key].([]any)
	delete(m.values, key)
	return flashes
}

func (m *Memory) Save() error {
	m.mu.Lock()
	m.saves++
	m.mu.Unlock()
	return nil
}

// Saves counts calls to Save.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func flashKeyFor(vars []string) string {
	if len(vars) > 0 {
		return vars[0]
	}
	return flashKey
}
