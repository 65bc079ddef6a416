package breaker

import "sync"

// Manager registers named breakers in a lock-free-reads registry, the
// same sync.Map-backed pattern used elsewhere for concurrent-read,
// occasional-write collections.
type Manager struct {
	breakers sync.Map // map[string]*CircuitBreaker
}

// NewManager returns an empty breaker registry.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds (or replaces) a named breaker.
func (m *Manager) Register(cb *CircuitBreaker) {
	m.breakers.Store(cb.cfg.Name, cb)
}

// GetOrCreate returns the named breaker, constructing it from cfg on
// first use.
func (m *Manager) GetOrCreate(cfg Config) *CircuitBreaker {
	if existing, ok := m.breakers.Load(cfg.Name); ok {
		return existing.(*CircuitBreaker)
	}
	cb := New(cfg)
	actual, _ := m.breakers.LoadOrStore(cfg.Name, cb)
	return actual.(*CircuitBreaker)
}

// Get returns the named breaker, if registered.
func (m *Manager) Get(name string) (*CircuitBreaker, bool) {
	v, ok := m.breakers.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*CircuitBreaker), true
}

// GetAllMetrics snapshots every registered breaker.
func (m *Manager) GetAllMetrics() map[string]Metrics {
	out := make(map[string]Metrics)
	m.breakers.Range(func(key, value any) bool {
		cb := value.(*CircuitBreaker)
		out[key.(string)] = cb.Metrics()
		return true
	})
	return out
}

// ResetAll resets every registered breaker to CLOSED.
func (m *Manager) ResetAll() {
	m.breakers.Range(func(_, value any) bool {
		value.(*CircuitBreaker).Reset()
		return true
	})
}

// GetOpenCircuits returns the names of breakers currently OPEN.
func (m *Manager) GetOpenCircuits() []string {
	var open []string
	m.breakers.Range(func(key, value any) bool {
		if value.(*CircuitBreaker).State() == StateOpen {
			open = append(open, key.(string))
		}
		return true
	})
	return open
}
