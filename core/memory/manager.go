package memory

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"expense-sync/core/utils"
)

// Stats is a snapshot of the manager state.
type Stats struct {
	Datasets  int    `json:"datasets"`
	Bytes     int64  `json:"bytes"`
	MaxBytes  int64  `json:"max_bytes"`
	Evictions uint64 `json:"evictions"`
	Rejected  uint64 `json:"rejected"`
}

type dataset struct {
	name       string
	scope      string
	data       any
	size       int64
	registered time.Time
	elem       *list.Element
}

// Manager tracks named in-memory datasets under a byte budget.
//
// Datasets are registered per synchronization scope. When a registration would
// exceed the ceiling, least recently accessed datasets from other scopes are
// evicted first; registration is rejected only if freeing everything else
// still would not fit.
type Manager struct {
	mu       sync.Mutex
	max      int64
	used     int64
	datasets map[string]*dataset
	lru      *list.List // front = most recently used

	evictions uint64
	rejected  uint64

	log *zap.Logger
	now func() time.Time
}

// New creates a manager from the given configuration.
func New(cfg Config, log *zap.Logger) *Manager {
	maxMB := cfg.MaxMB
	if maxMB <= 0 {
		maxMB = 1024
	}
	return &Manager{
		max:      int64(maxMB) << 20,
		datasets: make(map[string]*dataset),
		lru:      list.New(),
		log:      log,
		now:      time.Now,
	}
}

// Register stores data under name for the given scope. It reports whether the
// dataset fits; a dataset larger than the whole budget is always rejected.
func (m *Manager) Register(name string, data any, scope string) bool {
	size := utils.Sizeof(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if size > m.max {
		m.rejected++
		m.log.Warn("Dataset exceeds memory ceiling, rejected",
			zap.String("name", name), zap.Int64("size", size), zap.Int64("max", m.max))
		return false
	}

	if d, ok := m.datasets[name]; ok {
		m.remove(d)
	}

	if m.used+size > m.max && !m.evictFor(size, scope) {
		m.rejected++
		m.log.Warn("Cannot free enough memory, registration rejected",
			zap.String("name", name), zap.Int64("size", size))
		return false
	}

	d := &dataset{
		name:       name,
		scope:      scope,
		data:       data,
		size:       size,
		registered: m.now(),
	}
	d.elem = m.lru.PushFront(d)
	m.datasets[name] = d
	m.used += size

	m.log.Debug("Dataset registered",
		zap.String("name", name),
		zap.String("scope", scope),
		zap.Int64("size", size),
		zap.Int64("used", m.used))
	return true
}

// Get returns the dataset stored under name and marks it recently used.
func (m *Manager) Get(name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.datasets[name]
	if !ok {
		return nil, false
	}
	m.lru.MoveToFront(d.elem)
	return d.data, true
}

// CleanupScope releases every dataset registered for scope and returns the
// number of bytes freed.
func (m *Manager) CleanupScope(scope string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var freed int64
	for _, d := range m.datasets {
		if d.scope == scope {
			freed += d.size
			m.remove(d)
		}
	}
	if freed > 0 {
		m.log.Debug("Scope datasets released",
			zap.String("scope", scope), zap.Int64("freed", freed))
	}
	return freed
}

// CleanupAll releases every registered dataset.
func (m *Manager) CleanupAll() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	freed := m.used
	m.datasets = make(map[string]*dataset)
	m.lru.Init()
	m.used = 0
	return freed
}

// Stats returns a snapshot of the manager counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Datasets:  len(m.datasets),
		Bytes:     m.used,
		MaxBytes:  m.max,
		Evictions: m.evictions,
		Rejected:  m.rejected,
	}
}

// evictFor drops least recently used datasets from other scopes until size
// fits. It reports whether enough space was freed. Callers must hold the lock.
func (m *Manager) evictFor(size int64, scope string) bool {
	for elem := m.lru.Back(); elem != nil && m.used+size > m.max; {
		d := elem.Value.(*dataset)
		elem = elem.Prev()
		if d.scope == scope {
			continue
		}
		m.remove(d)
		m.evictions++
		m.log.Debug("Dataset evicted",
			zap.String("name", d.name), zap.Int64("size", d.size))
	}
	return m.used+size <= m.max
}

func (m *Manager) remove(d *dataset) {
	m.lru.Remove(d.elem)
	delete(m.datasets, d.name)
	m.used -= d.size
}
