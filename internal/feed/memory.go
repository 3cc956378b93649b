package feed

import (
	"context"
	"sync"

	"macroalloc/internal/series"
)

// Memory keeps a bounded window of recent points per series. Useful when the
// data layer pushes observations instead of the engine pulling them.
type Memory struct {
	mu      sync.RWMutex
	size    int
	windows map[string]*series.Window
}

func NewMemory(size int) *Memory {
	return &Memory{
		size:    size,
		windows: map[string]*series.Window{},
	}
}

func (m *Memory) Record(key string, p series.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key]
	if !ok {
		w = series.NewWindow(m.size)
		m.windows[key] = w
	}
	w.Add(p)
}

func (m *Memory) Snapshot(_ context.Context, keys []string) (series.Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data := make(series.Data, len(keys))
	for _, key := range keys {
		if w, ok := m.windows[key]; ok {
			data[key] = w.Snapshot()
		}
	}
	return data, nil
}
