package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps records in process memory. It does not survive restarts.
// Records are kept oldest first, so Recent walks the log backwards.
type MemoryBackend struct {
	mu      sync.RWMutex
	records []Record
	seq     int64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Insert(_ context.Context, rec Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	rec.Seq = m.seq

	// The store appends in created_at order; anything older is slotted in.
	i := len(m.records)
	if i > 0 && rec.CreatedAt.Before(m.records[i-1].CreatedAt) {
		i = sort.Search(len(m.records), func(j int) bool {
			return m.records[j].CreatedAt.After(rec.CreatedAt)
		})
	}
	m.records = append(m.records, Record{})
	copy(m.records[i+1:], m.records[i:])
	m.records[i] = rec
	return rec.Seq, nil
}

func (m *MemoryBackend) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(m.records) - 1; len(out) < n; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
