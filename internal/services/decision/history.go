package decision

import (
	"sync"

	"github.com/agrofog/irrigation-engine/internal/engine/anomaly"
)

// historyStore keeps a bounded window of recent readings per sensor. The
// window belongs to the service instance; nothing outside it can grow it.
type historyStore struct {
	mu    sync.Mutex
	limit int
	byKey map[string][]anomaly.Reading
}

func newHistoryStore(limit int) *historyStore {
	if limit <= 0 {
		limit = 48
	}
	return &historyStore{limit: limit, byKey: make(map[string][]anomaly.Reading)}
}

// Window returns a copy of the stored readings for a sensor, oldest first.
func (h *historyStore) Window(key string) []anomaly.Reading {
	h.mu.Lock()
	defer h.mu.Unlock()
	w := h.byKey[key]
	out := make([]anomaly.Reading, len(w))
	copy(out, w)
	return out
}

// Append records a reading, evicting the oldest once the window is full.
func (h *historyStore) Append(key string, r anomaly.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w := append(h.byKey[key], r)
	if len(w) > h.limit {
		w = w[len(w)-h.limit:]
	}
	h.byKey[key] = w
}
