package sessioncache

import "sync"

// MemoryStore keeps snapshots in process memory. It is the default backend:
// the process lifetime is the session.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Read(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true
}

func (s *MemoryStore) Write(key string, payload []byte) {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	s.entries[key] = stored
	s.mu.Unlock()
}

// Clear drops every entry. Called when the session ends.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[string][]byte)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
