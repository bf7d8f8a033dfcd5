package service

import "sync"

// IdentityMap associates a source message id with the remote copies created
// for it, keyed by destination channel id. It is pure in-memory state owned
// by the relay engine: a restart loses it, so edits and deletes for
// messages relayed before the restart are no longer propagated.
type IdentityMap struct {
	mu      sync.RWMutex
	entries map[string]map[string]string // source msg id -> channel id -> remote msg id
}

func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		entries: make(map[string]map[string]string),
	}
}

// Put records the remote copies of a source message. The caller hands over
// a complete mapping gathered after all fan-out attempts resolved; partial
// per-destination results are never written incrementally.
func (m *IdentityMap) Put(sourceID string, remotes map[string]string) {
	copied := make(map[string]string, len(remotes))
	for ch, id := range remotes {
		copied[ch] = id
	}
	m.mu.Lock()
	m.entries[sourceID] = copied
	m.mu.Unlock()
}

// Get returns a copy of the recorded remotes for a source message, or false
// when the message was never relayed (or predates the process).
func (m *IdentityMap) Get(sourceID string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	remotes, ok := m.entries[sourceID]
	if !ok {
		return nil, false
	}
	copied := make(map[string]string, len(remotes))
	for ch, id := range remotes {
		copied[ch] = id
	}
	return copied, true
}

// Delete removes the entry for a source message. Deleting an absent entry
// is a no-op.
func (m *IdentityMap) Delete(sourceID string) {
	m.mu.Lock()
	delete(m.entries, sourceID)
	m.mu.Unlock()
}

// Len reports the number of tracked source messages.
func (m *IdentityMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
