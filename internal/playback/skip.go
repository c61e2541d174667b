package playback

import "sync"

// SkipSet holds the URIs of tracks the user removed from the upcoming
// queue. The Web API cannot delete queue entries, so a removed track is
// skipped the moment it starts. Each insertion causes at most one skip.
type SkipSet struct {
	mu   sync.Mutex
	uris map[string]struct{}
}

// NewSkipSet returns an empty SkipSet.
func NewSkipSet() *SkipSet {
	return &SkipSet{uris: make(map[string]struct{})}
}

// Add marks uri to be skipped the next time it starts.
func (s *SkipSet) Add(uri string) {
	if uri == "" {
		return
	}
	s.mu.Lock()
	s.uris[uri] = struct{}{}
	s.mu.Unlock()
}

// Contains reports whether uri is marked.
func (s *SkipSet) Contains(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.uris[uri]
	return ok
}

// Remove unmarks uri.
func (s *SkipSet) Remove(uri string) {
	s.mu.Lock()
	delete(s.uris, uri)
	s.mu.Unlock()
}

// Take unmarks uri and reports whether it was marked, under a single lock
// acquisition. Two callers racing on the same uri see true exactly once.
func (s *SkipSet) Take(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uris[uri]; !ok {
		return false
	}
	delete(s.uris, uri)
	return true
}

// Clear unmarks everything. Called when a new playback context starts.
func (s *SkipSet) Clear() {
	s.mu.Lock()
	clear(s.uris)
	s.mu.Unlock()
}

// Len returns the number of marked URIs.
func (s *SkipSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uris)
}
