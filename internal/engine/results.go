package engine

import "sync"

// JobStatus is the lookup state of a job ID.
type JobStatus string

const (
	StatusUnknown JobStatus = "unknown"
	StatusPending JobStatus = "pending"
	StatusDone    JobStatus = "done"
)

// resultStore keeps the latest results by job ID.
// Once it holds cap IDs, adding another evicts the oldest.
type resultStore struct {
	mu      sync.Mutex
	cap     int
	order   []string              // insertion order, oldest first
	entries map[string]*RunResult // nil value: queued, not finished
}

func newResultStore(n int) *resultStore {
	if n < 1 {
		n = 1
	}
	return &resultStore{cap: n, entries: make(map[string]*RunResult, n)}
}

// markPending records id as queued, replacing any earlier result.
func (s *resultStore) markPending(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(id, nil)
}

// put records a finished result.
func (s *resultStore) put(res *RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(res.JobID, res)
}

// forget drops id, used when a queued job was never accepted.
func (s *resultStore) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return
	}
	delete(s.entries, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *resultStore) get(id string) (*RunResult, JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.entries[id]
	switch {
	case !ok:
		return nil, StatusUnknown
	case res == nil:
		return nil, StatusPending
	}
	return res, StatusDone
}

func (s *resultStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// set must be called with mu held.
func (s *resultStore) set(id string, res *RunResult) {
	if _, ok := s.entries[id]; !ok {
		s.order = append(s.order, id)
		for len(s.order) > s.cap {
			delete(s.entries, s.order[0])
			s.order = s.order[1:]
		}
	}
	s.entries[id] = res
}
