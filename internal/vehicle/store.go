package vehicle

import (
	"sort"
	"sync"
)

type record struct {
	mu     sync.Mutex
	status Status
}

// Store holds one status record per vehicle. Each record has its own lock,
// so updates to different vehicles do not wait on each other.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

// Init (re)sets the record of id to the defaults overlaid with initial.
func (s *Store) Init(id string, initial map[string]int) {
	st := DefaultStatus()
	st.Merge(initial)

	r := s.get(id, true)
	r.mu.Lock()
	r.status = st
	r.mu.Unlock()
}

// Update runs fn with exclusive access to the record of id, creating a zero
// record first if the vehicle is unknown. fn may change the record in place;
// changes stay even when fn returns an error.
func (s *Store) Update(id string, fn func(Status) error) error {
	r := s.get(id, true)
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.status)
}

// Get returns a copy of the record of id.
func (s *Store) Get(id string) (Status, bool) {
	r := s.get(id, false)
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.Clone(), true
}

// IDs returns the known vehicle ids, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) get(id string, create bool) *record {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if ok || !create {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return r
	}
	r = &record{status: DefaultStatus()}
	s.records[id] = r
	return r
}
