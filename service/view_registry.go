package service

import (
	"container/list"
	"sync"
)

// ViewRegistry holds mounted case views keyed by view id, evicting the least
// recently used view when full. Evicted and replaced views are closed.
type ViewRegistry struct {
	capacity int
	views    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

// NewViewRegistry creates a registry with the given capacity
func NewViewRegistry(capacity int) *ViewRegistry {
	if capacity <= 0 {
		capacity = 1024
	}
	return &ViewRegistry{
		capacity: capacity,
		views:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Mount returns the view registered under id for citation. When id holds a
// view of another citation that view is closed and replaced, so navigating
// always starts a fresh workflow.
func (r *ViewRegistry) Mount(id, citation string, create func() *CaseView) (cv *CaseView, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.views[id]; ok {
		existing := elem.Value.(*CaseView)
		if existing.Citation() == citation {
			r.lru.MoveToFront(elem)
			return existing, false
		}
		existing.Close()
		r.lru.Remove(elem)
		delete(r.views, id)
	}

	cv = create()
	r.views[id] = r.lru.PushFront(cv)

	if r.lru.Len() > r.capacity {
		oldest := r.lru.Back()
		if oldest != nil {
			evicted := oldest.Value.(*CaseView)
			r.lru.Remove(oldest)
			delete(r.views, evicted.ID())
			evicted.Close()
		}
	}
	return cv, true
}

// Get returns the view registered under id
func (r *ViewRegistry) Get(id string) (*CaseView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.views[id]
	if !ok {
		return nil, false
	}
	r.lru.MoveToFront(elem)
	return elem.Value.(*CaseView), true
}

// Unmount closes and removes the view registered under id
func (r *ViewRegistry) Unmount(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.views[id]
	if !ok {
		return false
	}
	r.lru.Remove(elem)
	delete(r.views, id)
	elem.Value.(*CaseView).Close()
	return true
}

// Len returns the number of mounted views
func (r *ViewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// CloseAll closes every mounted view
func (r *ViewRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for elem := r.lru.Front(); elem != nil; elem = elem.Next() {
		elem.Value.(*CaseView).Close()
	}
	r.views = make(map[string]*list.Element)
	r.lru.Init()
}
