package core

import "sync"

// registry is an id-indexed mirror of server-side entities.
// Only the owning session mutates it; readers get copies, so a value
// handed out never changes underneath its holder.
type registry[V any] struct {
	mu    sync.RWMutex
	order []uint32
	items map[uint32]*V
	clone func(V) V
}

func newRegistry[V any](clone func(V) V) *registry[V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	return &registry[V]{items: make(map[uint32]*V), clone: clone}
}

func (r *registry[V]) get(id uint32) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		var zero V
		return zero, false
	}
	return r.clone(*v), true
}

// find returns matches in insertion order. A nil pred matches all.
func (r *registry[V]) find(pred func(V) bool, limit int) []V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []V
	for _, id := range r.order {
		v := *r.items[id]
		if pred != nil && !pred(v) {
			continue
		}
		out = append(out, r.clone(v))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r *registry[V]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// upsert creates the entry for id with create if missing, then runs
// apply on it. It returns a copy of the result.
func (r *registry[V]) upsert(id uint32, create func() V, apply func(*V) bool) (v V, created, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		nv := create()
		p = &nv
		r.items[id] = p
		r.order = append(r.order, id)
		created = true
	}
	changed = apply(p)
	return r.clone(*p), created, changed
}

func (r *registry[V]) remove(id uint32) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		var zero V
		return zero, false
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return r.clone(*p), true
}

func (r *registry[V]) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.items)
	r.order = nil
}
