package wordclock

import "sync"

// ChangeFunc is invoked with a copy of the full snapshot after every
// applied change. Callbacks run outside the store lock, sequentially, in
// subscription order; a slow callback delays later ones but never
// deadlocks the store.
type ChangeFunc func(Snapshot)

// Store holds the local mirror of the clock's state.
//
// The snapshot is absent until the first data arrives (seed fetch or
// first stream event). Merges are copy-on-write: each change produces a
// new snapshot map, so copies handed to callers are never mutated
// underneath them.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot // nil until first data
	subs     []*Subscription
}

// Subscription represents one registered change callback.
type Subscription struct {
	store *Store
	fn    ChangeFunc
}

// NewStore creates an empty store with no snapshot.
func NewStore() *Store {
	return &Store{}
}

// Current returns a copy of the snapshot and whether one exists yet.
// It never blocks on in-flight merges beyond the internal lock.
func (s *Store) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, false
	}
	return s.snapshot.Clone(), true
}

// ApplyAuthoritative merges fields reported by the device itself
// (seed snapshot or stream event) into the mirror.
func (s *Store) ApplyAuthoritative(fields Snapshot) {
	s.apply(fields)
}

// ApplyOptimistic merges fields from a locally issued mutation the
// device has accepted. The next stream event for the same fields
// overwrites these values.
func (s *Store) ApplyOptimistic(fields Snapshot) {
	s.apply(fields)
}

// apply is the single merge path: shallow, per-field, last write
// observed wins. Non-primitive values are dropped individually without
// failing the rest of the merge.
func (s *Store) apply(fields Snapshot) {
	if len(fields) == 0 {
		return
	}

	s.mu.Lock()
	next := make(Snapshot, len(s.snapshot)+len(fields))
	for k, v := range s.snapshot {
		next[k] = v
	}
	for k, v := range fields {
		if !isPrimitive(v) {
			continue
		}
		next[k] = v
	}
	s.snapshot = next

	subs := make([]*Subscription, len(s.subs))
	copy(subs, s.subs)
	notified := next.Clone()
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(notified)
	}
}

// Subscribe registers a callback invoked after every applied change.
// Callbacks are called in registration order with a copy of the full
// merged snapshot.
func (s *Store) Subscribe(fn ChangeFunc) *Subscription {
	sub := &Subscription{store: s, fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription. A callback already in flight
// may still complete; no new invocations occur after this returns.
func (sub *Subscription) Unsubscribe() {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
