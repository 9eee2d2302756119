package containers

import (
	"reflect"
	"sync"
)

const defaultBound = 16

// Store recycles transient general-purpose containers, keyed by container
// type. Each bucket is a small bounded stack; overflow on return is simply
// dropped for the GC. One mutex serializes everything: this is meant for
// low-contention, main-goroutine-dominant use, not as a high-throughput
// concurrent structure.
type Store struct {
	mu      sync.Mutex
	buckets map[reflect.Type][]any
	bound   int
	pooled  int
}

func NewStore(bound int) *Store {
	if bound <= 0 {
		bound = defaultBound
	}
	return &Store{
		buckets: make(map[reflect.Type][]any),
		bound:   bound,
	}
}

// Pooled is the total recycled containers currently held across all
// buckets, maintained as a running counter so reads are O(1).
func (s *Store) Pooled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pooled
}

func (s *Store) get(key reflect.Type) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buckets[key]
	n := len(b)
	if n == 0 {
		return nil, false
	}
	v := b[n-1]
	b[n-1] = nil
	s.buckets[key] = b[:n-1]
	s.pooled--
	return v, true
}

func (s *Store) put(key reflect.Type, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buckets[key]) >= s.bound {
		return
	}
	s.buckets[key] = append(s.buckets[key], v)
	s.pooled++
}

func sliceKey[T any]() reflect.Type { return reflect.TypeOf((*[]T)(nil)) }

func mapKey[K comparable, V any]() reflect.Type { return reflect.TypeOf((*map[K]V)(nil)) }

// Slice pops a recycled empty slice or allocates a new one.
func Slice[T any](s *Store) []T {
	if v, ok := s.get(sliceKey[T]()); ok {
		return v.([]T)
	}
	return make([]T, 0, 8)
}

// PutSlice zeroes the elements (so pooled slices never pin references),
// truncates, and returns the slice to its bucket.
func PutSlice[T any](s *Store, sl []T) {
	if sl == nil {
		return
	}
	var zero T
	for i := range sl {
		sl[i] = zero
	}
	s.put(sliceKey[T](), sl[:0])
}

// Map pops a recycled map or allocates a new one.
func Map[K comparable, V any](s *Store) map[K]V {
	if v, ok := s.get(mapKey[K, V]()); ok {
		return v.(map[K]V)
	}
	return make(map[K]V, 8)
}

// PutMap clears the map and returns it to its bucket.
func PutMap[K comparable, V any](s *Store, m map[K]V) {
	if m == nil {
		return
	}
	clear(m)
	s.put(mapKey[K, V](), m)
}

// Set pops a recycled element set. Sets share buckets with maps of the same
// shape, which is exact since both come back cleared.
func Set[T comparable](s *Store) map[T]struct{} {
	return Map[T, struct{}](s)
}

// PutSet clears the set and returns it to its bucket.
func PutSet[T comparable](s *Store, set map[T]struct{}) {
	PutMap(s, set)
}

var std = NewStore(defaultBound)

// Default is the process-wide store for callers without their own.
func Default() *Store { return std }
