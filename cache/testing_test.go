package cache

import (
	"context"
	"errors"
	"sync"
)

// testRow is the minimal Value used across this package's tests.
type testRow struct {
	ID  int
	Val string
}

func (r testRow) GetKey() int { return r.ID }

// fakeStorage is a mutex-guarded in-memory Storage, the same shape as the
// original source's test_impl.rs TestStruct, used to drive the
// resolver/container tests without a real backing store. Setting err makes
// every subsequent operation fail, to exercise the StorageError path.
type fakeStorage[K Key, V Value[K]] struct {
	mu   sync.Mutex
	rows map[K]V
	err  error
}

func newFakeStorage[K Key, V Value[K]]() *fakeStorage[K, V] {
	return &fakeStorage[K, V]{rows: make(map[K]V)}
}

func (s *fakeStorage[K, V]) failWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeStorage[K, V]) snapshot() map[K]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out
}

func (s *fakeStorage[K, V]) Insert(_ context.Context, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows[value.GetKey()] = value
	return nil
}

func (s *fakeStorage[K, V]) InsertMany(_ context.Context, values []V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, v := range values {
		s.rows[v.GetKey()] = v
	}
	return nil
}

func (s *fakeStorage[K, V]) Update(_ context.Context, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows[value.GetKey()] = value
	return nil
}

func (s *fakeStorage[K, V]) UpdateMany(_ context.Context, values []V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, v := range values {
		s.rows[v.GetKey()] = v
	}
	return nil
}

func (s *fakeStorage[K, V]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.rows, key)
	return nil
}

func (s *fakeStorage[K, V]) DeleteMany(_ context.Context, keys []K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, k := range keys {
		delete(s.rows, k)
	}
	return nil
}

func (s *fakeStorage[K, V]) GetAll(_ context.Context) (FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(FreshData[K, V], len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStorage[K, V]) GetByID(_ context.Context, key K) (FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(FreshData[K, V])
	if v, ok := s.rows[key]; ok {
		out[key] = v
	}
	return out, nil
}

func (s *fakeStorage[K, V]) GetByIDs(_ context.Context, keys []K) (FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(FreshData[K, V], len(keys))
	for _, k := range keys {
		if v, ok := s.rows[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *fakeStorage[K, V]) GetByPredicate(_ context.Context, pred Predicate[K, V]) (FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(FreshData[K, V])
	for k, v := range s.rows {
		if pred(v) {
			out[k] = v
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")
