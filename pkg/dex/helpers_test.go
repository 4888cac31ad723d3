package dex_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

// fakeCatalog serves size resources with ids 1..size from memory.
type fakeCatalog struct {
	size      int
	listCalls atomic.Int32
	getCalls  atomic.Int32

	mu      sync.Mutex
	listErr error
	getErr  error
	// gates, when set for an offset, block ListResources until closed.
	gates map[int]chan struct{}
}

func newFakeCatalog(size int) *fakeCatalog {
	return &fakeCatalog{size: size, gates: make(map[int]chan struct{})}
}

func resource(id int) dex.Resource {
	return dex.Resource{
		ID:     id,
		Name:   fmt.Sprintf("mon%d", id),
		Height: id,
		Weight: id * 10,
		Types:  []dex.TypeSlot{{Slot: 1, Type: dex.NamedAPIResource{Name: "normal"}}},
	}
}

func (f *fakeCatalog) failList(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listErr = err
}

func (f *fakeCatalog) failGet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getErr = err
}

func (f *fakeCatalog) gate(offset int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{})
	f.gates[offset] = ch

	return ch
}

func (f *fakeCatalog) ListResources(ctx context.Context, limit, offset int, filters dex.Filters) (*dex.ResourcePage, error) {
	f.listCalls.Add(1)

	f.mu.Lock()
	err := f.listErr
	gate := f.gates[offset]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if err != nil {
		return nil, err
	}

	page := &dex.ResourcePage{Count: f.size, Results: []dex.Resource{}}
	for id := offset + 1; id <= min(offset+limit, f.size); id++ {
		page.Results = append(page.Results, resource(id))
	}

	return page, nil
}

func (f *fakeCatalog) GetResource(ctx context.Context, id int) (*dex.Resource, error) {
	f.getCalls.Add(1)

	f.mu.Lock()
	err := f.getErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if id > f.size {
		return nil, dex.NewStatusError(404, fmt.Sprintf("/pokemon/%d", id))
	}

	r := resource(id)

	return &r, nil
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"normal"}, nil
}

// countingStorage counts writes to an in-memory backend.
type countingStorage struct {
	*dex.MemoryStorage

	sets    atomic.Int32
	deletes atomic.Int32
	failSet error
}

func newCountingStorage() *countingStorage {
	return &countingStorage{MemoryStorage: dex.NewMemoryStorage()}
}

func (s *countingStorage) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet != nil {
		return s.failSet
	}

	s.sets.Add(1)

	return s.MemoryStorage.Set(ctx, key, value)
}

func (s *countingStorage) Delete(ctx context.Context, key string) error {
	s.deletes.Add(1)

	return s.MemoryStorage.Delete(ctx, key)
}

func ids(resources []dex.Resource) []int {
	out := make([]int, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.ID)
	}

	return out
}

func idRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for id := from; id <= to; id++ {
		out = append(out, id)
	}

	return out
}
