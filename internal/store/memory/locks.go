package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ledgerline/mdm/pkg/errors"
)

// lockTable hands out one lock per record id. Each lock is a channel with
// a single slot so acquisition can be abandoned when the context ends.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func (t *lockTable) get(id string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[id] = ch
	}
	return ch
}

// Lock acquires the locks for ids. Locks are always taken in id order.
func (s *Store) Lock(ctx context.Context, ids ...string) (func(), error) {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	ordered := make([]string, 0, len(unique))
	for id := range unique {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	held := make([]chan struct{}, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, id := range ordered {
		ch := s.locks.get(id)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, errors.WrapResource("lock", "record", id, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
