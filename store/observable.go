package store

import (
	"slices"
	"sync"
)

// broadcaster fans snapshots out to subscribers. Callbacks run on the
// publishing goroutine, outside any store lock.
type broadcaster[T any] struct {
	mu          sync.Mutex
	next        int
	subscribers map[int]func(T)
}

func (b *broadcaster[T]) subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers == nil {
		b.subscribers = make(map[int]func(T))
	}
	id := b.next
	b.next++
	b.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster[T]) publish(value T) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subscribers[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}
