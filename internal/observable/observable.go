// ABOUTME: Last-value-replay publish/subscribe container
// ABOUTME: New subscribers receive the current value, then every later update in order

package observable

import "sync"

// Value holds the most recent T and fans updates out to subscribers.
// Deliveries are serialized: a subscriber never sees two updates at once
// and sees them in the order Set was called. Callbacks run on the
// goroutine that called Set and must not call Set, Update, Subscribe or a
// cancel function of the same Value.
type Value[T any] struct {
	mu      sync.Mutex // guards current, subs, nextID
	deliver sync.Mutex // serializes callback delivery
	current T
	subs    map[int]*subscriber[T]
	nextID  int
}

type subscriber[T any] struct {
	fn func(T)
}

// New creates a Value holding initial
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[int]*subscriber[T]),
	}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores next and publishes it to every active subscriber
func (v *Value[T]) Set(next T) {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	v.current = next
	targets := v.snapshotLocked()
	v.mu.Unlock()

	for _, s := range targets {
		s.fn(next)
	}
}

// Update applies fn to the current value and publishes the result
func (v *Value[T]) Update(fn func(T) T) {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	next := fn(v.current)
	v.current = next
	targets := v.snapshotLocked()
	v.mu.Unlock()

	for _, s := range targets {
		s.fn(next)
	}
}

// Subscribe registers fn, replays the current value to it, and returns a
// cancel function. Once cancel returns, fn is not called again.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	s := &subscriber[T]{fn: fn}
	v.subs[id] = s
	current := v.current
	v.mu.Unlock()

	s.fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.deliver.Lock()
			defer v.deliver.Unlock()

			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

func (v *Value[T]) snapshotLocked() []*subscriber[T] {
	out := make([]*subscriber[T], 0, len(v.subs))
	for id := 0; id < v.nextID; id++ {
		if s, ok := v.subs[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
