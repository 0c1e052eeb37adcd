package userstate

import (
	"context"
	"sync"
)

// Stream is the read-only view of a Slot handed to consumers. It can observe
// the slot but never publish to it.
type Stream[T any] struct {
	slot *Slot[T]
}

// Name returns the backing slot name.
func (st Stream[T]) Name() string {
	if st.slot == nil {
		return ""
	}
	return st.slot.name
}

// Subscribe attaches fn to the backing slot; see Slot.Subscribe.
func (st Stream[T]) Subscribe(fn func(T)) *Subscription {
	if st.slot == nil {
		return &Subscription{}
	}
	return st.slot.Subscribe(fn)
}

// Current returns the latest value of the backing slot.
func (st Stream[T]) Current() (T, bool) {
	if st.slot == nil {
		var zero T
		return zero, false
	}
	return st.slot.Current()
}

// Watch pushes every delivered value into the returned channel until ctx is
// done, at which point the observer is detached and the channel closed. A
// consumer that stops reading blocks publishers until ctx is cancelled.
func (st Stream[T]) Watch(ctx context.Context, buffer int) <-chan T {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	var (
		mu     sync.Mutex
		closed bool
	)
	sub := st.Subscribe(func(value T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- value:
		case <-ctx.Done():
		}
	})

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}
