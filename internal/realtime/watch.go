package realtime

import (
	"context"
	"sync"
)

// Snapshot is one observed state of a watched document or query.
type Snapshot[T any] struct {
	Value  T
	Exists bool
}

// Loader reads the current state of the watched target. exists=false means
// the document is absent, which is not an error.
type Loader[T any] func(ctx context.Context) (value T, exists bool, err error)

// Watch delivers a snapshot immediately and again after every change
// notification on topic, until ctx is done or the returned Unsubscribe is
// called. Callbacks run sequentially on one goroutine, in notification order;
// notifications arriving during a load are coalesced into one reload.
//
// A callback already running when Unsubscribe is called may still complete.
// Callers that switch targets must discard results from the old one.
func Watch[T any](ctx context.Context, feed Feed, topic string, load Loader[T], fn func(Snapshot[T], error)) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)

	notify := make(chan struct{}, 1)
	notify <- struct{}{}
	unsub := feed.Subscribe(topic, func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
			}

			value, exists, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			fn(Snapshot[T]{Value: value, Exists: exists}, err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			cancel()
		})
	}
}
