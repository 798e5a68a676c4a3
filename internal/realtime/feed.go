// Package realtime provides change notification between writers and live
// subscribers. Notifications carry no payload: subscribers reload the
// document or query they watch, so a burst of writes collapses into one read.
package realtime

import (
	"context"
	"sync"
)

// Unsubscribe detaches a subscription. It is safe to call more than once.
type Unsubscribe func()

// Feed delivers change notifications for topics (document or collection paths).
type Feed interface {
	Publish(ctx context.Context, topic string)
	Subscribe(topic string, fn func()) Unsubscribe
}

// LocalFeed is an in-process Feed.
type LocalFeed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func()
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[string]map[uint64]func())}
}

// Publish invokes every subscriber of topic on the caller's goroutine.
// Subscribers must not block.
func (f *LocalFeed) Publish(_ context.Context, topic string) {
	f.mu.RLock()
	fns := make([]func(), 0, len(f.subs[topic]))
	for _, fn := range f.subs[topic] {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (f *LocalFeed) Subscribe(topic string, fn func()) Unsubscribe {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[topic] == nil {
		f.subs[topic] = make(map[uint64]func())
	}
	f.subs[topic][id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if set := f.subs[topic]; set != nil {
				delete(set, id)
				if len(set) == 0 {
					delete(f.subs, topic)
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (f *LocalFeed) Subscribers(topic string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[topic])
}

// PublishAll publishes each topic in order.
func PublishAll(ctx context.Context, feed Feed, topics ...string) {
	if feed == nil {
		return
	}
	for _, t := range topics {
		feed.Publish(ctx, t)
	}
}
