package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFeedPublishSubscribe(t *testing.T) {
	feed := NewLocalFeed()
	var hits int32
	unsub := feed.Subscribe("rooms/r1", func() { atomic.AddInt32(&hits, 1) })

	feed.Publish(context.Background(), "rooms/r1")
	feed.Publish(context.Background(), "rooms/r2")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, feed.Subscribers("rooms/r1"))

	unsub()
	unsub()
	feed.Publish(context.Background(), "rooms/r1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 0, feed.Subscribers("rooms/r1"))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "users/u1", UserTopic("u1"))
	assert.Equal(t, "rooms/r1/messages", RoomMessagesTopic("r1"))
	assert.Equal(t, "tenants/clinic/config/site", SiteConfigTopic("clinic"))
}

type snapshotRecorder struct {
	mu   sync.Mutex
	seen []Snapshot[int]
	errs []error
}

func (r *snapshotRecorder) record(s Snapshot[int], err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
	r.errs = append(r.errs, err)
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *snapshotRecorder) last() (Snapshot[int], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1], r.errs[len(r.errs)-1]
}

func TestWatchDeliversInitialAndChangedSnapshots(t *testing.T) {
	feed := NewLocalFeed()
	var value int32
	load := func(context.Context) (int, bool, error) {
		v := int(atomic.LoadInt32(&value))
		return v, v > 0, nil
	}

	rec := &snapshotRecorder{}
	unsub := Watch(context.Background(), feed, "users/u1", load, rec.record)
	defer unsub()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	snap, err := rec.last()
	require.NoError(t, err)
	assert.False(t, snap.Exists)

	atomic.StoreInt32(&value, 7)
	feed.Publish(context.Background(), "users/u1")

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	snap, _ = rec.last()
	assert.True(t, snap.Exists)
	assert.Equal(t, 7, snap.Value)
}

func TestWatchReportsLoadErrors(t *testing.T) {
	feed := NewLocalFeed()
	boom := errors.New("boom")
	rec := &snapshotRecorder{}
	unsub := Watch(context.Background(), feed, "t", func(context.Context) (int, bool, error) {
		return 0, false, boom
	}, rec.record)
	defer unsub()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	_, err := rec.last()
	assert.ErrorIs(t, err, boom)
}

func TestWatchStopsAfterUnsubscribe(t *testing.T) {
	feed := NewLocalFeed()
	rec := &snapshotRecorder{}
	unsub := Watch(context.Background(), feed, "t", func(context.Context) (int, bool, error) {
		return 1, true, nil
	}, rec.record)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	unsub()
	assert.Equal(t, 0, feed.Subscribers("t"))

	feed.Publish(context.Background(), "t")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}
