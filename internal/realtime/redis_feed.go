package realtime

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "nutriroom:changes:"

// RedisFeed fans change notifications out to every instance through Redis
// pub/sub. Local subscribers are served by the embedded LocalFeed once the
// notification comes back from Redis.
type RedisFeed struct {
	client *redis.Client
	local  *LocalFeed
	pubsub *redis.PubSub
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client, local: NewLocalFeed()}
}

// Start subscribes to the change channels and relays messages until ctx is done.
func (f *RedisFeed) Start(ctx context.Context) error {
	f.pubsub = f.client.PSubscribe(ctx, redisChannelPrefix+"*")
	if _, err := f.pubsub.Receive(ctx); err != nil {
		return err
	}

	go func() {
		ch := f.pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				f.local.Publish(ctx, strings.TrimPrefix(msg.Channel, redisChannelPrefix))
			}
		}
	}()
	return nil
}

func (f *RedisFeed) Publish(ctx context.Context, topic string) {
	if err := f.client.Publish(ctx, redisChannelPrefix+topic, "").Err(); err != nil {
		slog.Warn("redis publish failed, delivering locally", "topic", topic, "error", err)
		f.local.Publish(ctx, topic)
	}
}

func (f *RedisFeed) Subscribe(topic string, fn func()) Unsubscribe {
	return f.local.Subscribe(topic, fn)
}

func (f *RedisFeed) Close() error {
	if f.pubsub == nil {
		return nil
	}
	return f.pubsub.Close()
}
