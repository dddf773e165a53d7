package event

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher はRedis Streamにイベントを追記するPublisher。
// ストリーム名はイベントの種類（例: "user.registered"）になる。
type RedisPublisher struct {
	client redis.Cmdable
	// maxLen はストリームの概算最大長。0の場合は制限しない。
	maxLen int64
}

// NewRedisPublisher は新しいRedisPublisherを生成する。
func NewRedisPublisher(client redis.Cmdable, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, maxLen: maxLen}
}

// Publish はイベントをXADDでストリームに追記する。
func (p *RedisPublisher) Publish(ctx context.Context, e *Event) error {
	args := &redis.XAddArgs{
		Stream: string(e.EventType),
		Values: map[string]any{
			"id":             e.ID,
			"aggregate_id":   e.AggregateID,
			"aggregate_type": string(e.AggregateType),
			"event_type":     string(e.EventType),
			"data":           string(e.Data),
			"created_at":     e.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailure, err)
	}
	return nil
}
