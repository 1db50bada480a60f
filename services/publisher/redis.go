package publisher

import (
	"context"

	"github.com/redis/go-redis/v9"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

// RedisPublisher implements Publisher using a capped Redis stream, so other
// services can follow new listings without polling the state file.
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int64
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: int64(streamMaxLength),
	}
}

// Ping checks that Redis answers
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish adds the message to the stream, trimming it to roughly the
// configured maximum length.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key: message,
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = p.streamMaxLength
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewPublisher("publisher", "xadd "+p.stream, err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
