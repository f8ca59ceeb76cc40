package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/TatianaIng96/driverflow-service/pkg/config"
	"github.com/redis/go-redis/v9"
)

// streamMaxLen caps the stream; XADD trims approximately beyond it
const streamMaxLen = 100000

// RedisPublisher appends events to a Redis stream with XADD
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to Redis and verifies the connection
func NewRedisPublisher(cfg *config.RedisConfig) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisPublisher{client: rdb, stream: cfg.Stream}, nil
}

// Publish implements Publisher
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: streamValues(ev),
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to stream %s: %w", p.stream, err)
	}
	return nil
}

// Close gracefully closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func streamValues(ev Event) map[string]interface{} {
	return map[string]interface{}{
		"id":            ev.ID,
		"type":          ev.Type,
		"operator_id":   ev.OperatorID,
		"entity_id":     ev.EntityID,
		"group_id":      ev.GroupID,
		"group_created": strconv.FormatBool(ev.GroupCreated),
		"message":       ev.Message,
		"at":            ev.At.UTC().Format(time.RFC3339Nano),
	}
}
