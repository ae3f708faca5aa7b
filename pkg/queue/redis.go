package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on a Redis list (LPUSH/BRPOP).
type RedisQueue struct {
	client *redis.Client
	list   string
}

// RedisConfig holds configuration for connecting to Redis/Valkey.
type RedisConfig struct {
	Addr     string // host:port
	Password string // optional
	DB       int    // database number
	Name     string // queue (list) name
}

// NewRedisQueue creates a RedisQueue with the given configuration.
func NewRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisQueue{client: client, list: cfg.Name}, nil
}

// Enqueue pushes a task onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	return q.client.LPush(ctx, q.list, data).Err()
}

// Dequeue blocks on the list until a task arrives or ctx is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, error) {
	// BRPOP with zero timeout blocks until a value arrives; go-redis
	// aborts the blocking call when ctx is cancelled.
	res, err := q.client.BRPop(ctx, 0, q.list).Result()
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

// Close closes the connection to Redis.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ensure RedisQueue implements Queue.
var _ Queue = (*RedisQueue)(nil)
