package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"partselect/parser/internal/config"
	"partselect/parser/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, consumer, taskType string) (*redis.XMessage, error)
	AckTask(ctx context.Context, taskType, msgID string) error
	AutoClaim(ctx context.Context, consumer, taskType string, minIdleTime time.Duration) ([]redis.XMessage, error)
	EnsureStreamsExist(ctx context.Context) error
}

// StreamClient is the part of the Redis client used by the queue.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

// RedisQueue stores every task type in its own stream, consumed by one group.
type RedisQueue struct {
	redisClient  StreamClient
	streamPrefix string
	groupName    string
	blockFor     time.Duration
}

func NewRedisQueue(ctx context.Context, redisClient StreamClient, cfg config.RedisConfig) (*RedisQueue, error) {
	q := newRedisQueue(redisClient, cfg.ConsumerGroup)

	// Ensure all streams and consumer groups exist before workers start
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

func newRedisQueue(redisClient StreamClient, group string) *RedisQueue {
	return &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: "partselect:stream:",
		groupName:    group,
		blockFor:     5 * time.Second,
	}
}

func (q *RedisQueue) stream(taskType string) string {
	return q.streamPrefix + taskType
}

func (q *RedisQueue) createGroup(ctx context.Context, stream string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, q.groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", q.groupName, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, task task.Task) (string, error) {
	taskType := task.TaskType()
	streamName := q.stream(taskType)

	taskValue, err := task.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

// GetTask blocks briefly for the next undelivered task. It returns nil, nil
// when the stream is idle.
func (q *RedisQueue) GetTask(ctx context.Context, consumer, taskType string) (*redis.XMessage, error) {
	streamName := q.stream(taskType)
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{streamName, ">"},
		Count:    1,
		Block:    q.blockFor,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", streamName, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return &result[0].Messages[0], nil
}

func (q *RedisQueue) AckTask(ctx context.Context, taskType, msgID string) error {
	if err := q.redisClient.XAck(ctx, q.stream(taskType), q.groupName, msgID).Err(); err != nil {
		return fmt.Errorf("failed to ack %s on %s: %w", msgID, taskType, err)
	}
	return nil
}

// AutoClaim takes over one task left pending by a crashed consumer.
func (q *RedisQueue) AutoClaim(ctx context.Context, consumer, taskType string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	streamName := q.stream(taskType)
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   streamName,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    1,
	}).Result()

	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", streamName, err)
	}

	return result, nil
}

// EnsureStreamsExist creates every task stream and its consumer group.
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	log.Info("🔧 Creating Redis streams and consumer groups...")

	for _, taskType := range task.TaskTypes {
		streamName := q.stream(taskType)
		if err := q.createGroup(ctx, streamName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
		log.Debugf("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}

	log.Infof("🎉 %d Redis streams ready for group %s", len(task.TaskTypes), q.groupName)
	return nil
}

// TaskData returns the JSON payload stored in a stream message.
func TaskData(msg redis.XMessage) ([]byte, error) {
	data, ok := msg.Values["task_data"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no task_data", msg.ID)
	}
	return []byte(data), nil
}
