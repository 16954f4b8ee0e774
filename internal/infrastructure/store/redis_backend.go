package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisValueField   = "value"
	redisVersionField = "version"
)

// RedisBackend stores each collection as a hash {value, version}. It also
// carries change events over a pub/sub channel so processes sharing the
// same Redis see each other's writes.
type RedisBackend struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

func NewRedisBackend(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBackend{client: client, channel: channel, logger: logger}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (Record, error) {
	fields, err := b.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Record{Key: key}, nil
	}

	version, err := strconv.ParseInt(fields[redisVersionField], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("failed to parse version of %s: %w", key, err)
	}
	return Record{Key: key, Value: []byte(fields[redisValueField]), Version: version}, nil
}

// Commit watches every key, checks versions and applies the writes in a
// MULTI/EXEC block. Redis aborts EXEC if a watched key changed meanwhile.
func (b *RedisBackend) Commit(ctx context.Context, writes ...Write) error {
	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.Key)
	}

	txf := func(tx *redis.Tx) error {
		for _, w := range writes {
			current, err := tx.HGet(ctx, w.Key, redisVersionField).Int64()
			if errors.Is(err, redis.Nil) {
				current = 0
			} else if err != nil {
				return fmt.Errorf("failed to read version of %s: %w", w.Key, err)
			}
			if current != w.ExpectedVersion {
				return fmt.Errorf("%w: %s is at version %d, expected %d", ErrVersionConflict, w.Key, current, w.ExpectedVersion)
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range writes {
				pipe.HSet(ctx, w.Key,
					redisValueField, string(w.Value),
					redisVersionField, w.ExpectedVersion+1,
				)
			}
			return nil
		})
		return err
	}

	err := b.client.Watch(ctx, txf, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: watched key changed during commit", ErrVersionConflict)
	}
	return err
}

type redisEnvelope struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Publish sends event on the change channel.
func (b *RedisBackend) Publish(ctx context.Context, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(redisEnvelope{Key: key, Value: value})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Listen delivers channel messages to handler until ctx is cancelled.
func (b *RedisBackend) Listen(ctx context.Context, handler MessageHandler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed change message",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if err := handler(ctx, []byte(env.Key), env.Value); err != nil {
				b.logger.Error("error handling change message", zap.String("key", env.Key), zap.Error(err))
			}
		}
	}
}
