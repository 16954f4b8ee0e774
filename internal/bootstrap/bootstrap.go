// Package bootstrap opens the storage backend and change feed selected by
// configuration. Both binaries share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/farmbe-store/internal/config"
	"github.com/example/farmbe-store/internal/farmstore"
	"github.com/example/farmbe-store/internal/infrastructure/kafka"
	"github.com/example/farmbe-store/internal/infrastructure/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend is an opened storage backend plus whatever must be closed with it.
type Backend struct {
	store.Backend
	// Redis is set when the backend is Redis, whose pub/sub can double as
	// the change feed.
	Redis   *store.RedisBackend
	closers []func() error
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenBackend connects to the configured backend. Postgres is migrated and
// DynamoDB gets its table created when missing.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory backend; data is lost on exit and not shared between processes")
		return &Backend{Backend: store.NewMemoryBackend()}, nil

	case config.BackendPostgres:
		db, err := store.ConnectPostgres(cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		if err := store.Migrate(cfg.Postgres.URL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return &Backend{Backend: store.NewPostgresBackend(db), closers: []func() error{db.Close}}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		rb := store.NewRedisBackend(client, cfg.Redis.Channel, logger)
		return &Backend{Backend: rb, Redis: rb, closers: []func() error{client.Close}}, nil

	case config.BackendDynamoDB:
		client, err := store.NewDynamoClient(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("configure dynamodb: %w", err)
		}
		db := store.NewDynamoBackend(client, cfg.DynamoDB.Table)
		if err := db.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("ensure dynamodb table: %w", err)
		}
		logger.Info("connected to dynamodb", zap.String("table", cfg.DynamoDB.Table), zap.String("region", cfg.DynamoDB.Region))
		return &Backend{Backend: db}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Feed is the cross-process change channel. A zero Feed means changes stay
// inside the process.
type Feed struct {
	Broadcaster farmstore.Broadcaster
	listen      func(ctx context.Context, handler store.MessageHandler) error
	closers     []func() error
}

// Enabled reports whether the feed carries changes between processes.
func (f *Feed) Enabled() bool { return f.listen != nil }

// Listen blocks delivering remote changes to handler until ctx ends.
func (f *Feed) Listen(ctx context.Context, handler store.MessageHandler) error {
	if f.listen == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.listen(ctx, handler)
}

func (f *Feed) Close() error {
	var errs []error
	for _, c := range f.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenFeed builds the configured change feed. Kafka consumers join a group
// named after origin unless KAFKA_GROUP_ID pins one, so every process
// receives every change.
func OpenFeed(cfg *config.Config, backend *Backend, origin string, logger *zap.Logger) (*Feed, error) {
	switch cfg.Store.ChangeFeed {
	case config.FeedNone, "":
		return &Feed{}, nil

	case config.FeedKafka:
		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "farmbe-" + origin
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, groupID, logger)
		logger.Info("kafka change feed",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic), zap.String("group", groupID))
		return &Feed{
			Broadcaster: producer,
			listen: func(ctx context.Context, handler store.MessageHandler) error {
				return consumer.Consume(ctx, kafka.MessageHandler(handler))
			},
			closers: []func() error{producer.Close, consumer.Close},
		}, nil

	case config.FeedRedis:
		if backend.Redis == nil {
			return nil, errors.New("redis change feed requires the redis backend")
		}
		logger.Info("redis change feed", zap.String("channel", cfg.Redis.Channel))
		return &Feed{Broadcaster: backend.Redis, listen: backend.Redis.Listen}, nil
	}
	return nil, fmt.Errorf("unknown change feed %q", cfg.Store.ChangeFeed)
}

// StoreOptions translates configuration into farmstore options.
func StoreOptions(cfg *config.Config, feed *Feed, metrics *farmstore.Metrics, origin string, logger *zap.Logger) []farmstore.Option {
	opts := []farmstore.Option{
		farmstore.WithLogger(logger),
		farmstore.WithMetrics(metrics),
		farmstore.WithOrigin(origin),
		farmstore.WithMaxAttempts(cfg.Store.MaxAttempts),
		farmstore.WithOrderDefaults(farmstore.OrderDefaults{
			Customer:    cfg.Orders.DefaultCustomer,
			Source:      cfg.Orders.DefaultSource,
			Destination: cfg.Orders.DefaultDestination,
		}),
	}
	if feed != nil && feed.Broadcaster != nil {
		opts = append(opts, farmstore.WithBroadcaster(feed.Broadcaster))
	}
	if cfg.Store.StrictLookup {
		opts = append(opts, farmstore.WithStrictNotFound())
	}
	if !cfg.Store.SeedDemo {
		opts = append(opts, farmstore.WithSeed(nil, nil))
	}
	return opts
}
