// Command watcher follows the cross-process change feed and logs what each
// change did to the shared collections: order status moves and products
// falling below the low-stock line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/farmbe-store/internal/bootstrap"
	"github.com/example/farmbe-store/internal/config"
	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/farmstore"
	"github.com/example/farmbe-store/internal/infrastructure/store"
	"github.com/example/farmbe-store/internal/logger"
	"github.com/example/farmbe-store/internal/query"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log, err := logger.New(logger.Config{
		IsDevelopment: cfg.IsDevelopment(),
		Encoding:      cfg.Logger.Encoding,
		Level:         cfg.Logger.Level,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With(zap.String("service", "farmbe-watcher"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("watcher failed", zap.Error(err))
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("shutting down")
}

// run owns every resource it opens, so all of them are closed on each
// return path.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	origin := "watcher-" + uuid.NewString()
	backend, err := bootstrap.OpenBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	feed, err := bootstrap.OpenFeed(cfg, backend, origin, log)
	if err != nil {
		return fmt.Errorf("open change feed: %w", err)
	}
	defer feed.Close()
	if !feed.Enabled() {
		return errors.New("CHANGE_FEED must be kafka or redis for the watcher")
	}

	// The watcher never writes, so it needs no broadcaster.
	st := farmstore.New(backend, farmstore.WithLogger(log), farmstore.WithOrigin(origin))
	reader := query.NewHandler(st)

	unsubscribe := st.Subscribe(func(c farmstore.Change) {
		report(ctx, log, reader, c)
	})
	defer unsubscribe()

	log.Info("watching change feed", zap.String("backend", cfg.Store.Backend), zap.String("feed", cfg.Store.ChangeFeed))
	if err := feed.Listen(ctx, st.HandleEvent); err != nil && ctx.Err() == nil {
		return fmt.Errorf("change feed stopped: %w", err)
	}
	return nil
}

func report(ctx context.Context, log *zap.Logger, reader *query.Handler, c farmstore.Change) {
	fields := []zap.Field{
		zap.String("change_id", c.ID),
		zap.String("op", string(c.Op)),
		zap.String("ref", c.Ref),
		zap.String("from", c.Origin),
		zap.Time("at", c.At),
	}

	if id, ok := strings.CutPrefix(c.Ref, "order:"); ok {
		if o, found := reader.GetOrder(ctx, id); found {
			fields = append(fields,
				zap.String("customer", o.Customer),
				zap.String("summary", o.Summary),
				zap.String("total", o.Total.String()),
				zap.String("status", string(o.Status)))
		}
	}
	log.Info("change", fields...)

	if !c.Touches(store.InventoryKey) {
		return
	}
	for _, line := range lowStock(ctx, reader) {
		log.Warn("low stock", zap.Int("product_id", line.ProductID), zap.String("name", line.Name),
			zap.Int("stock", line.Stock), zap.String("unit", line.Unit))
	}
}

func lowStock(ctx context.Context, reader *query.Handler) []query.StockLine {
	d, err := reader.Dashboard(ctx, domain.RoleFarmer, "")
	if err != nil {
		return nil
	}
	return d.Farmer.LowStock
}
