package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/example/farmbe-store/internal/api"
	"github.com/example/farmbe-store/internal/auth"
	"github.com/example/farmbe-store/internal/bootstrap"
	"github.com/example/farmbe-store/internal/command"
	"github.com/example/farmbe-store/internal/config"
	"github.com/example/farmbe-store/internal/farmstore"
	"github.com/example/farmbe-store/internal/logger"
	"github.com/example/farmbe-store/internal/query"
	"github.com/example/farmbe-store/internal/telemetry"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log, err := logger.New(logger.Config{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	origin := uuid.NewString()
	log = log.With(zap.String("service", cfg.Telemetry.ServiceName))
	log.Info("starting",
		zap.String("env", cfg.Server.AppEnv),
		zap.String("backend", cfg.Store.Backend),
		zap.String("change_feed", cfg.Store.ChangeFeed),
		zap.String("origin", origin))

	backend, err := bootstrap.OpenBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()

	feed, err := bootstrap.OpenFeed(cfg, backend, origin, log)
	if err != nil {
		log.Fatal("failed to open change feed", zap.Error(err))
	}
	defer feed.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := farmstore.NewMetrics(registry)

	st := farmstore.New(backend, bootstrap.StoreOptions(cfg, feed, metrics, origin, log)...)
	if err := st.Initialize(ctx); err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}

	var wg sync.WaitGroup
	if feed.Enabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := feed.Listen(ctx, st.HandleEvent); err != nil && ctx.Err() == nil {
				log.Error("change feed stopped", zap.Error(err))
			}
		}()
	}

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	gate, err := passcodeGate(cfg)
	if err != nil {
		log.Fatal("invalid demo passcode", zap.Error(err))
	}

	stream := api.NewChangeStream(st, log)
	if len(cfg.Server.AllowedOrigins) > 0 {
		stream.SetCheckOrigin(func(r *http.Request) bool {
			return slices.Contains(cfg.Server.AllowedOrigins, r.Header.Get("Origin"))
		})
	}

	router := api.NewRouter(api.RouterConfig{
		Handlers: api.NewHandlers(command.NewHandler(st), query.NewHandler(st), log),
		Auth:     api.NewAuthHandlers(jwtService, gate, log),
		Stream:   stream,
		JWT:      jwtService,
		Gatherer: registry,
		Logger:   log,
	})

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: telemetry.WrapHandler(router, "farmbe-api"),
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	wg.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown", zap.Error(err))
	}
}

func passcodeGate(cfg *config.Config) (*auth.PasscodeGate, error) {
	if cfg.Auth.PasscodeHash != "" {
		return auth.NewPasscodeGateFromHash(cfg.Auth.PasscodeHash)
	}
	return auth.NewPasscodeGate(cfg.Auth.Passcode)
}
