// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/bidurkhatri/veridity-ledger/internal/connector"
	"github.com/bidurkhatri/veridity-ledger/internal/connector/cas"
	"github.com/bidurkhatri/veridity-ledger/internal/connector/signer"
	"github.com/bidurkhatri/veridity-ledger/internal/credential"
	credhandler "github.com/bidurkhatri/veridity-ledger/internal/credential/handler"
	credmetrics "github.com/bidurkhatri/veridity-ledger/internal/credential/metrics"
	credstore "github.com/bidurkhatri/veridity-ledger/internal/credential/store"
	"github.com/bidurkhatri/veridity-ledger/internal/did"
	didhandler "github.com/bidurkhatri/veridity-ledger/internal/did/handler"
	"github.com/bidurkhatri/veridity-ledger/internal/ledger"
	ledgerhandler "github.com/bidurkhatri/veridity-ledger/internal/ledger/handler"
	ledgerstore "github.com/bidurkhatri/veridity-ledger/internal/ledger/store"
	"github.com/bidurkhatri/veridity-ledger/internal/market"
	markethandler "github.com/bidurkhatri/veridity-ledger/internal/market/handler"
	marketstore "github.com/bidurkhatri/veridity-ledger/internal/market/store"
	"github.com/bidurkhatri/veridity-ledger/internal/platform/config"
	"github.com/bidurkhatri/veridity-ledger/internal/platform/httpserver"
	"github.com/bidurkhatri/veridity-ledger/internal/platform/logger"
	"github.com/bidurkhatri/veridity-ledger/internal/platform/metrics"
	platformredis "github.com/bidurkhatri/veridity-ledger/internal/platform/redis"
	"github.com/bidurkhatri/veridity-ledger/internal/registry"
	reghandler "github.com/bidurkhatri/veridity-ledger/internal/registry/handler"
	httptransport "github.com/bidurkhatri/veridity-ledger/internal/transport/http"
	"github.com/bidurkhatri/veridity-ledger/internal/verify"
	verifyhandler "github.com/bidurkhatri/veridity-ledger/internal/verify/handler"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events/publisher"
	kafkasink "github.com/bidurkhatri/veridity-ledger/pkg/platform/events/sink/kafka"
	memorysink "github.com/bidurkhatri/veridity-ledger/pkg/platform/events/sink/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokenStore, ledgerStore, listingStore, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var sink events.Sink
	if len(cfg.KafkaBrokers) > 0 {
		ks, err := kafkasink.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("kafka sink: %w", err)
		}
		defer ks.Close()
		sink = ks
		log.Info("event sink: kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		sink = memorysink.NewInMemorySink()
		log.Info("event sink: in-memory")
	}
	pub := publisher.NewPublisher(sink, publisher.WithLogger(log), publisher.WithAsyncBuffer(256))
	defer pub.Close()

	chain := connector.NewStaticLedger()

	var content connector.ContentStore
	if cfg.IPFSAddr != "" {
		content = cas.NewIPFS(cfg.IPFSAddr)
		log.Info("content store: ipfs", "addr", cfg.IPFSAddr)
	} else {
		content = cas.NewMemory()
		log.Info("content store: in-memory")
	}

	sg, err := signer.NewLocal(cfg.SigningKeyPath)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}

	reg := registry.New(registry.WithLogger(log))
	registry.SeedBootstrap(reg)

	ledgerSvc := ledger.New(ledgerStore, ledger.WithLogger(log))
	poller := ledger.NewPoller(ledgerStore, chain,
		ledger.WithPollerLogger(log),
		ledger.WithPollerPublisher(pub),
		ledger.WithInterval(cfg.PollInterval),
		ledger.WithMaxAttempts(cfg.PollMaxAttempts),
		ledger.WithBackoff(30*time.Second, cfg.PollMaxBackoff),
	)

	credSvc := credential.New(tokenStore, reg, chain, content, sg, ledgerSvc,
		credential.WithLogger(log),
		credential.WithMetrics(credmetrics.New()),
		credential.WithPublisher(pub),
		credential.WithExternalTimeout(cfg.ExternalCallTimeout),
	)

	didSvc := did.New(did.NewInMemoryStore(), sg, chain, ledgerSvc,
		did.WithLogger(log),
		did.WithPublisher(pub),
		did.WithExternalTimeout(cfg.ExternalCallTimeout),
	)

	marketSvc := market.New(listingStore, credSvc, ledgerSvc,
		market.WithLogger(log),
		market.WithPublisher(pub),
		market.WithFeaturedThreshold(cfg.FeaturedPriceThreshold),
	)

	verifyOpts := []verify.Option{
		verify.WithLogger(log),
		verify.WithExternalTimeout(cfg.ExternalCallTimeout),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		verifyOpts = append(verifyOpts, verify.WithCache(verify.NewRedisCache(redisClient.Client, cfg.Redis.ExistenceTTL)))
		log.Info("verification cache: redis", "ttl", cfg.Redis.ExistenceTTL)
	}
	verifySvc := verify.New(credSvc, reg, chain, content, sg, verifyOpts...)

	router := httptransport.NewRouter(metrics.New(),
		reghandler.New(reg, log),
		credhandler.New(credSvc, log),
		verifyhandler.New(verifySvc, log),
		markethandler.New(marketSvc, log),
		didhandler.New(didSvc, log),
		ledgerhandler.New(ledgerSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStores selects durable or in-memory stores by configuration. With a
// Postgres URL the schemas are applied on startup; every statement is
// idempotent.
func buildStores(ctx context.Context, cfg config.Config) (credstore.Store, ledgerstore.Store, marketstore.Store, func(), error) {
	if cfg.PostgresURL == "" {
		return credstore.NewInMemory(), ledgerstore.NewInMemory(), marketstore.NewInMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, ddl := range []string{credstore.Schema, ledgerstore.Schema, marketstore.Schema} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			db.Close()
			return nil, nil, nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return credstore.NewPostgres(db), ledgerstore.NewPostgres(db), marketstore.NewPostgres(db), func() { db.Close() }, nil
}
