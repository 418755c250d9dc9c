// Command server wires the round service, its stores, and the background
// workers, then runs the HTTP API. Business logic lives in the internal
// packages; main only assembles and supervises.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"

	"drawcore/internal/draw"
	"drawcore/internal/events"
	"drawcore/internal/events/kafka"
	"drawcore/internal/events/outbox"
	"drawcore/internal/events/relay"
	jwttoken "drawcore/internal/jwt_token"
	"drawcore/internal/ledger/store"
	"drawcore/internal/platform/config"
	"drawcore/internal/platform/httpserver"
	"drawcore/internal/platform/logger"
	"drawcore/internal/platform/middleware"
	platformredis "drawcore/internal/platform/redis"
	"drawcore/internal/round/cache"
	"drawcore/internal/round/handler"
	"drawcore/internal/round/metrics"
	"drawcore/internal/round/ports"
	"drawcore/internal/round/service"
	participationstore "drawcore/internal/round/store/participation"
	roundstore "drawcore/internal/round/store/round"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		rounds         ports.RoundStore
		participations ports.ParticipationStore
		ledgerStore    ports.LedgerStore
		outboxStore    interface {
			ports.OutboxStore
			relay.Store
		}
		txRunner ports.TxRunner
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		rounds = roundstore.NewPostgres(db)
		participations = participationstore.NewPostgres(db)
		ledgerStore = store.NewPostgres(db)
		outboxStore = outbox.NewPostgres(db)
		txRunner = newRoundPostgresTx(db)
		log.Info("using postgres stores")
	} else {
		memRounds := roundstore.NewMemory()
		memParticipations := participationstore.NewMemory()
		memLedger := store.NewMemory()
		memOutbox := outbox.NewMemory()
		rounds = memRounds
		participations = memParticipations
		ledgerStore = memLedger
		outboxStore = memOutbox
		txRunner = service.NewMemoryTxRunner(memRounds, memParticipations, memLedger, memOutbox)
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	m := metrics.New()
	engine := draw.NewEngine()

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		svcOpts = append(svcOpts, service.WithStatusCache(cache.NewRedisStatusCache(
			redisClient.Client,
			cache.WithTTL(cfg.StatusCacheTTL),
			cache.WithLogger(log),
		)))
	}

	svc, err := service.New(rounds, participations, ledgerStore, outboxStore, txRunner, engine, svcOpts...)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "drawcore", "drawcore-api")
	validator := jwttoken.NewMiddlewareAdapter(jwtService)
	h := handler.New(svc, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RequestTime)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Group(h.RegisterPublic)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		h.RegisterUser(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log), middleware.RequireAdmin(log))
		h.RegisterAdmin(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting drawcore", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		if err := svc.RunSweeper(ctx, cfg.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.New(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, events.TypeRoundDrawn); err != nil {
			return err
		}
		rly := relay.New(outboxStore, publisher,
			relay.WithLogger(log),
			relay.WithInterval(cfg.RelayInterval),
		)
		group.Go(func() error {
			if err := rly.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Warn("KAFKA_BROKERS not set, drawn-round events stay in the outbox")
	}

	return group.Wait()
}
