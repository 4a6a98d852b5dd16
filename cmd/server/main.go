package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"redeco/internal/audit"
	"redeco/internal/catalog"
	clientshandler "redeco/internal/clients/handler"
	clientsservice "redeco/internal/clients/service"
	clientsstore "redeco/internal/clients/store"
	"redeco/internal/complaint"
	"redeco/internal/condusef"
	"redeco/internal/platform/config"
	"redeco/internal/platform/database"
	"redeco/internal/platform/health"
	"redeco/internal/platform/httpserver"
	"redeco/internal/platform/logger"
	"redeco/internal/platform/metrics"
	platformredis "redeco/internal/platform/redis"
	"redeco/internal/session"
	httptransport "redeco/internal/transport/http"
	"redeco/internal/web"
)

const auditBufferSize = 256

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing redeco portal",
		"addr", cfg.Addr,
		"redeco_api", cfg.RedecoAPIBase,
		"reune_api", cfg.ReuneAPIBase,
		"environment", cfg.Environment,
	)

	m := metrics.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sessionStore session.Store
	if redisClient != nil {
		sessionStore = session.NewRedis(redisClient.Client)
		log.Info("sessions backed by redis")
	} else {
		sessionStore = session.NewInMemory()
		log.Warn("sessions backed by memory store, tokens are lost on restart")
	}

	var registryStore clientsstore.Store
	var auditStore audit.Store
	if pool != nil {
		registryStore = clientsstore.NewPostgres(pool.DB())
		auditStore = audit.NewPostgresStore(pool.DB())
		log.Info("registry backed by postgres")
	} else {
		registryStore = clientsstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		log.Warn("registry backed by memory store, records are lost on restart")
	}

	auditPub := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(auditBufferSize),
		audit.WithPublisherLogger(log),
	)
	defer auditPub.Close()

	redecoClient := condusef.New(cfg.RedecoAPIBase, condusef.WithMetrics(m))
	reuneClient := condusef.NewReune(cfg.ReuneAPIBase, condusef.WithReuneMetrics(m))

	codec := session.NewCookieCodec(cfg.SessionSecret, cfg.Environment != "development")
	manager := session.NewManager(sessionStore, codec, redecoClient, cfg.SessionTTL, log, m)

	render, err := web.NewRenderer(log)
	if err != nil {
		log.Error("template parsing failed", "error", err)
		os.Exit(1)
	}

	registryService := clientsservice.New(registryStore, log, m)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	router := httptransport.New(httptransport.Deps{
		Logger:    log,
		Manager:   manager,
		Web:       web.NewHandler(manager, render, auditPub, log),
		Catalog:   catalog.NewHandler(redecoClient, manager, render, log),
		Complaint: complaint.NewHandler(redecoClient, reuneClient, manager, render, auditPub, m, log),
		Clients:   clientshandler.NewHandler(registryService, manager, render, auditPub, log),
		Health:    healthHandler,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
