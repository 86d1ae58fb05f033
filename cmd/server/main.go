package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kindra/internal/audit"
	"kindra/internal/donation/cache"
	"kindra/internal/donation/handler"
	"kindra/internal/donation/metrics"
	"kindra/internal/donation/receipts"
	"kindra/internal/donation/scheduler"
	"kindra/internal/donation/service"
	campaignstore "kindra/internal/donation/store/campaign"
	donationstore "kindra/internal/donation/store/donation"
	donorstore "kindra/internal/donation/store/donor"
	materialstore "kindra/internal/donation/store/material"
	receiptstore "kindra/internal/donation/store/receipt"
	"kindra/internal/notification"
	"kindra/internal/notification/kafka"
	notifstore "kindra/internal/notification/store"
	"kindra/internal/platform/config"
	"kindra/internal/platform/httpserver"
	"kindra/internal/platform/logger"
	"kindra/internal/platform/middleware"
	"kindra/internal/platform/postgres"
	platformredis "kindra/internal/platform/redis"
	"kindra/pkg/platform/tx"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services; nothing here makes a domain decision.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Error("database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	// Stores.
	donations := donationstore.NewPostgres(db)
	campaigns := campaignstore.NewPostgres(db)
	donors := donorstore.NewPostgres(db)
	receiptStore := receiptstore.NewPostgres(db)
	materials := materialstore.NewPostgres(db)

	// Receipt pipeline.
	issuer := receipts.NewIssuer(receiptStore)
	renderer, err := receipts.NewRenderer(receiptStore, cfg.OrgName, cfg.RenderWorkers, log)
	if err != nil {
		log.Error("renderer setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer renderer.Close()

	// Notifications: durable inboxes, optionally mirrored to Kafka.
	dispatcherOpts := []notification.Option{notification.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.Kafka, log)
		if err != nil {
			log.Error("kafka publisher setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer publisher.Close()
		dispatcherOpts = append(dispatcherOpts, notification.WithSink(publisher))
	}
	dispatcher := notification.NewDispatcher(notifstore.NewPostgres(db), dispatcherOpts...)
	audiences := notification.NewAudienceResolver(notification.NewPostgresDirectory(db))

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithAuditRecorder(audit.NewRecorder(audit.NewPostgres(db), log)),
		service.WithNotifications(dispatcher, audiences),
		service.WithRenderer(renderer),
		service.WithOrgName(cfg.OrgName),
		service.WithDefaultCurrency(cfg.DefaultCurrency),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithProgressCache(
			cache.NewProgressCache(redisClient.Client, 5*time.Minute, log)))
	}

	svc := service.New(donations, campaigns, donors, receiptStore, materials,
		tx.NewRunner(db), issuer, opts...)

	if cfg.ReconcileInterval > 0 {
		sched, err := scheduler.New(svc, cfg.ReconcileInterval, log)
		if err != nil {
			log.Error("scheduler setup failed", "error", err.Error())
			os.Exit(1)
		}
		if err := sched.Start(); err != nil {
			log.Error("scheduler start failed", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.Warn("scheduler shutdown failed", "error", err.Error())
			}
		}()
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := handler.New(svc, dispatcher, log, middleware.NewHMACValidator(cfg.JWTSigningKey))
	h.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("kindra donation engine listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}
