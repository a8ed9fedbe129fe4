package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "travelbuddy/internal/adapter/http"
	"travelbuddy/internal/adapter/kafka"
	"travelbuddy/internal/adapter/memory"
	"travelbuddy/internal/adapter/postgres"
	"travelbuddy/internal/adapter/redis"
	"travelbuddy/internal/adapter/sendgrid"
	"travelbuddy/internal/app"
	"travelbuddy/internal/config"
	"travelbuddy/internal/domain"
)

// store is everything the services need from a storage backend.
type store interface {
	domain.UserRepository
	domain.ProfileRepository
	domain.BookingRepository
	domain.ContactRepository
	domain.TravelOptionRepository
}

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var (
		db      store
		pgDB    *postgres.DB
		mem     *memory.DB
		healthy func(context.Context) error
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		d, err := postgres.Open(cfg.Storage.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()
		db, pgDB, healthy = d, d, d.Ping
	default:
		mem = memory.New()
		mem.SeedTravelOptions(time.Now())
		db = mem
		log.Warn("using in-memory storage; data is lost on restart")
	}

	var sessions domain.SessionRepository
	switch cfg.Sessions.Backend {
	case config.BackendPostgres:
		sessions = postgres.NewSessionRepo(pgDB)
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		sessions = redis.NewSessionRepo(client)
	default:
		if mem == nil {
			mem = memory.New()
		}
		sessions = mem.NewSessionRepo()
	}

	bookingOpts := []app.BookingOption{app.WithBookingLogger(log)}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
		defer func() { _ = producer.Close() }()
		bookingOpts = append(bookingOpts, app.WithBookingEvents(producer))
		log.Info("publishing booking events", "topic", cfg.Kafka.BookingTopic)
	}

	var notifier domain.ContactNotifier
	if cfg.SendGrid.Enabled() {
		notifier = sendgrid.NewNotifier(cfg.SendGrid.APIKey, cfg.SendGrid.From, cfg.SendGrid.NotifyTo)
	}

	authSvc := app.NewAuthService(db, sessions, app.WithSessionTTLs(cfg.Sessions.Remember, cfg.Sessions.Browser))
	site := app.NewSite(
		authSvc,
		app.NewBookingService(db, bookingOpts...),
		app.NewContactService(db, notifier, log),
		app.NewTravelService(db),
		db,
	)

	opts := []adapthttp.Option{
		adapthttp.WithLogger(log),
		adapthttp.WithSecureCookies(cfg.HTTP.SecureCookies),
	}
	if cfg.HTTP.CSRFKey != "" {
		opts = append(opts, adapthttp.WithCSRFKey([]byte(cfg.HTTP.CSRFKey)))
	}
	if cfg.HTTP.TrustedEmailHeader != "" {
		opts = append(opts, adapthttp.WithTrustedEmailHeader(cfg.HTTP.TrustedEmailHeader))
		log.Info("proxy login enabled", "header", cfg.HTTP.TrustedEmailHeader)
	}
	if healthy != nil {
		opts = append(opts, adapthttp.WithHealthCheck(healthy))
	}
	if cfg.OIDC.Enabled() {
		oc, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		oc.RequireVerifiedEmail = cfg.OIDC.RequireVerifiedEmail
		opts = append(opts, adapthttp.WithOIDC(oc))
	}

	srv, err := adapthttp.New(site, opts...)
	if err != nil {
		return err
	}

	go purgeSessions(ctx, authSvc, cfg.Sessions.Purge, log)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Backend, "sessions", cfg.Sessions.Backend)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func purgeSessions(ctx context.Context, auth *app.AuthService, every time.Duration, log *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				log.Warn("purge expired sessions", "err", err)
			}
		}
	}
}
