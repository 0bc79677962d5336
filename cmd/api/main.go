package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"coffeespot/internal/auth"
	"coffeespot/internal/chat"
	"coffeespot/internal/config"
	"coffeespot/internal/db"
	"coffeespot/internal/events"
	"coffeespot/internal/httpserver"
	"coffeespot/internal/logging"
	adminrepo "coffeespot/internal/repository/admin"
	cartrepo "coffeespot/internal/repository/cart"
	categoryrepo "coffeespot/internal/repository/category"
	chatrepo "coffeespot/internal/repository/chat"
	orderrepo "coffeespot/internal/repository/order"
	"coffeespot/internal/repository/outbox"
	productrepo "coffeespot/internal/repository/product"
	reviewrepo "coffeespot/internal/repository/review"
	tokenrepo "coffeespot/internal/repository/token"
	userrepo "coffeespot/internal/repository/user"
	accountsvc "coffeespot/internal/service/account"
	cartsvc "coffeespot/internal/service/cart"
	categorysvc "coffeespot/internal/service/category"
	chatsvc "coffeespot/internal/service/chat"
	ordersvc "coffeespot/internal/service/order"
	otpsvc "coffeespot/internal/service/otp"
	productsvc "coffeespot/internal/service/product"
	reviewsvc "coffeespot/internal/service/review"
	"coffeespot/internal/storage"
	"github.com/rs/zerolog"
)

const revokedPurgeInterval = time.Hour

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel, "api")
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("init storage")
	}

	userRepo := userrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	chatRepo := chatrepo.NewPostgres(dbpool)

	otpService := otpsvc.New(logger)
	accountService := accountsvc.New(accountsvc.Deps{
		Users:   userRepo,
		Admins:  adminrepo.NewPostgres(dbpool),
		Revoked: tokenrepo.NewPostgres(dbpool),
		Tokens:  auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Phones:  otpService,
		Storage: store,
	}, logger)

	if created, err := accountService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin")
	} else if created {
		logger.Info().Str("email", cfg.Admin.Email).Msg("bootstrap admin created")
	}

	hub := chat.NewHub(logger)
	chatService := chatsvc.New(chatRepo, chatRepo, hub, logger)
	gateway := chat.NewGateway(hub, chat.NewRouter(chatService, logger), cfg.CORSOrigins, logger)

	opts := httpserver.Options{
		CORSOrigins:    cfg.CORSOrigins,
		ExposeOTP:      cfg.IsDev(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if cfg.Storage.Provider == "local" {
		opts.StaticDir = cfg.Storage.LocalPath
		opts.StaticURL = cfg.Storage.LocalURL
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:  productsvc.New(productRepo, store, logger),
		CategorySvc: categorysvc.New(categoryrepo.NewPostgres(dbpool)),
		CartSvc:     cartsvc.New(cartrepo.NewPostgres(dbpool), userRepo),
		OrderSvc:    ordersvc.New(orderrepo.NewPostgres(dbpool, logger), logger),
		ReviewSvc:   reviewsvc.New(reviewrepo.NewPostgres(dbpool)),
		AccountSvc:  accountService,
		OTPSvc:      otpService,
		Chat:        gateway,
	}, opts)

	publisher := newPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("close publisher")
		}
	}()
	relay := events.NewRelay(outbox.NewPostgres(dbpool), publisher, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, logger)
	go relay.Run(ctx)
	go purgeRevoked(ctx, accountService, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if n := hub.CloseAll(shutdownCtx); n > 0 {
		logger.Info().Int("connections", n).Msg("websocket connections closed")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	logger.Info().Msg("server stopped")
}

func newPublisher(cfg config.KafkaConfig, logger zerolog.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Warn().Msg("no kafka brokers configured, order events are logged only")
		return events.LogPublisher{Logger: logger.With().Str("publisher", "log").Logger()}
	}
	logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.OrderTopic).Msg("publishing order events to kafka")
	return events.NewKafkaPublisher(cfg.Brokers, cfg.OrderTopic)
}

func purgeRevoked(ctx context.Context, svc *accountsvc.Service, logger zerolog.Logger) {
	ticker := time.NewTicker(revokedPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeRevoked(ctx)
			if err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("purge revoked tokens")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("purged", n).Msg("revoked tokens purged")
			}
		}
	}
}
