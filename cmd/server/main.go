package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/ecoshop/internal/config"
	"github.com/Skotchmaster/ecoshop/internal/events"
	"github.com/Skotchmaster/ecoshop/internal/httpserver"
	"github.com/Skotchmaster/ecoshop/internal/metrics"
	"github.com/Skotchmaster/ecoshop/internal/middleware/auth"
	"github.com/Skotchmaster/ecoshop/internal/repo"
	"github.com/Skotchmaster/ecoshop/internal/repo/mongostore"
	"github.com/Skotchmaster/ecoshop/internal/revocation"
	"github.com/Skotchmaster/ecoshop/internal/service"
	"github.com/Skotchmaster/ecoshop/internal/tokens"
	pkgdb "github.com/Skotchmaster/ecoshop/pkg/db"
	"github.com/Skotchmaster/ecoshop/pkg/hash"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
	loggingmw "github.com/Skotchmaster/ecoshop/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("store open: %v", err)
	}

	publisher := newPublisher(cfg, logger)
	revoked := newRevocationStore(cfg, logger)

	tokenSvc := tokens.NewService([]byte(cfg.JWTSecret))
	users := &service.UserService{
		Repo:    store,
		Hasher:  hash.NewHasher(cfg.BcryptCost),
		Tokens:  tokenSvc,
		Revoked: revoked,
		Events:  publisher,
	}

	if cfg.SeedAdmin() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		admin, err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		logger.Info("admin_ready", "user_id", admin.ID.String(), "email", admin.Email)
	}

	m := metrics.New("ecoshop")

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		Users:    &httpserver.UsersHTTP{Svc: users},
		Products: &httpserver.ProductsHTTP{Svc: &service.ProductService{Repo: store, Events: publisher}},
		Orders:   &httpserver.OrdersHTTP{Svc: &service.OrderService{Repo: store, Events: publisher}},
		Auth:     auth.New(tokenSvc, revoked),
		Store:    store,
		Metrics:  m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("store_close_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("publisher_close_error", "error", err)
	}
	if err := revoked.Close(); err != nil {
		logger.Error("revocation_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

func openStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMongo {
		return mongostore.Connect(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	}

	db, err := pkgdb.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	r := repo.NewGormRepo(db)
	if err := r.Migrate(ctx); err != nil {
		_ = pkgdb.Close(db)
		return nil, err
	}
	return r, nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS is empty")
		return events.Noop{}
	}
	p, err := events.NewProducer(brokers)
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}
	return p
}

func newRevocationStore(cfg *config.Config, logger *slog.Logger) revocation.Store {
	if cfg.RedisAddr == "" {
		logger.Info("revocation_in_memory", "reason", "REDIS_ADDR is empty")
		return revocation.NewMemory()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := revocation.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return r
}
