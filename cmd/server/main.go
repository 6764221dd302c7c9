package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	httpapi "storefront/internal/http"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/seed"
	"storefront/internal/service"

	_ "storefront/docs"
)

// stores groups the repositories of one backing store
type stores struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	tx       repository.TxManager
	close    func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.StoreDriver == config.DriverPostgres {
		pool, err := repository.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pg := repository.NewPostgresStore(pool)
		return &stores{
			products: pg,
			carts:    repository.NewPostgresCarts(pg),
			orders:   repository.NewPostgresOrders(pg),
			users:    repository.NewPostgresUsers(pg),
			tx:       repository.NewPostgresTx(pg),
			close:    pool.Close,
		}, nil
	}
	mem := repository.NewMemoryStore()
	return &stores{
		products: mem,
		carts:    repository.NewMemoryCarts(mem),
		orders:   repository.NewMemoryOrders(mem),
		users:    repository.NewMemoryUsers(mem),
		tx:       repository.NewMemoryTx(mem),
		close:    func() {},
	}, nil
}

// @title Storefront API
// @version 1.0
// @description Catalog, cart, orders, accounts and sales analytics for the storefront.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := openStores(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.close()

	// nil leaves the catalog uncached
	var productCache cache.Cache
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedis(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, serving catalog uncached", "addr", cfg.RedisAddr, "error", err)
			_ = rdb.Close()
		} else {
			productCache = rdb
			defer rdb.Close()
		}
		cancel()
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderTopic)
		logger.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderTopic)
	}
	defer publisher.Close()

	if cfg.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	productsSvc := service.NewProductService(st.products, productCache, cfg.CacheTTL)
	usersSvc := service.NewUserService(st.users, st.tx, tokens)

	bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if cfg.SeedCatalog {
		n, err := seed.Catalog(bootCtx, productsSvc)
		if err != nil {
			logger.Error("seeding catalog failed", "error", err)
		} else if n > 0 {
			logger.Info("seeded catalog", "products", n)
		}
	}
	if cfg.AdminPassword != "" {
		if _, err := usersSvc.EnsureAdmin(bootCtx, cfg.AdminEmail, cfg.AdminPassword, "Administrator"); err != nil {
			logger.Error("ensuring admin account failed", "email", cfg.AdminEmail, "error", err)
		}
	}
	cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := httpapi.NewServer(httpapi.Deps{
		Products:    productsSvc,
		Carts:       service.NewCartService(st.carts, st.tx),
		Orders:      service.NewOrderService(st.orders, st.carts, st.products, st.tx, publisher, cfg.ServiceName, logger),
		Users:       usersSvc,
		Analytics:   service.NewAnalyticsService(st.products, st.orders, st.users),
		Tokens:      tokens,
		Logger:      logger,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Engine(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
