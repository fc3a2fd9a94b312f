package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	cartapp "github.com/anuragm04/storefront/internal/cart/application"
	carthttp "github.com/anuragm04/storefront/internal/cart/infrastructure/http"
	cartmemory "github.com/anuragm04/storefront/internal/cart/infrastructure/memory"
	cartredis "github.com/anuragm04/storefront/internal/cart/infrastructure/redis"
	catalogapp "github.com/anuragm04/storefront/internal/catalog/application"
	catalogdom "github.com/anuragm04/storefront/internal/catalog/domain"
	cataloghttp "github.com/anuragm04/storefront/internal/catalog/infrastructure/http"
	catalogpg "github.com/anuragm04/storefront/internal/catalog/infrastructure/postgres"
	"github.com/anuragm04/storefront/internal/config"
	identityapp "github.com/anuragm04/storefront/internal/identity/application"
	identityauth "github.com/anuragm04/storefront/internal/identity/auth"
	identityhttp "github.com/anuragm04/storefront/internal/identity/infrastructure/http"
	identitypg "github.com/anuragm04/storefront/internal/identity/infrastructure/postgres"
	orderjson "github.com/anuragm04/storefront/internal/order/infrastructure/jsonfile"
	orderkafka "github.com/anuragm04/storefront/internal/order/infrastructure/kafka"
	orderpg "github.com/anuragm04/storefront/internal/order/infrastructure/postgres"
	"github.com/anuragm04/storefront/pkg/idempotency"
	"github.com/anuragm04/storefront/pkg/logging"
	"github.com/anuragm04/storefront/pkg/middleware"
	"github.com/anuragm04/storefront/pkg/outbox"
	"github.com/anuragm04/storefront/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis: cart backend and checkout idempotency keys.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	// Catalog
	catalogRepo := catalogpg.NewRepository(log, pool)
	if err := catalogRepo.EnsureSchema(ctx); err != nil {
		log.Error("catalog schema failed", "err", err)
		os.Exit(1)
	}
	catalogSvc := catalogapp.NewService(log, catalogRepo)

	// Identity
	userRepo := identitypg.NewRepository(log, pool)
	if err := userRepo.EnsureSchema(ctx); err != nil {
		log.Error("users schema failed", "err", err)
		os.Exit(1)
	}
	jwtManager := identityauth.NewManager(cfg.JWTSecret, cfg.TokenExpiry)
	identitySvc := identityapp.NewService(log, userRepo, jwtManager)

	// Order log
	var orderLog cartapp.OrderLog
	switch cfg.OrderLogBackend {
	case "jsonfile":
		fileLog := orderjson.NewOrderLog(cfg.OrderLogPath)
		if err := fileLog.EnsureDir(); err != nil {
			log.Error("order log dir failed", "err", err)
			os.Exit(1)
		}
		orderLog = fileLog
	default:
		pgLog := orderpg.NewOrderLog(log, pool)
		if err := pgLog.EnsureSchema(ctx); err != nil {
			log.Error("order schema failed", "err", err)
			os.Exit(1)
		}
		orderLog = pgLog

		// OrderPlaced events only flow when orders land in Postgres,
		// where the outbox rows share the order's transaction.
		writer := orderkafka.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()
		dispatch := outbox.NewDispatcher(log, writer, cfg.OrdersTopic)
		relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), dispatch, "storefront-relay")
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	}

	// Cart store
	var carts cartapp.CartStore
	if cfg.CartBackend == "redis" {
		carts = cartredis.NewStore(rdb, cfg.CartTTL())
	} else {
		carts = cartmemory.NewStore()
	}

	cartSvc := cartapp.NewService(log, carts, catalogRepo, orderLog)
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	// Seed a default admin and sample products so a fresh instance works
	// out of the box.
	if err := identitySvc.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if cfg.SeedCatalog {
		if err := catalogSvc.Seed(ctx, sampleProducts()); err != nil {
			log.Error("catalog seed failed", "err", err)
			os.Exit(1)
		}
	}

	// Handlers
	identityHandler := identityhttp.NewHandler(log, identitySvc)
	catalogHandler := cataloghttp.NewHandler(log, catalogSvc)
	cartHandler := carthttp.NewHandler(log, cartSvc, idem)

	authn := identityhttp.Authenticate(identitySvc.Validate)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.ProcessTime)
	r.Use(middleware.CountRequests)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"welcome to the storefront API"}`))
	})
	r.Handle("/metrics", middleware.MetricsHandler())
	r.Mount("/users", identityHandler.Routes())
	r.Get("/products", catalogHandler.ListProducts)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Mount("/cart", cartHandler.Routes())
	})
	r.Group(func(r chi.Router) {
		r.Use(authn, identityhttp.RequireAdmin)
		r.Post("/products", catalogHandler.CreateProduct)
		r.Post("/admin/products", catalogHandler.CreateProduct)
		r.Get("/admin/orders", cartHandler.ListOrders)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("storefront shutdown complete")
}

// sampleProducts mirrors the catalog a fresh instance is seeded with.
func sampleProducts() []catalogdom.Product {
	return []catalogdom.Product{
		catalogdom.NewProduct("prod-laptop", "Laptop", 99999, 10),
		catalogdom.NewProduct("prod-smartphone", "Smartphone", 49999, 20),
		catalogdom.NewProduct("prod-headphones", "Headphones", 9999, 30),
	}
}
