package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/shop-service/internal/auth"
	"github.com/vasiliy-maslov/shop-service/internal/cache"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/config"
	"github.com/vasiliy-maslov/shop-service/internal/db"
	shophttp "github.com/vasiliy-maslov/shop-service/internal/handler/http"
	"github.com/vasiliy-maslov/shop-service/internal/order"
	"github.com/vasiliy-maslov/shop-service/internal/product"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Info().Str("env", cfg.App.Env).Msg("Starting shop-service...")

	if migrateOnStart {
		if err := db.Migrate(cfg.Postgres, db.Up); err != nil {
			return err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pg, err := db.New(connectCtx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	catalogCache, closeCache := connectCache(connectCtx, cfg.Redis)
	defer closeCache()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userRepo := user.NewRepository(pg.DB)
	productRepo := product.NewRepository(pg.DB)
	cartRepo := cart.NewRepository(pg.DB)
	orderRepo := order.NewRepository(pg.DB)

	products := product.NewService(productRepo, catalogCache, cfg.Redis.TTL)

	router := shophttp.NewRouter(shophttp.Dependencies{
		Users:    user.NewService(userRepo, tokens),
		Products: products,
		Carts:    cart.NewService(cartRepo),
		Orders:   order.NewService(orderRepo),
		Placer:   order.NewPlacer(cartRepo, products, orderRepo),
		Tokens:   tokens,
		DB:       pg,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("shop-service stopped gracefully")
	return nil
}

// connectCache falls back to no caching when Redis is not configured or
// unreachable at startup.
func connectCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, func()) {
	noop := func() {}

	if cfg.Addr == "" {
		log.Info().Msg("Redis address not set, catalog cache disabled")
		return cache.Noop{}, noop
	}

	client, err := cache.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, catalog cache disabled")
		return cache.Noop{}, noop
	}

	return cache.NewRedis(client), func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}
