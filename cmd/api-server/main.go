package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careslot/careslot/internal/api"
	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/config"
	"github.com/careslot/careslot/internal/db"
	redisclient "github.com/careslot/careslot/internal/redis"
	"github.com/careslot/careslot/internal/scheduling"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	schemaCtx, cancelSchema := context.WithTimeout(rootCtx, 10*time.Second)
	err = db.EnsureSchema(schemaCtx, pgPool)
	cancelSchema()
	if err != nil {
		log.Fatalf("schema error: %v", err)
	}

	// Without Redis the service falls back to the in-memory availability
	// cache and an in-process slot lock; both are only safe for a single
	// API instance.
	var rdb *redis.Client
	var cache scheduling.AvailabilityCache
	var locker redisclient.Locker

	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		log.Println("connected to Redis")

		cache = scheduling.NewRedisCache(rdb, cfg.CacheTTL)
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	} else {
		log.Println("no Redis configured, using in-memory cache and lock")
		cache = scheduling.NewMemoryCache()
		locker = redisclient.NewLocalSlotLocker()
	}

	slotRepo := scheduling.NewPgSlotRepository(pgPool)
	bookingRepo := scheduling.NewPgBookingRepository(pgPool)
	schedSvc := scheduling.NewService(slotRepo, bookingRepo, cache, locker)

	userRepo := auth.NewPgUserRepository(pgPool)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(userRepo, tokens)

	router := api.NewRouter(api.RouterConfig{
		Scheduling:      schedSvc,
		Auth:            authSvc,
		PgPool:          pgPool,
		Redis:           rdb,
		Env:             cfg.Env,
		Version:         version,
		LoginRatePerMin: cfg.LoginRatePerMin,
		BookRatePerMin:  cfg.BookRatePerMin,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
