package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/online_restaurant/internal/config"
	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/httpserver"
	"github.com/Skotchmaster/online_restaurant/internal/media"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/auth"
	"github.com/Skotchmaster/online_restaurant/internal/middleware/csrf"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/internal/search"
	"github.com/Skotchmaster/online_restaurant/internal/service"
	"github.com/Skotchmaster/online_restaurant/internal/session"
	"github.com/Skotchmaster/online_restaurant/pkg/db"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
	loggingmw "github.com/Skotchmaster/online_restaurant/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not loaded (%v), using process environment", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL, db.DefaultPool())
	if err == nil {
		err = repo.Migrate(initCtx, gdb, models.DefaultCapacities)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	Repo := &repo.GormRepo{DB: gdb}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	var pub events.Publisher = events.Nop{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		pub = kafkaPub
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index search.Index
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch client: %v", err)
		}
		index = search.NewESIndex(es)
	} else {
		logger.Warn("search_index_disabled", "reason", "ES_URL is empty")
	}

	images, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}

	accounts := &service.AccountService{Repo: Repo, Events: pub}
	if _, err := accounts.SeedAdmin(ctx, cfg.AdminNickname, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	orders := &service.OrderService{Repo: Repo, Events: pub}
	authMW := auth.New(cfg.JWTSecret, cfg.AuthTTL, cfg.CookieSecure)
	authMW.Users = accounts

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger, "/health/live", "/health/ready"))
	e.Use(middleware.BodyLimit("16M"))

	httpserver.Register(e, &httpserver.Deps{
		Account: &httpserver.AccountHTTP{Svc: accounts, Auth: authMW},
		Menu: &httpserver.MenuHTTP{Svc: &service.MenuService{
			Repo: Repo, Images: images, Index: index, Events: pub,
		}},
		Basket: &httpserver.BasketHTTP{Orders: orders},
		Orders: &httpserver.OrderHTTP{Svc: orders},
		Reservations: &httpserver.ReservationHTTP{Svc: &service.ReservationService{
			Repo: Repo, Fence: cfg.Fence, Events: pub,
		}},
		Auth:     authMW,
		Sessions: session.NewRedisStore(rdb, cfg.SessionTTL),
		SessionCookie: session.CookieConfig{
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionTTL,
		},
		CSRF:     csrf.DefaultConfig(),
		MediaDir: cfg.MediaDir,
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx, gdb); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})

	go func() {
		logger.Info("server_start", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("server_shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka_close", "error", err)
		}
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis_close", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close", "error", err)
		}
	}
	logger.Info("server_stopped")
}
