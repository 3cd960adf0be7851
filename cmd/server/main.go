package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/pharmakart/pharmacy-api/internal/config"
	httpctrl "github.com/pharmakart/pharmacy-api/internal/controllers/http"
	mmysql "github.com/pharmakart/pharmacy-api/internal/infra/mysql"
	"github.com/pharmakart/pharmacy-api/internal/infra/rabbitmq"
	"github.com/pharmakart/pharmacy-api/internal/notify"
	mysqlrepo "github.com/pharmakart/pharmacy-api/internal/repository/mysql"
	"github.com/pharmakart/pharmacy-api/internal/services"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg := config.Load()

	db, err := mmysql.NewMySQLFromEnv()
	if err != nil {
		zlog.Fatal().Err(err).Msg("db: connect")
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	catalogRepo := mysqlrepo.NewCatalogRepository(db)
	orderRepo := mysqlrepo.NewOrderRepository(db)

	mailer := notify.NewSMTPMailer(cfg.SMTP, cfg.FromEmail)
	notifier := notify.New(notify.Config{
		From:       cfg.FromEmail,
		AdminEmail: cfg.AdminEmail,
	}, mailer, zlog.Logger)

	var publisher rabbitmq.PublisherInterface
	if cfg.AMQPURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.AMQPURL, "order.exchange")
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to init publisher")
		}
		defer pub.Close()
		publisher = pub
	} else {
		zlog.Warn().Msg("RABBITMQ_URL not set, order events disabled")
	}

	catalogSvc := services.NewCatalogService(catalogRepo)
	orderSvc := services.NewOrderService(orderRepo, publisher, notifier)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DB:           0,
		PoolSize:     50,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	catalogSvc.SetRedisClient(redisClient)
	orderSvc.SetRedisClient(redisClient)

	handler := httpctrl.NewHandler(catalogSvc, orderSvc, notifier, cfg.JWTSecret)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Msg("starting pharmacy api")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server run")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
