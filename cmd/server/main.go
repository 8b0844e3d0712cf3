package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lizzietrust/chat-backend/internal/cache"
	"github.com/lizzietrust/chat-backend/internal/config"
	"github.com/lizzietrust/chat-backend/internal/events"
	"github.com/lizzietrust/chat-backend/internal/handlers"
	"github.com/lizzietrust/chat-backend/internal/logger"
	"github.com/lizzietrust/chat-backend/internal/middleware"
	"github.com/lizzietrust/chat-backend/internal/presence"
	"github.com/lizzietrust/chat-backend/internal/repository"
	"github.com/lizzietrust/chat-backend/internal/service"
	"github.com/lizzietrust/chat-backend/internal/token"
	"github.com/lizzietrust/chat-backend/internal/ws"
)

const (
	presenceInterval  = 60 * time.Second
	reconcileInterval = 10 * time.Minute
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Development())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Infof("starting chat-backend (env=%s)", cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mongo
	store, err := repository.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// repositories
	users := repository.NewUserRepository(store)
	chats := repository.NewChatRepository(store)
	messages := repository.NewMessageRepository(store)

	// infrastructure
	tokens := token.NewManager(cfg.JWT.Secret, cfg.TokenTTL)
	pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	recent := cache.NewRecent(rdb, cfg.Redis.Prefix)
	registry := presence.NewMemory()
	mirror := presence.NewMirror(rdb, cfg.Redis.Prefix, 24*time.Hour)
	hub := ws.NewHub(log)

	// services
	authSvc := service.NewAuthService(users, tokens)
	userSvc := service.NewUserService(users)
	chatSvc := service.NewChatService(chats, messages, recent, pub, hub, log)
	channelSvc := service.NewChannelService(chats, hub, log)
	messageSvc := service.NewMessageService(chats, messages, recent, pub, hub, log)
	presenceSvc := service.NewPresenceService(users, registry, mirror, hub, log)
	reconcileSvc := service.NewReconcileService(chats, messages, log)

	go presenceSvc.Run(ctx, presenceInterval)
	go reconcileSvc.Run(ctx, reconcileInterval)

	// http
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	router := &handlers.Router{
		Auth:       handlers.NewAuthHandler(authSvc, cfg.JWT.CookieName, cfg.TokenTTL, cfg.JWT.SecureCookies),
		Users:      handlers.NewUserHandler(userSvc),
		Chats:      handlers.NewChatHandler(chatSvc),
		Messages:   handlers.NewMessageHandler(messageSvc),
		Channels:   handlers.NewChannelHandler(channelSvc),
		WS:         ws.NewHandler(hub, tokens, presenceSvc, messageSvc, chatSvc, cfg.JWT.CookieName, log),
		Tokens:     tokens,
		CookieName: cfg.JWT.CookieName,
		CORSOrigin: cfg.Server.CORSOrigin,
		Limiter:    middleware.NewRateLimiter(rdb, cfg.Redis.Prefix, cfg.RateLimit.PerMinute, time.Minute),
	}
	router.Mount(app)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = app.Shutdown()
	_ = pub.Close()
	_ = store.Disconnect(shutCtx)
	_ = rdb.Close()
	log.Info("shutdown complete")
}
