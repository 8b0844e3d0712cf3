// Command reconcile recomputes every chat's unread counters from the
// messages collection and overwrites any drifted values. Run it as a
// one-off repair or from cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lizzietrust/chat-backend/internal/config"
	"github.com/lizzietrust/chat-backend/internal/logger"
	"github.com/lizzietrust/chat-backend/internal/repository"
	"github.com/lizzietrust/chat-backend/internal/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := repository.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer store.Disconnect(context.Background())

	svc := service.NewReconcileService(
		repository.NewChatRepository(store),
		repository.NewMessageRepository(store),
		log,
	)

	repaired, err := svc.ReconcileAll(ctx)
	if err != nil {
		log.Fatalf("reconcile: %v", err)
	}
	log.Infof("reconcile finished, %d counters repaired", repaired)
}
