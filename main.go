package main

import (
	"context"

	"auction-house/internal/blacklist"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/config"
	"auction-house/internal/eligibility"
	"auction-house/internal/lifecycle"
	"auction-house/internal/queue"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	handler "auction-house/services/auction/handler"
	"auction-house/utils"

	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		utils.Fatal("failed to open database", map[string]any{"db_path": cfg.DBPath, "error": err.Error()})
	}
	repo := repository.NewGormRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		utils.Fatal("failed to migrate database", map[string]any{"error": err.Error()})
	}

	var rdb *rd.Client
	if cfg.RedisAddr != "" {
		rdb = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	}

	var notifier bidding.OutbidNotifier
	if len(cfg.KafkaBrokers) > 0 {
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		notifier = producer
	}

	bans := blacklist.NewManager(repo)
	gate := eligibility.NewGate(repo, bans)
	biddingSvc := bidding.NewBiddingService(repo, gate, notifier)
	lifecycleMgr := lifecycle.NewManager(repo, bans, cfg.UnpaidBanDuration)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lifecycleMgr.Run(ctx, cfg.SweepInterval)

	auctionHandler := handler.NewAuctionHandler(biddingSvc, lifecycleMgr, bans, repo)
	router := server.SetupRouter(auctionHandler, rdb, cfg)

	utils.Info("starting auction server", map[string]any{
		"addr":           cfg.HTTPAddr,
		"rate_limiting":  rdb != nil,
		"outbid_events":  notifier != nil,
		"sweep_interval": cfg.SweepInterval.String(),
	})
	if err := router.Run(cfg.HTTPAddr); err != nil {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
}
