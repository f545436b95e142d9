package main

import (
	"Attestor/internal/api/config"
	"Attestor/internal/pkg/cron"
	"Attestor/internal/pkg/logger"
	"Attestor/internal/pkg/mongo"
	"Attestor/internal/pkg/redis"
	"Attestor/internal/pkg/solana"
	"Attestor/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	// 初始化日志
	logger.InitLogger(cfg.Logstash)

	// Mongo 连接
	db, err := mongo.InitMongo(cfg.Mongo)
	if err != nil {
		log.Error("Fatal error: failed to create mongo connection", "err", err)
		panic(err)
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = mongo.NewMediaSubmissionRepo(db, cfg.Mongo.Collection).EnsureIndexes(indexCtx)
	indexCancel()
	if err != nil {
		log.Error("Fatal error: failed to create mongo indexes", "err", err)
		panic(err)
	}

	// Redis 连接, 可选
	var rdb *redisv9.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.InitRedis(cfg.Redis)
		if err != nil {
			log.Error("Fatal error: failed to create redis connection", "err", err)
			panic(err)
		}
		defer func() {
			_ = rdb.Close()
		}()
	}

	// Solana 客户端, 仅在 SOLANA_REQUIRED=true 时失败退出
	ledger, err := solana.NewClient(cfg.Solana)
	if err != nil {
		log.Error("Fatal error: failed to initialize Solana", "err", err)
		panic(err)
	}

	// 依赖注入
	app, err := wire.BuildApplication(db, rdb, ledger, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}
	defer func() {
		if err := app.Publisher.Close(); err != nil {
			log.Error("Kafka producer close failed", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	err = cron.InitCron(app.CronMgr)
	if err != nil {
		log.Error("Fatal error: failed to start cron jobs", "err", err)
		panic(err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cron Jobs stopping...")
		app.CronMgr.Stop()
		return nil
	})

	// HTTP 服务器
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: app.Router,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "port", cfg.Server.Port, "solana", ledger.State().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}
	log.Info("App exited successfully.")
}
