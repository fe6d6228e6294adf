// Package main 是应用程序入口
//
// @title 英语辅导财务系统 API
// @version 1.0
// @description 客户、课程、刷单、运营成本、员工提成与股东分红的财务核算接口
// @BasePath /
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/cache"
	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/common/database"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/metrics"
	"github.com/dumeirei/tutor-finance-backend/internal/common/tracing"
	"github.com/dumeirei/tutor-finance-backend/internal/scheduler"
)

// version 构建时通过 -ldflags 注入
var version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.GetLogger()
	log.Info("Starting Tutor Finance Backend",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
	)

	// 金额以 JSON 数字输出
	decimal.MarshalJSONWithoutQuotes = true

	// 初始化链路追踪
	tracer, err := tracing.Init(tracing.FromConfig(&cfg.Tracing, version, cfg.Server.Mode))
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// 初始化 Redis 连接，连接失败时降级为直接读库
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.Init(&cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		} else {
			log.Info("Redis connected successfully")
		}
	}

	// 初始化指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	svcs := setupRouter(engine, cfg, log, db, redisClient, m)

	// 写入缺失的默认业务配置
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := svcs.settings.SeedDefaults(seedCtx, cfg.Business.Defaults); err != nil {
		log.Fatal("Failed to seed default settings", zap.Error(err))
	}
	seedCancel()

	// 启动定时任务
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(log)
		scheduler.NewTaskHandler(svcs.dividends, svcs.settings, log).Register(sched, &cfg.Scheduler)
		sched.Start()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown tracer", zap.Error(err))
	}
	if err := cache.Close(); err != nil {
		log.Error("Failed to close redis", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Server exited")
}
