package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/cache"
	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/common/metrics"
	courseHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/course"
	financeHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/finance"
	opcostHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/opcost"
	paddingHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/padding"
	settingHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/setting"
	staffHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/staff"
	"github.com/dumeirei/tutor-finance-backend/internal/middleware"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	courseService "github.com/dumeirei/tutor-finance-backend/internal/service/course"
	financeService "github.com/dumeirei/tutor-finance-backend/internal/service/finance"
	opcostService "github.com/dumeirei/tutor-finance-backend/internal/service/opcost"
	paddingService "github.com/dumeirei/tutor-finance-backend/internal/service/padding"
	settingService "github.com/dumeirei/tutor-finance-backend/internal/service/setting"
	staffService "github.com/dumeirei/tutor-finance-backend/internal/service/staff"
)

// apiPrefix 业务接口前缀
const apiPrefix = "/api/v1"

// services 供调度器等后台任务使用的服务
type services struct {
	settings  *settingService.Service
	dividends *financeService.DividendService
}

// setupRouter 设置路由，m 为 nil 时不采集指标
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
) *services {
	// 初始化仓储
	customerRepo := repository.NewCustomerRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	paddingRepo := repository.NewPaddingOrderRepository(db)
	opCostRepo := repository.NewOperationalCostRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// 初始化服务
	settingCache := cache.NewJSONCache(redisClient)
	settingTTL := time.Duration(cfg.Redis.SettingTTL) * time.Second
	settingSvc := settingService.NewService(settingRepo, settingCache, settingTTL, m, logger)

	reportSvc := financeService.NewReportService(courseRepo, paddingRepo, opCostRepo, employeeRepo, settingSvc, m, logger)
	dividendSvc := financeService.NewDividendService(db, dividendRepo, reportSvc, settingSvc, m, logger)
	commissionSvc := financeService.NewCommissionService(courseRepo, employeeRepo, settingSvc, logger)

	courseSvc := courseService.NewService(db, customerRepo, courseRepo, employeeRepo, settingSvc, logger)
	paddingSvc := paddingService.NewService(paddingRepo, settingSvc, logger)
	opcostSvc := opcostService.NewService(opCostRepo, logger)
	staffSvc := staffService.NewService(employeeRepo, logger)

	// 初始化处理器
	financeH := financeHandler.NewHandler(reportSvc, dividendSvc, commissionSvc)
	courseH := courseHandler.NewHandler(courseSvc)
	paddingH := paddingHandler.NewHandler(paddingSvc)
	opcostH := opcostHandler.NewHandler(opcostSvc)
	staffH := staffHandler.NewHandler(staffSvc)
	settingH := settingHandler.NewHandler(settingSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(&cfg.CORS))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	r.Use(middleware.AccessLog(logger))
	if m != nil {
		r.Use(m.WithSkipPath(cfg.Metrics.Path).Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	if !cfg.IsRelease() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 业务接口
	api := r.Group(apiPrefix)
	api.Use(middleware.RequestSizeLimiter(1 << 20))
	api.Use(middleware.WriteOnly(middleware.RateLimit(middleware.NewRateLimitConfig(&cfg.RateLimit, redisClient))))
	{
		financeH.RegisterRoutes(api)
		courseH.RegisterRoutes(api)
		paddingH.RegisterRoutes(api)
		opcostH.RegisterRoutes(api)
		staffH.RegisterRoutes(api)
		settingH.RegisterRoutes(api)
	}

	return &services{
		settings:  settingSvc,
		dividends: dividendSvc,
	}
}
