package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
)

// 任务名
const (
	TaskRefreshDividendSummaries = "refresh_dividend_summaries"
	TaskWarmSettingCache         = "warm_setting_cache"
)

// SummaryRefresher 重算股东分红汇总
type SummaryRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// SettingWarmer 预热业务配置缓存
type SettingWarmer interface {
	Warm(ctx context.Context) error
}

// TaskHandler 任务处理器
type TaskHandler struct {
	summaries SummaryRefresher
	settings  SettingWarmer
	logger    *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(summaries SummaryRefresher, settings SettingWarmer, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		summaries: summaries,
		settings:  settings,
		logger:    logger.OrDefault(log).With(logger.Module("scheduler")),
	}
}

// RefreshDividendSummaries 按分红记录重算所有股东的汇总
func (h *TaskHandler) RefreshDividendSummaries(ctx context.Context) error {
	count, err := h.summaries.RefreshAll(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("股东分红汇总已刷新", zap.Int("shareholders", count))
	return nil
}

// WarmSettingCache 把配置表写入缓存
func (h *TaskHandler) WarmSettingCache(ctx context.Context) error {
	return h.settings.Warm(ctx)
}

// Register 按配置把任务注册到调度器，未配置依赖的任务不注册
func (h *TaskHandler) Register(s *Scheduler, cfg *config.SchedulerConfig) {
	if h.summaries != nil {
		s.AddTask(TaskRefreshDividendSummaries, minutes(cfg.SummaryRefreshInterval), h.RefreshDividendSummaries)
	}
	if h.settings != nil {
		s.AddTask(TaskWarmSettingCache, minutes(cfg.SettingWarmInterval), h.WarmSettingCache)
	}
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
