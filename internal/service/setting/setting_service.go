// Package setting 提供业务配置的读取、校验与缓存
package setting

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/cache"
	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/metrics"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	"github.com/dumeirei/tutor-finance-backend/internal/service/finance"
)

// Service 业务配置服务
type Service struct {
	repo    *repository.SettingRepository
	cache   *cache.JSONCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService 创建业务配置服务，cache 为 nil 或未启用时直接读库
func NewService(repo *repository.SettingRepository, c *cache.JSONCache, ttl time.Duration, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		logger:  logger.OrDefault(log).With(logger.Module("setting")),
	}
}

// GetAll 获取全部配置
func (s *Service) GetAll(ctx context.Context) (map[string]string, error) {
	if s.cache.Enabled() {
		var values map[string]string
		hit, err := s.cache.Get(ctx, cache.KeySettingAll, &values)
		switch {
		case err != nil:
			s.metrics.RecordSettingCache("error")
			s.logger.Warn("读取配置缓存失败", logger.Err(err))
		case hit:
			s.metrics.RecordSettingCache("hit")
			return values, nil
		default:
			s.metrics.RecordSettingCache("miss")
		}
	}
	return s.load(ctx)
}

// load 从库中读取并回填缓存
func (s *Service) load(ctx context.Context) (map[string]string, error) {
	values, err := s.repo.GetMap(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := s.cache.Set(ctx, cache.KeySettingAll, values, s.ttl); err != nil {
		s.logger.Warn("写入配置缓存失败", logger.Err(err))
	}
	return values, nil
}

// Effective 解析后的配置
func (s *Service) Effective(ctx context.Context) (*finance.EffectiveConfig, error) {
	values, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return finance.ParseEffectiveConfig(values)
}

// Products 刷单商品列表
func (s *Service) Products(ctx context.Context) ([]string, error) {
	cfg, err := s.Effective(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.Products, nil
}

// Update 批量更新配置
//
// 合并后的配置必须仍能解析，否则不写入任何键。未识别的键照常保存。
func (s *Service) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, errors.ErrInvalidParams.WithMessage("没有需要更新的配置")
	}
	for key := range values {
		if strings.TrimSpace(key) == "" {
			return nil, errors.ErrSettingInvalid.WithMessage("配置键不能为空")
		}
	}

	current, err := s.repo.GetMap(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	merged := make(map[string]string, len(current)+len(values))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = strings.TrimSpace(v)
	}
	if _, err := finance.ParseEffectiveConfig(merged); err != nil {
		return nil, err
	}

	updates := make(map[string]string, len(values))
	for k := range values {
		updates[k] = merged[k]
	}
	if err := s.repo.BatchUpsert(ctx, updates); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	s.logger.Info("业务配置已更新", logger.Any("keys", keys))
	return merged, nil
}

// SeedDefaults 写入缺失的默认配置，已存在的键保持不变
func (s *Service) SeedDefaults(ctx context.Context, defaults map[string]string) (int64, error) {
	n, err := s.repo.InsertMissing(ctx, defaults)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if n > 0 {
		s.invalidate(ctx)
		s.logger.Info("已写入默认配置", logger.Int64("count", n))
	}
	return n, nil
}

// Warm 重新加载配置到缓存
func (s *Service) Warm(ctx context.Context) error {
	if !s.cache.Enabled() {
		return nil
	}
	_, err := s.load(ctx)
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.KeySettingAll); err != nil {
		s.logger.Warn("清除配置缓存失败", logger.Err(err))
	}
}
