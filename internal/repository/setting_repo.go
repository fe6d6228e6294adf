// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// SettingRepository 业务配置仓储
type SettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建业务配置仓储
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetAll 获取全部配置项，按键排序
func (r *SettingRepository) GetAll(ctx context.Context) ([]*models.Setting, error) {
	var settings []*models.Setting
	err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings).Error
	return settings, err
}

// GetMap 以 map 形式获取全部配置
func (r *SettingRepository) GetMap(ctx context.Context) (map[string]string, error) {
	settings, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}
	return values, nil
}

// GetByKey 根据键获取配置
func (r *SettingRepository) GetByKey(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where(&models.Setting{Key: key}).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// BatchUpsert 在一个事务内批量写入配置，已存在的键覆盖值
func (r *SettingRepository) BatchUpsert(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(toSettings(values)).Error
	})
}

// InsertMissing 只写入尚不存在的键，返回实际写入的数量
func (r *SettingRepository) InsertMissing(ctx context.Context, values map[string]string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(toSettings(values))
	return result.RowsAffected, result.Error
}

func toSettings(values map[string]string) []*models.Setting {
	settings := make([]*models.Setting, 0, len(values))
	for k, v := range values {
		settings = append(settings, &models.Setting{Key: k, Value: v})
	}
	return settings
}
