package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/database"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// OperationalCostRepository 运营成本仓储
type OperationalCostRepository struct {
	db *gorm.DB
}

// NewOperationalCostRepository 创建运营成本仓储
func NewOperationalCostRepository(db *gorm.DB) *OperationalCostRepository {
	return &OperationalCostRepository{db: db}
}

// Create 创建运营成本
func (r *OperationalCostRepository) Create(ctx context.Context, cost *models.OperationalCost) error {
	return r.db.WithContext(ctx).Create(cost).Error
}

// GetByID 根据 ID 获取运营成本
func (r *OperationalCostRepository) GetByID(ctx context.Context, id int64) (*models.OperationalCost, error) {
	var cost models.OperationalCost
	err := r.db.WithContext(ctx).First(&cost, id).Error
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

// ListByPeriod 获取费用日期落在 [start, end) 的运营成本
// onlyAllocable 为 true 时只返回 active 且参与课程分摊的记录
func (r *OperationalCostRepository) ListByPeriod(ctx context.Context, start, end time.Time, onlyAllocable bool) ([]*models.OperationalCost, error) {
	var costs []*models.OperationalCost
	query := r.db.WithContext(ctx).Scopes(database.CreatedBetween("cost_date", start, end), database.OrderByIDAsc)
	if onlyAllocable {
		query = query.Where("status = ? AND allocated_to_courses = ?", models.OpCostStatusActive, true)
	}
	err := query.Find(&costs).Error
	return costs, err
}

// UpdateStatus 更新状态
func (r *OperationalCostRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.OperationalCost{}).Where("id = ?", id).Update("status", status).Error
}
