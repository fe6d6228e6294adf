package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/database"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// PaddingOrderRepository 刷单记录仓储
type PaddingOrderRepository struct {
	db *gorm.DB
}

// NewPaddingOrderRepository 创建刷单记录仓储
func NewPaddingOrderRepository(db *gorm.DB) *PaddingOrderRepository {
	return &PaddingOrderRepository{db: db}
}

// Create 创建刷单记录
func (r *PaddingOrderRepository) Create(ctx context.Context, order *models.PaddingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取刷单记录
func (r *PaddingOrderRepository) GetByID(ctx context.Context, id int64) (*models.PaddingOrder, error) {
	var order models.PaddingOrder
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByPeriod 获取下单时间落在 [start, end) 的刷单记录
func (r *PaddingOrderRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*models.PaddingOrder, error) {
	var orders []*models.PaddingOrder
	err := r.db.WithContext(ctx).
		Scopes(database.CreatedBetween("order_time", start, end), database.OrderByIDAsc).
		Find(&orders).Error
	return orders, err
}

// MarkEvaluated 标记为已评价，返回是否有记录被更新
func (r *PaddingOrderRepository) MarkEvaluated(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PaddingOrder{}).Where("id = ?", id).Update("evaluated", true)
	return result.RowsAffected > 0, result.Error
}
