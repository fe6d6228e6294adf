package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// DividendRepository 分红记录与汇总仓储
type DividendRepository struct {
	db *gorm.DB
}

// NewDividendRepository 创建分红仓储
func NewDividendRepository(db *gorm.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *DividendRepository) WithTx(tx *gorm.DB) *DividendRepository {
	return &DividendRepository{db: tx}
}

// Create 创建分红记录
func (r *DividendRepository) Create(ctx context.Context, record *models.DividendRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID 根据 ID 获取分红记录
func (r *DividendRepository) GetByID(ctx context.Context, id int64) (*models.DividendRecord, error) {
	var record models.DividendRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByMonth 获取某月全部股东的分红记录
func (r *DividendRepository) ListByMonth(ctx context.Context, year, month int) ([]*models.DividendRecord, error) {
	var records []*models.DividendRecord
	err := r.db.WithContext(ctx).
		Where("period_year = ? AND period_month = ?", year, month).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// UpdateFields 更新指定字段
func (r *DividendRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.DividendRecord{}).Where("id = ?", id).Updates(fields).Error
}

// DividendFilter 分红记录过滤条件
type DividendFilter struct {
	ShareholderName string
	Year            int
	Month           int
	Status          string
}

// List 分页获取分红记录
func (r *DividendRepository) List(ctx context.Context, filter *DividendFilter, offset, limit int) ([]*models.DividendRecord, int64, error) {
	var records []*models.DividendRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DividendRecord{})
	if filter != nil {
		if filter.ShareholderName != "" {
			query = query.Where("shareholder_name = ?", filter.ShareholderName)
		}
		if filter.Year > 0 {
			query = query.Where("period_year = ?", filter.Year)
		}
		if filter.Month > 0 {
			query = query.Where("period_month = ?", filter.Month)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("period_year DESC, period_month DESC, id ASC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByShareholder 获取股东全部分红记录
func (r *DividendRepository) ListByShareholder(ctx context.Context, name string) ([]*models.DividendRecord, error) {
	var records []*models.DividendRecord
	err := r.db.WithContext(ctx).Where("shareholder_name = ?", name).Order("id ASC").Find(&records).Error
	return records, err
}

// ListShareholderNames 获取出现过的股东名称
func (r *DividendRepository) ListShareholderNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.DividendRecord{}).
		Distinct("shareholder_name").
		Order("shareholder_name ASC").
		Pluck("shareholder_name", &names).Error
	return names, err
}

// GetSummary 获取股东汇总
func (r *DividendRepository) GetSummary(ctx context.Context, name string) (*models.DividendSummary, error) {
	var summary models.DividendSummary
	err := r.db.WithContext(ctx).Where("shareholder_name = ?", name).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// SaveSummary 保存股东汇总，新记录则创建
func (r *DividendRepository) SaveSummary(ctx context.Context, summary *models.DividendSummary) error {
	if summary.ID == 0 {
		return r.db.WithContext(ctx).Create(summary).Error
	}
	return r.db.WithContext(ctx).Save(summary).Error
}

// ListSummaries 获取全部股东汇总
func (r *DividendRepository) ListSummaries(ctx context.Context) ([]*models.DividendSummary, error) {
	var summaries []*models.DividendSummary
	err := r.db.WithContext(ctx).Order("shareholder_name ASC").Find(&summaries).Error
	return summaries, err
}
