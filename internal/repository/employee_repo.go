package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/tutor-finance-backend/internal/common/database"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// EmployeeRepository 员工与提成配置仓储
type EmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create 创建员工
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

// GetByID 根据 ID 获取员工
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).Preload("CommissionConfig").First(&employee, id).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListAll 获取全部员工（含提成配置），按 ID 升序
func (r *EmployeeRepository) ListAll(ctx context.Context) ([]*models.Employee, error) {
	var employees []*models.Employee
	err := r.db.WithContext(ctx).Preload("CommissionConfig").Scopes(database.OrderByIDAsc).Find(&employees).Error
	return employees, err
}

// GetCommissionConfig 获取员工提成配置
func (r *EmployeeRepository) GetCommissionConfig(ctx context.Context, employeeID int64) (*models.CommissionConfig, error) {
	var cfg models.CommissionConfig
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertCommissionConfig 写入提成配置，每个员工只有一条
func (r *EmployeeRepository) UpsertCommissionConfig(ctx context.Context, cfg *models.CommissionConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"commission_type", "trial_rate", "new_course_rate", "renewal_rate", "base_salary", "updated_at",
		}),
	}).Create(cfg).Error
}
