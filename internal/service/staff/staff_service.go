// Package staff 提供员工与提成配置管理
package staff

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/utils"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
)

var maxRate = decimal.NewFromInt(100)

// Service 员工服务
type Service struct {
	repo   *repository.EmployeeRepository
	logger *zap.Logger
}

// NewService 创建员工服务
func NewService(repo *repository.EmployeeRepository, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.OrDefault(log).With(logger.Module("staff")),
	}
}

// CreateEmployeeRequest 创建员工请求
type CreateEmployeeRequest struct {
	Name       string          `json:"name" binding:"required,max=50"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	BaseSalary decimal.Decimal `json:"base_salary"`
}

// CreateEmployee 创建员工
func (s *Service) CreateEmployee(ctx context.Context, req *CreateEmployeeRequest) (*models.Employee, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrInvalidParams.WithMessage("员工姓名不能为空")
	}
	if req.Phone != "" && !utils.ValidatePhone(req.Phone) {
		return nil, errors.ErrInvalidParams.WithMessage("手机号格式不正确")
	}
	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		return nil, errors.ErrInvalidParams.WithMessage("邮箱格式不正确")
	}
	if req.BaseSalary.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("底薪不能为负数")
	}

	employee := &models.Employee{
		Name:       name,
		Phone:      req.Phone,
		Email:      req.Email,
		BaseSalary: req.BaseSalary,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("员工已创建",
		logger.EmployeeID(employee.ID),
		zap.String("phone", utils.MaskPhone(employee.Phone)),
		zap.String("email", utils.MaskEmail(employee.Email)),
	)
	return employee, nil
}

// ListEmployees 全部员工，含提成配置
func (s *Service) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	employees, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return employees, nil
}

// CommissionConfigRequest 提成配置请求，费率为百分比
type CommissionConfigRequest struct {
	CommissionType string          `json:"commission_type"`
	TrialRate      decimal.Decimal `json:"trial_rate"`
	NewCourseRate  decimal.Decimal `json:"new_course_rate"`
	RenewalRate    decimal.Decimal `json:"renewal_rate"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
}

// UpsertCommissionConfig 写入员工提成配置
func (s *Service) UpsertCommissionConfig(ctx context.Context, employeeID int64, req *CommissionConfigRequest) (*models.CommissionConfig, error) {
	if _, err := s.repo.GetByID(ctx, employeeID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrEmployeeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	commissionType := req.CommissionType
	if commissionType == "" {
		commissionType = models.CommissionTypeProfit
	}
	if commissionType != models.CommissionTypeProfit && commissionType != models.CommissionTypeRevenue {
		return nil, errors.ErrInvalidParams.WithMessagef("未知的提成方式 %q", commissionType)
	}
	for name, rate := range map[string]decimal.Decimal{
		"trial_rate":      req.TrialRate,
		"new_course_rate": req.NewCourseRate,
		"renewal_rate":    req.RenewalRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(maxRate) {
			return nil, errors.ErrInvalidParams.WithMessagef("%s 必须在 0 到 100 之间", name)
		}
	}
	if req.BaseSalary.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("底薪不能为负数")
	}

	cfg := &models.CommissionConfig{
		EmployeeID:     employeeID,
		CommissionType: commissionType,
		TrialRate:      req.TrialRate,
		NewCourseRate:  req.NewCourseRate,
		RenewalRate:    req.RenewalRate,
		BaseSalary:     req.BaseSalary,
	}
	if err := s.repo.UpsertCommissionConfig(ctx, cfg); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	saved, err := s.repo.GetCommissionConfig(ctx, employeeID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("提成配置已更新", logger.EmployeeID(employeeID), zap.String("commission_type", commissionType))
	return saved, nil
}
