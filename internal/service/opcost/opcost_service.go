// Package opcost 提供运营成本管理
package opcost

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/utils"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	"github.com/dumeirei/tutor-finance-backend/internal/service/finance"
)

var (
	billingPeriods = []string{
		models.BillingPeriodDay, models.BillingPeriodWeek, models.BillingPeriodMonth,
		models.BillingPeriodQuarter, models.BillingPeriodYear, models.BillingPeriodOneTime,
	}
	allocationMethods = []string{models.AllocationEven, models.AllocationProportional}
)

// Service 运营成本服务
type Service struct {
	repo   *repository.OperationalCostRepository
	logger *zap.Logger
}

// NewService 创建运营成本服务
func NewService(repo *repository.OperationalCostRepository, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.OrDefault(log).With(logger.Module("opcost")),
	}
}

// CreateRequest 创建运营成本请求
type CreateRequest struct {
	CostType           string          `json:"cost_type" binding:"required"`
	CostName           string          `json:"cost_name" binding:"required"`
	Amount             decimal.Decimal `json:"amount"`
	CostDate           time.Time       `json:"cost_date" binding:"required"`
	BillingPeriod      string          `json:"billing_period"`
	AllocationMethod   string          `json:"allocation_method"`
	AllocatedToCourses bool            `json:"allocated_to_courses"`
	Supplier           string          `json:"supplier"`
	PaymentRecipient   string          `json:"payment_recipient"`
	InvoiceNumber      string          `json:"invoice_number"`
	Description        string          `json:"description"`
}

// Create 创建运营成本，计费周期和分摊方式为空时取 one_time 和 even
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.OperationalCost, error) {
	cost := &models.OperationalCost{
		CostType:           strings.TrimSpace(req.CostType),
		CostName:           strings.TrimSpace(req.CostName),
		Amount:             req.Amount,
		CostDate:           req.CostDate.In(time.Local),
		BillingPeriod:      req.BillingPeriod,
		AllocationMethod:   req.AllocationMethod,
		AllocatedToCourses: req.AllocatedToCourses,
		Supplier:           req.Supplier,
		PaymentRecipient:   req.PaymentRecipient,
		InvoiceNumber:      req.InvoiceNumber,
		Status:             models.OpCostStatusActive,
		Description:        req.Description,
	}
	if cost.BillingPeriod == "" {
		cost.BillingPeriod = models.BillingPeriodOneTime
	}
	if cost.AllocationMethod == "" {
		cost.AllocationMethod = models.AllocationEven
	}
	if err := validate(cost); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, cost); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("运营成本已创建",
		zap.Int64("cost_id", cost.ID),
		zap.String("cost_type", cost.CostType),
		logger.Amount("amount", cost.Amount),
	)
	return cost, nil
}

func validate(cost *models.OperationalCost) error {
	if cost.CostType == "" || cost.CostName == "" {
		return errors.ErrInvalidParams.WithMessage("成本类型和名称不能为空")
	}
	if !cost.Amount.IsPositive() {
		return errors.ErrInvalidParams.WithMessage("金额必须大于0")
	}
	if cost.CostDate.IsZero() {
		return errors.ErrInvalidParams.WithMessage("费用日期不能为空")
	}
	if !utils.Contains(billingPeriods, cost.BillingPeriod) {
		return errors.ErrInvalidParams.WithMessagef("未知的计费周期 %q", cost.BillingPeriod)
	}
	if !utils.Contains(allocationMethods, cost.AllocationMethod) {
		return errors.ErrInvalidParams.WithMessagef("未知的分摊方式 %q", cost.AllocationMethod)
	}
	return nil
}

// Archive 归档运营成本，归档后不再参与分摊
func (s *Service) Archive(ctx context.Context, id int64) (*models.OperationalCost, error) {
	cost, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOpCostNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if cost.Status == models.OpCostStatusArchived {
		return nil, errors.ErrOpCostArchived
	}
	if err := s.repo.UpdateStatus(ctx, id, models.OpCostStatusArchived); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	cost.Status = models.OpCostStatusArchived
	s.logger.Info("运营成本已归档", zap.Int64("cost_id", id))
	return cost, nil
}

// List 统计区间内的运营成本
func (s *Service) List(ctx context.Context, period finance.Period, onlyAllocable bool) ([]*models.OperationalCost, error) {
	start, end := period.Bounds()
	costs, err := s.repo.ListByPeriod(ctx, start, end, onlyAllocable)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return costs, nil
}
