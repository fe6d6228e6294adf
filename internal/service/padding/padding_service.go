// Package padding 提供刷单记录管理
package padding

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

// ProductSource 可刷单商品列表
type ProductSource interface {
	Products(ctx context.Context) ([]string, error)
}

// Service 刷单服务
type Service struct {
	repo     *repository.PaddingOrderRepository
	products ProductSource
	logger   *zap.Logger
}

// NewService 创建刷单服务
func NewService(repo *repository.PaddingOrderRepository, products ProductSource, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   logger.OrDefault(log).With(logger.Module("padding")),
	}
}

// CreateRequest 创建刷单记录请求
type CreateRequest struct {
	CustomerName string          `json:"customer_name"`
	Level        string          `json:"level"`
	ProductName  string          `json:"product_name" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Commission   decimal.Decimal `json:"commission"`
	OrderTime    *time.Time      `json:"order_time"`
}

// Create 创建刷单记录，商品必须在当前配置的商品列表中
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.PaddingOrder, error) {
	product := strings.TrimSpace(req.ProductName)
	if product == "" {
		return nil, errors.ErrInvalidParams.WithMessage("商品名称不能为空")
	}
	if req.Amount.IsNegative() || req.Commission.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("金额不能为负数")
	}

	products, err := s.products.Products(ctx)
	if err != nil {
		return nil, err
	}
	if !utils.Contains(products, product) {
		return nil, errors.ErrUnknownProduct.WithMessagef("商品 %q 不在刷单列表中", product)
	}

	order := &models.PaddingOrder{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Level:        req.Level,
		ProductName:  product,
		Amount:       req.Amount,
		Commission:   req.Commission,
		OrderTime:    time.Now(),
	}
	if req.OrderTime != nil {
		order.OrderTime = req.OrderTime.In(time.Local)
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("刷单记录已创建", zap.Int64("order_id", order.ID), zap.String("product", product))
	return order, nil
}

// List 统计区间内的刷单记录
func (s *Service) List(ctx context.Context, period finance.Period) ([]*models.PaddingOrder, error) {
	start, end := period.Bounds()
	orders, err := s.repo.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return orders, nil
}

// MarkEvaluated 标记已评价，重复标记不报错
func (s *Service) MarkEvaluated(ctx context.Context, id int64) (*models.PaddingOrder, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaddingOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if _, err := s.repo.MarkEvaluated(ctx, id); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return order, nil
}
