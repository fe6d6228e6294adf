// Package course 提供客户与课程的录入、体验课流转和退款
package course

import (
	"context"
	"fmt"
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

// 录入时的课程类型
const (
	KindTrial     = "trial"
	KindNewCourse = "new_course"
	KindRenewal   = "renewal"
)

// maxReferenceDepth 引用链遍历上限
const maxReferenceDepth = 64

// Service 客户与课程服务
type Service struct {
	db           *gorm.DB
	customerRepo *repository.CustomerRepository
	courseRepo   *repository.CourseRepository
	employeeRepo *repository.EmployeeRepository
	settings     finance.ConfigSource
	logger       *zap.Logger
}

// NewService 创建客户与课程服务
func NewService(
	db *gorm.DB,
	customerRepo *repository.CustomerRepository,
	courseRepo *repository.CourseRepository,
	employeeRepo *repository.EmployeeRepository,
	settings finance.ConfigSource,
	log *zap.Logger,
) *Service {
	return &Service{
		db:           db,
		customerRepo: customerRepo,
		courseRepo:   courseRepo,
		employeeRepo: employeeRepo,
		settings:     settings,
		logger:       logger.OrDefault(log).With(logger.Module("course")),
	}
}

// CreateCustomerRequest 创建客户请求
type CreateCustomerRequest struct {
	Name                  string `json:"name" binding:"required,max=50"`
	Phone                 string `json:"phone"`
	Source                string `json:"source"`
	HasTutoringExperience bool   `json:"has_tutoring_experience"`
}

// CreateCustomer 创建客户，手机号非空时唯一
func (s *Service) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*models.Customer, error) {
	phone := utils.NormalizePhone(req.Phone)
	if phone != nil {
		if !utils.ValidatePhone(*phone) {
			return nil, errors.ErrInvalidParams.WithMessage("手机号格式不正确")
		}
		exists, err := s.customerRepo.ExistsByPhone(ctx, *phone)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return nil, errors.ErrPhoneExists
		}
	}

	customer := &models.Customer{
		Name:                  strings.TrimSpace(req.Name),
		Phone:                 phone,
		Source:                req.Source,
		HasTutoringExperience: req.HasTutoringExperience,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("客户已创建", logger.CustomerID(customer.ID), zap.String("phone", utils.MaskPhone(utils.SafeString(phone))))
	return customer, nil
}

// ListCustomers 分页查询客户
func (s *Service) ListCustomers(ctx context.Context, keyword string, offset, limit int) ([]*models.Customer, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, strings.TrimSpace(keyword), offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return customers, total, nil
}

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	CustomerID          int64            `json:"customer_id"`
	Kind                string           `json:"kind" binding:"required,oneof=trial new_course renewal"`
	Name                string           `json:"name"`
	Sessions            int              `json:"sessions"`
	GiftSessions        int              `json:"gift_sessions"`
	Price               decimal.Decimal  `json:"price"`
	TrialPrice          decimal.Decimal  `json:"trial_price"`
	Cost                *decimal.Decimal `json:"cost"`
	OtherCost           decimal.Decimal  `json:"other_cost"`
	PaymentChannel      string           `json:"payment_channel"`
	RenewalFromCourseID *int64           `json:"renewal_from_course_id"`
	AssignedEmployeeID  *int64           `json:"assigned_employee_id"`
	CreatedAt           *time.Time       `json:"created_at"`
}

// CreateCourse 录入体验课、新课或续课，并冻结录入时的成本与费率
func (s *Service) CreateCourse(ctx context.Context, req *CreateCourseRequest) (*models.Course, error) {
	course, err := s.prepareCourse(ctx, req)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertCourse(ctx, s.courseRepo.WithTx(tx), course, req.RenewalFromCourseID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("课程已创建",
		logger.CourseID(course.ID),
		logger.CustomerID(course.CustomerID),
		zap.String("kind", req.Kind),
	)
	return course, nil
}

// prepareCourse 校验请求并按当前配置构造待写入的课程
func (s *Service) prepareCourse(ctx context.Context, req *CreateCourseRequest) (*models.Course, error) {
	if err := validateCourseRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCustomerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if req.AssignedEmployeeID != nil {
		if err := s.ensureEmployee(ctx, *req.AssignedEmployeeID); err != nil {
			return nil, err
		}
	}

	cfg, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		CustomerID:         req.CustomerID,
		Name:               strings.TrimSpace(req.Name),
		IsTrial:            req.Kind == KindTrial,
		IsRenewal:          req.Kind == KindRenewal,
		Sessions:           req.Sessions,
		GiftSessions:       req.GiftSessions,
		Price:              req.Price,
		TrialPrice:         req.TrialPrice,
		OtherCost:          req.OtherCost,
		PaymentChannel:     req.PaymentChannel,
		AssignedEmployeeID: req.AssignedEmployeeID,
	}
	if course.IsTrial {
		course.TrialStatus = models.TrialStatusRegistered
		course.Sessions = 0
		course.GiftSessions = 0
	}
	if req.Cost != nil {
		course.Cost = decimal.NewNullDecimal(*req.Cost)
	} else {
		course.SnapshotCourseCost = finance.EffectivePerSessionCost(course, cfg)
	}
	course.SnapshotFeeRate = cfg.FeeRate(course.PaymentChannel)
	if req.CreatedAt != nil {
		// 统一为本地时区，区间查询按本地时间比较
		course.CreatedAt = req.CreatedAt.In(time.Local)
	}
	return course, nil
}

// insertCourse 校验续课关联后写入
func insertCourse(ctx context.Context, repo *repository.CourseRepository, course *models.Course, renewalFrom *int64) error {
	if course.IsRenewal {
		if renewalFrom == nil {
			return errors.ErrInvalidReference.WithMessage("续课必须关联原课程")
		}
		prev, err := repo.GetByID(ctx, *renewalFrom)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrInvalidReference.WithMessagef("原课程 %d 不存在", *renewalFrom)
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if prev.IsTrial || prev.IsRefundRecord() || prev.CustomerID != course.CustomerID {
			return errors.ErrInvalidReference.WithMessage("续课只能关联同一客户的正式课程")
		}
		course.RenewalFromCourseID = &prev.ID
	}

	if err := repo.Create(ctx, course); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return checkAcyclic(ctx, repo, course.ID)
}

func validateCourseRequest(req *CreateCourseRequest) error {
	if req.CustomerID <= 0 {
		return errors.ErrInvalidParams.WithMessage("客户ID不能为空")
	}
	if req.GiftSessions < 0 {
		return errors.ErrInvalidParams.WithMessage("赠送课时不能为负数")
	}
	if req.Price.IsNegative() || req.TrialPrice.IsNegative() || req.OtherCost.IsNegative() {
		return errors.ErrInvalidParams.WithMessage("金额不能为负数")
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		return errors.ErrInvalidParams.WithMessage("课时成本不能为负数")
	}
	switch req.Kind {
	case KindTrial:
	case KindNewCourse, KindRenewal:
		if req.Sessions <= 0 {
			return errors.ErrInvalidParams.WithMessage("正式课课时必须大于0")
		}
	default:
		return errors.ErrInvalidParams.WithMessagef("未知的课程类型 %q", req.Kind)
	}
	return nil
}

// ConvertTrial 体验课转正：创建正式课并回写转化关系
func (s *Service) ConvertTrial(ctx context.Context, trialID int64, req *CreateCourseRequest) (*models.Course, error) {
	if req.Kind == KindTrial {
		return nil, errors.ErrInvalidParams.WithMessage("转正后的课程不能是体验课")
	}

	trial, err := s.getTrial(ctx, s.courseRepo, trialID)
	if err != nil {
		return nil, err
	}
	req.CustomerID = trial.CustomerID
	formal, err := s.prepareCourse(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.courseRepo.WithTx(tx)
		trial, err := s.getTrial(ctx, repo, trialID)
		if err != nil {
			return err
		}
		if trial.TrialStatus != models.TrialStatusRegistered {
			return errors.ErrCourseStatusError.WithMessagef("体验课状态为 %s，不能转正", trial.TrialStatus)
		}
		if err := insertCourse(ctx, repo, formal, req.RenewalFromCourseID); err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, trial.ID, map[string]interface{}{
			"trial_status":        models.TrialStatusConverted,
			"converted_to_course": formal.ID,
		}); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return checkAcyclic(ctx, repo, trial.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("体验课已转正", logger.CourseID(trialID), zap.Int64("formal_course_id", formal.ID))
	return formal, nil
}

// RefundTrialRequest 体验课退款请求
type RefundTrialRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
}

// RefundTrial 体验课退款，只有已报名的体验课可退
func (s *Service) RefundTrial(ctx context.Context, trialID int64, req *RefundTrialRequest) (*models.Course, error) {
	if !req.Amount.IsPositive() || req.Fee.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("退款金额必须大于0，手续费不能为负数")
	}
	return s.updateTrial(ctx, trialID, func(trial *models.Course) (map[string]interface{}, error) {
		if req.Amount.GreaterThan(trial.TrialPrice) {
			return nil, errors.ErrRefundExceed.WithMessagef("退款金额 %s 超过体验课价格 %s", req.Amount.String(), trial.TrialPrice.String())
		}
		return map[string]interface{}{
			"trial_status":  models.TrialStatusRefunded,
			"refund_amount": req.Amount,
			"refund_fee":    req.Fee,
		}, nil
	})
}

// MarkTrialLost 体验课流失
func (s *Service) MarkTrialLost(ctx context.Context, trialID int64) (*models.Course, error) {
	return s.updateTrial(ctx, trialID, func(trial *models.Course) (map[string]interface{}, error) {
		return map[string]interface{}{"trial_status": models.TrialStatusLost}, nil
	})
}

func (s *Service) updateTrial(ctx context.Context, trialID int64, change func(*models.Course) (map[string]interface{}, error)) (*models.Course, error) {
	var updated *models.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.courseRepo.WithTx(tx)
		trial, err := s.getTrial(ctx, repo, trialID)
		if err != nil {
			return err
		}
		if trial.TrialStatus != models.TrialStatusRegistered {
			return errors.ErrCourseStatusError.WithMessagef("体验课状态为 %s", trial.TrialStatus)
		}
		fields, err := change(trial)
		if err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, trialID, fields); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		updated, err = repo.GetByID(ctx, trialID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("体验课状态变更", logger.CourseID(trialID), zap.String("status", updated.TrialStatus))
	return updated, nil
}

func (s *Service) getTrial(ctx context.Context, repo *repository.CourseRepository, id int64) (*models.Course, error) {
	course, err := repo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !course.IsTrial {
		return nil, errors.ErrCourseNotTrial
	}
	return course, nil
}

// CreateRefundRequest 正式课退款请求
type CreateRefundRequest struct {
	Sessions  int             `json:"sessions"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	CreatedAt *time.Time      `json:"created_at"`
}

// CreateRefund 为正式课录入退款记录，不能超过剩余已付课时与剩余已付金额
func (s *Service) CreateRefund(ctx context.Context, originalID int64, req *CreateRefundRequest) (*models.Course, error) {
	if req.Sessions < 0 || !req.Amount.IsPositive() || req.Fee.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("退款课时不能为负数，退款金额必须大于0")
	}

	var refund *models.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.courseRepo.WithTx(tx)
		original, err := repo.GetByID(ctx, originalID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if original.IsTrial || original.IsRefundRecord() || original.Sessions <= 0 {
			return errors.ErrInvalidReference.WithMessage("只能对正式课程退款")
		}

		previous, err := repo.ListRefundsOf(ctx, originalID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		remainingSessions := original.Sessions
		remainingAmount := original.Price.Mul(decimal.NewFromInt(int64(original.Sessions)))
		for _, r := range previous {
			remainingSessions -= r.RefundSessions
			remainingAmount = remainingAmount.Sub(r.RefundAmount)
		}
		if req.Sessions > remainingSessions {
			return errors.ErrRefundExceed.WithMessagef("剩余已付课时 %d，申请退 %d", remainingSessions, req.Sessions)
		}
		if req.Amount.GreaterThan(remainingAmount) {
			return errors.ErrRefundExceed.WithMessagef("剩余已付金额 %s，申请退 %s", remainingAmount.StringFixed(2), req.Amount.StringFixed(2))
		}

		refund = &models.Course{
			CustomerID:         original.CustomerID,
			Name:               fmt.Sprintf("退款-%s", original.Name),
			RefundOfCourseID:   &original.ID,
			RefundSessions:     req.Sessions,
			RefundAmount:       req.Amount,
			RefundFee:          req.Fee,
			PaymentChannel:     original.PaymentChannel,
			AssignedEmployeeID: original.AssignedEmployeeID,
		}
		if req.CreatedAt != nil {
			refund.CreatedAt = req.CreatedAt.In(time.Local)
		}
		if err := repo.Create(ctx, refund); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return checkAcyclic(ctx, repo, refund.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("退款记录已创建", logger.CourseID(refund.ID), zap.Int64("original_course_id", originalID), logger.Amount("amount", req.Amount))
	return refund, nil
}

// AssignEmployee 分配或取消分配负责员工
func (s *Service) AssignEmployee(ctx context.Context, courseID int64, employeeID *int64) (*models.Course, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if employeeID != nil {
		if err := s.ensureEmployee(ctx, *employeeID); err != nil {
			return nil, err
		}
	}
	if err := s.courseRepo.UpdateFields(ctx, courseID, map[string]interface{}{"assigned_employee_id": employeeID}); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.courseRepo.GetByID(ctx, courseID)
}

func (s *Service) ensureEmployee(ctx context.Context, id int64) error {
	if _, err := s.employeeRepo.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrEmployeeNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ListCourses 分页查询课程
func (s *Service) ListCourses(ctx context.Context, filter *repository.CourseFilter, offset, limit int) ([]*models.Course, int64, error) {
	courses, total, err := s.courseRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return courses, total, nil
}

// ListByCustomer 客户的全部课程
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]*models.Course, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCustomerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	courses, err := s.courseRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return courses, nil
}

// checkAcyclic 沿转正、续课和退款引用从 start 出发遍历，回到 start 即为环
func checkAcyclic(ctx context.Context, repo *repository.CourseRepository, start int64) error {
	visited := map[int64]bool{}
	frontier := []int64{start}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth > maxReferenceDepth {
			return errors.ErrReferenceCycle.WithMessage("课程引用链过长")
		}
		courses, err := repo.ListByIDs(ctx, frontier)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		frontier = frontier[:0]
		for _, c := range courses {
			for _, next := range outgoing(c) {
				if next == start {
					return errors.ErrReferenceCycle.WithMessagef("课程 %d 的引用形成环", start)
				}
				if !visited[next] {
					visited[next] = true
					frontier = append(frontier, next)
				}
			}
		}
	}
	return nil
}

func outgoing(c *models.Course) []int64 {
	var ids []int64
	for _, ref := range []*int64{c.RenewalFromCourseID, c.ConvertedToCourse, c.RefundOfCourseID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return ids
}
