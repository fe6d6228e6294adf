package finance

import (
	"context"

	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/tracing"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
)

// CommissionService 员工提成服务
type CommissionService struct {
	courseRepo   *repository.CourseRepository
	employeeRepo *repository.EmployeeRepository
	settings     ConfigSource
	logger       *zap.Logger
}

// NewCommissionService 创建员工提成服务
func NewCommissionService(
	courseRepo *repository.CourseRepository,
	employeeRepo *repository.EmployeeRepository,
	settings ConfigSource,
	log *zap.Logger,
) *CommissionService {
	return &CommissionService{
		courseRepo:   courseRepo,
		employeeRepo: employeeRepo,
		settings:     settings,
		logger:       logger.OrDefault(log).With(logger.Module("finance.commission")),
	}
}

// Commissions 计算区间内每位员工的底薪与提成
func (s *CommissionService) Commissions(ctx context.Context, period Period) (results []*EmployeeCommission, err error) {
	ctx, span := tracing.StartSpan(ctx, "finance.commissions", tracing.WithPeriod(period.Start, period.End)...)
	defer func() { tracing.EndSpan(span, err) }()

	cfg, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.employeeRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	start, end := period.Bounds()
	results = make([]*EmployeeCommission, 0, len(employees))
	for _, employee := range employees {
		courses, err := s.courseRepo.ListByEmployee(ctx, employee.ID, start, end)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}

		economics, skipped, err := evaluateCourses(ctx, s.courseRepo, courses, cfg)
		if err != nil {
			return nil, err
		}
		for _, sk := range skipped {
			s.logger.Warn("提成计算跳过异常课程",
				logger.EmployeeID(employee.ID),
				logger.CourseID(sk.courseID),
				logger.Int("code", sk.cause.Code),
				logger.String("reason", sk.cause.Message),
			)
		}
		results = append(results, ComputeCommission(employee, economics, period))
	}
	return results, nil
}
