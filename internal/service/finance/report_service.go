// Package finance 提供课程经济核算、利润报表、股东分红与员工提成
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/metrics"
	"github.com/dumeirei/tutor-finance-backend/internal/common/tracing"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
)

// ConfigSource 提供解析后的业务配置
type ConfigSource interface {
	Effective(ctx context.Context) (*EffectiveConfig, error)
}

// PeriodInfo 报表区间
type PeriodInfo struct {
	Type      PeriodType `json:"type"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
}

// RevenueSection 收入
type RevenueSection struct {
	CourseIncome           decimal.Decimal `json:"course_income"`
	TaobaoCommissionIncome decimal.Decimal `json:"taobao_commission_income"`
	Total                  decimal.Decimal `json:"total"`
}

// CostSection 成本
type CostSection struct {
	CourseCost         decimal.Decimal `json:"course_cost"`
	RefundAmount       decimal.Decimal `json:"refund_amount"`
	TotalFee           decimal.Decimal `json:"total_fee"`
	TaobaoCommission   decimal.Decimal `json:"taobao_commission"`
	EmployeeSalary     decimal.Decimal `json:"employee_salary"`
	EmployeeCommission decimal.Decimal `json:"employee_commission"`
	OperationalCost    decimal.Decimal `json:"operational_cost"`
	TotalCost          decimal.Decimal `json:"total_cost"`
}

// ProfitSection 按分类拆分的利润
type ProfitSection struct {
	NewCourse decimal.Decimal `json:"new_course"`
	Renewal   decimal.Decimal `json:"renewal"`
	Trial     decimal.Decimal `json:"trial"`
	Refund    decimal.Decimal `json:"refund"`
	Total     decimal.Decimal `json:"total"`
}

// Warning 被跳过的课程
type Warning struct {
	CourseID int64  `json:"course_id"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
}

// Report 综合利润报表
type Report struct {
	Period                PeriodInfo             `json:"period"`
	Revenue               RevenueSection         `json:"revenue"`
	Cost                  CostSection            `json:"cost"`
	Profit                ProfitSection          `json:"profit"`
	OperationalCostDetail AllocationSummary      `json:"operational_cost_detail"`
	CourseCounts          map[Classification]int `json:"course_counts"`
	PaddingOrderCount     int                    `json:"padding_order_count"`
	Courses               []*CourseEconomics     `json:"courses"`
	Employees             []*EmployeeCommission  `json:"employees"`
	Warnings              []Warning              `json:"warnings"`
}

// ReportService 利润报表服务
type ReportService struct {
	courseRepo   *repository.CourseRepository
	paddingRepo  *repository.PaddingOrderRepository
	opCostRepo   *repository.OperationalCostRepository
	employeeRepo *repository.EmployeeRepository
	settings     ConfigSource
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewReportService 创建利润报表服务
func NewReportService(
	courseRepo *repository.CourseRepository,
	paddingRepo *repository.PaddingOrderRepository,
	opCostRepo *repository.OperationalCostRepository,
	employeeRepo *repository.EmployeeRepository,
	settings ConfigSource,
	m *metrics.Metrics,
	log *zap.Logger,
) *ReportService {
	return &ReportService{
		courseRepo:   courseRepo,
		paddingRepo:  paddingRepo,
		opCostRepo:   opCostRepo,
		employeeRepo: employeeRepo,
		settings:     settings,
		metrics:      m,
		logger:       logger.OrDefault(log).With(logger.Module("finance.report")),
	}
}

// CourseEconomics 计算单门课程的经济数据
func (s *ReportService) CourseEconomics(ctx context.Context, courseID int64) (*CourseEconomics, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	cfg, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	economics, skipped, err := evaluateCourses(ctx, s.courseRepo, []*models.Course{course}, cfg)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		return nil, skipped[0].cause
	}
	return economics[0], nil
}

// Generate 生成区间利润报表
func (s *ReportService) Generate(ctx context.Context, period Period) (report *Report, err error) {
	began := time.Now()
	ctx, span := tracing.StartSpan(ctx, "finance.report",
		append(tracing.WithPeriod(period.Start, period.End), tracing.AttrPeriodType.String(string(period.Type)))...)
	defer func() { tracing.EndSpan(span, err) }()

	cfg, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}

	start, end := period.Bounds()
	courses, err := s.courseRepo.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	orders, err := s.paddingRepo.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	opCosts, err := s.opCostRepo.ListByPeriod(ctx, start, end, true)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	employees, err := s.employeeRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	economics, warnings, err := s.computeCourses(ctx, courses, cfg)
	if err != nil {
		return nil, err
	}

	report = Assemble(period, cfg, economics, orders, opCosts, employees)
	report.Warnings = warnings
	span.SetAttributes(tracing.AttrCourseCount.Int(len(economics)))

	s.metrics.RecordReport(string(period.Type), time.Since(began))
	s.logger.Info("利润报表已生成",
		logger.PeriodRange(period.Start, period.End),
		logger.Int("courses", len(economics)),
		logger.Int("warnings", len(warnings)),
		logger.Amount("profit_total", report.Profit.Total),
		logger.Latency(time.Since(began)),
	)
	return report, nil
}

// computeCourses 计算区间内课程，数据异常或引用缺失的课程跳过并记入警告
func (s *ReportService) computeCourses(ctx context.Context, courses []*models.Course, cfg *EffectiveConfig) ([]*CourseEconomics, []Warning, error) {
	economics, skipped, err := evaluateCourses(ctx, s.courseRepo, courses, cfg)
	if err != nil {
		return nil, nil, err
	}
	warnings := make([]Warning, 0, len(skipped))
	for _, sk := range skipped {
		warnings = append(warnings, Warning{CourseID: sk.courseID, Code: sk.cause.Code, Reason: sk.cause.Message})
		s.metrics.RecordCourseWarning(warningLabel(sk.cause))
		s.logger.Warn("跳过异常课程", logger.CourseID(sk.courseID), logger.Int("code", sk.cause.Code), logger.String("reason", sk.cause.Message))
	}
	return economics, warnings, nil
}

// skippedCourse 未参与核算的课程
type skippedCourse struct {
	courseID int64
	cause    *errors.AppError
}

// evaluateCourses 按 id 顺序计算课程，数据异常或引用缺失的课程跳过
// 报表与提成共用
func evaluateCourses(ctx context.Context, repo *repository.CourseRepository, courses []*models.Course, cfg *EffectiveConfig) ([]*CourseEconomics, []skippedCourse, error) {
	missing, err := missingReferences(ctx, repo, courses)
	if err != nil {
		return nil, nil, err
	}

	economics := make([]*CourseEconomics, 0, len(courses))
	var skipped []skippedCourse
	for _, course := range courses {
		var econ *CourseEconomics
		cause, bad := missing[course.ID]
		if !bad {
			econ, cause = ComputeCourse(course, cfg)
			bad = cause != nil
		}
		if bad {
			skipped = append(skipped, skippedCourse{courseID: course.ID, cause: errors.GetAppError(cause)})
			continue
		}
		economics = append(economics, econ)
	}
	return economics, skipped, nil
}

// missingReferences 检查续课、转正与退款引用是否存在
func missingReferences(ctx context.Context, repo *repository.CourseRepository, courses []*models.Course) (map[int64]error, error) {
	refs := make(map[int64]struct{})
	for _, c := range courses {
		for _, id := range referencesOf(c) {
			refs[id] = struct{}{}
		}
	}
	result := make(map[int64]error)
	if len(refs) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	found, err := repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	existing := make(map[int64]struct{}, len(found))
	for _, c := range found {
		existing[c.ID] = struct{}{}
	}

	for _, c := range courses {
		for _, id := range referencesOf(c) {
			if _, ok := existing[id]; !ok {
				result[c.ID] = errors.ErrMissingReference.WithMessagef("课程 %d 引用的课程 %d 不存在", c.ID, id)
				break
			}
		}
	}
	return result, nil
}

func referencesOf(c *models.Course) []int64 {
	var ids []int64
	for _, ref := range []*int64{c.RenewalFromCourseID, c.ConvertedToCourse, c.RefundOfCourseID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return ids
}

func warningLabel(appErr *errors.AppError) string {
	switch appErr.Code {
	case errors.ErrMalformedCourse.Code:
		return "malformed_course"
	case errors.ErrMissingReference.Code:
		return "missing_reference"
	}
	return "other"
}

// Assemble 由已计算的课程数据汇总报表
//
// 刷单净收入和员工底薪计入新课利润；员工提成与分摊的运营成本跟随课程分类。
func Assemble(
	period Period,
	cfg *EffectiveConfig,
	economics []*CourseEconomics,
	orders []*models.PaddingOrder,
	opCosts []*models.OperationalCost,
	employees []*models.Employee,
) *Report {
	report := &Report{
		Period: PeriodInfo{
			Type:      period.Type,
			StartDate: period.Start.Format(dateLayout),
			EndDate:   period.End.Format(dateLayout),
		},
		CourseCounts:      make(map[Classification]int, len(Classifications)),
		PaddingOrderCount: len(orders),
		Courses:           economics,
		Warnings:          []Warning{},
	}
	for _, class := range Classifications {
		report.CourseCounts[class] = 0
	}

	profit := make(map[Classification]decimal.Decimal, len(Classifications))
	for _, class := range Classifications {
		profit[class] = decimal.Zero
	}

	courseIncome, refundAmount, courseCost, channelFee := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range economics {
		report.CourseCounts[e.Classification]++
		if e.GrossRevenue.IsPositive() {
			courseIncome = courseIncome.Add(e.GrossRevenue)
		} else {
			refundAmount = refundAmount.Add(e.GrossRevenue.Neg())
		}
		courseCost = courseCost.Add(e.CourseCost)
		channelFee = channelFee.Add(e.ChannelFee)
		profit[e.Classification] = profit[e.Classification].Add(e.NetProfit)
	}

	taobaoIncome, taobaoFee, taobaoCommission := decimal.Zero, decimal.Zero, decimal.Zero
	for _, o := range orders {
		taobaoIncome = taobaoIncome.Add(o.Amount)
		taobaoFee = taobaoFee.Add(roundMoney(percentOf(o.Amount, cfg.TaobaoFeeRate)))
		taobaoCommission = taobaoCommission.Add(o.Commission)
	}
	profit[ClassNewCourse] = profit[ClassNewCourse].Add(taobaoIncome.Sub(taobaoFee).Sub(taobaoCommission))

	alloc := Allocate(opCosts, economics)
	for _, e := range economics {
		if share, ok := alloc.Shares[e.CourseID]; ok {
			profit[e.Classification] = profit[e.Classification].Sub(share)
		}
	}

	report.Employees = ComputeCommissions(employees, economics, period)
	salary, commission := decimal.Zero, decimal.Zero
	for _, ec := range report.Employees {
		salary = salary.Add(ec.BaseSalary)
		commission = commission.Add(ec.Commission)
		for _, class := range []Classification{ClassTrial, ClassNewCourse, ClassRenewal} {
			profit[class] = profit[class].Sub(ec.CommissionOf(class))
		}
	}
	profit[ClassNewCourse] = profit[ClassNewCourse].Sub(salary)

	report.Revenue = RevenueSection{
		CourseIncome:           courseIncome,
		TaobaoCommissionIncome: taobaoIncome,
		Total:                  courseIncome.Add(taobaoIncome),
	}
	report.Cost = CostSection{
		CourseCost:         courseCost,
		RefundAmount:       refundAmount,
		TotalFee:           channelFee.Add(taobaoFee),
		TaobaoCommission:   taobaoCommission,
		EmployeeSalary:     salary,
		EmployeeCommission: commission,
		OperationalCost:    alloc.Summary.AllocatedCost,
	}
	report.Cost.TotalCost = sumMoney(
		report.Cost.CourseCost,
		report.Cost.RefundAmount,
		report.Cost.TotalFee,
		report.Cost.TaobaoCommission,
		report.Cost.EmployeeSalary,
		report.Cost.EmployeeCommission,
		report.Cost.OperationalCost,
	)
	report.Profit = ProfitSection{
		NewCourse: profit[ClassNewCourse],
		Renewal:   profit[ClassRenewal],
		Trial:     profit[ClassTrial],
		Refund:    profit[ClassRefund],
	}
	report.Profit.Total = sumMoney(report.Profit.NewCourse, report.Profit.Renewal, report.Profit.Trial, report.Profit.Refund)
	report.OperationalCostDetail = alloc.Summary
	return report
}
