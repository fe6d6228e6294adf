package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// CourseEconomics 单门课程的经济数据，金额均已保留两位小数
type CourseEconomics struct {
	CourseID                int64           `json:"course_id"`
	CustomerID              int64           `json:"customer_id"`
	CourseName              string          `json:"course_name"`
	Classification          Classification  `json:"classification"`
	GrossRevenue            decimal.Decimal `json:"gross_revenue"`
	ChannelFee              decimal.Decimal `json:"channel_fee"`
	CourseCost              decimal.Decimal `json:"course_cost"` // 含其他成本
	OtherCost               decimal.Decimal `json:"other_cost"`
	TotalCost               decimal.Decimal `json:"total_cost"` // 课程成本 + 渠道手续费
	NetProfit               decimal.Decimal `json:"net_profit"`
	PaidSessions            int             `json:"paid_sessions"`
	EffectivePerSessionCost decimal.Decimal `json:"effective_per_session_cost"`
	FeeRateUsed             decimal.Decimal `json:"fee_rate_used"`
	AssignedEmployeeID      *int64          `json:"assigned_employee_id,omitempty"`
}

// EffectivePerSessionCost 课程自身成本优先，其次为录入快照，最后取配置默认值
func EffectivePerSessionCost(course *models.Course, cfg *EffectiveConfig) decimal.Decimal {
	if course.Cost.Valid {
		return course.Cost.Decimal
	}
	if !course.SnapshotCourseCost.IsZero() {
		return course.SnapshotCourseCost
	}
	if course.IsTrial {
		return cfg.TrialCost
	}
	return cfg.CourseCost
}

// EffectiveFeeRate 快照费率优先，其次为渠道费率
func EffectiveFeeRate(course *models.Course, cfg *EffectiveConfig) decimal.Decimal {
	if !course.SnapshotFeeRate.IsZero() {
		return course.SnapshotFeeRate
	}
	return cfg.FeeRate(course.PaymentChannel)
}

// Compute 计算课程经济数据
func Compute(variant CourseVariant, cfg *EffectiveConfig) *CourseEconomics {
	course := variant.Record()
	econ := &CourseEconomics{
		CourseID:           course.ID,
		CustomerID:         course.CustomerID,
		CourseName:         course.Name,
		Classification:     variant.Classification(),
		AssignedEmployeeID: course.AssignedEmployeeID,
	}

	switch v := variant.(type) {
	case *TrialCourse:
		perSession := EffectivePerSessionCost(course, cfg)
		rate := EffectiveFeeRate(course, cfg)
		gross := course.TrialPrice
		fee := percentOf(gross, rate)
		if v.Refunded() {
			gross = gross.Sub(course.RefundAmount)
			fee = fee.Add(course.RefundFee)
		}
		econ.EffectivePerSessionCost = perSession
		econ.FeeRateUsed = rate
		econ.GrossRevenue = roundMoney(gross)
		econ.ChannelFee = roundMoney(fee)
		econ.CourseCost = roundMoney(perSession)

	case *FormalCourse:
		perSession := EffectivePerSessionCost(course, cfg)
		rate := EffectiveFeeRate(course, cfg)
		gross := course.Price.Mul(decimal.NewFromInt(int64(course.Sessions)))
		delivered := decimal.NewFromInt(int64(course.Sessions + course.GiftSessions))
		econ.EffectivePerSessionCost = perSession
		econ.FeeRateUsed = rate
		econ.PaidSessions = course.Sessions
		econ.GrossRevenue = roundMoney(gross)
		econ.ChannelFee = roundMoney(percentOf(gross, rate))
		econ.OtherCost = roundMoney(course.OtherCost)
		econ.CourseCost = roundMoney(perSession.Mul(delivered).Add(course.OtherCost))

	case *RefundEntry:
		econ.GrossRevenue = roundMoney(course.RefundAmount.Neg())
		econ.ChannelFee = roundMoney(course.RefundFee)
		econ.CourseCost = decimal.Zero
		econ.PaidSessions = -course.RefundSessions

	default:
		panic(fmt.Sprintf("finance: unknown course variant %T", variant))
	}

	econ.TotalCost = econ.CourseCost.Add(econ.ChannelFee)
	econ.NetProfit = econ.GrossRevenue.Sub(econ.TotalCost)
	return econ
}

// ComputeCourse 分类并计算单门课程
func ComputeCourse(course *models.Course, cfg *EffectiveConfig) (*CourseEconomics, error) {
	variant, err := Classify(course)
	if err != nil {
		return nil, err
	}
	return Compute(variant, cfg), nil
}
