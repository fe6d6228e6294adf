package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/tutor-finance-backend/internal/common/utils"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// EmployeeCommission 员工在区间内的薪酬
type EmployeeCommission struct {
	EmployeeID          int64           `json:"employee_id"`
	EmployeeName        string          `json:"employee_name"`
	CommissionType      string          `json:"commission_type"`
	MonthlySalary       decimal.Decimal `json:"monthly_salary"`
	BaseSalary          decimal.Decimal `json:"base_salary"` // 按区间天数折算
	TrialCommission     decimal.Decimal `json:"trial_commission"`
	NewCourseCommission decimal.Decimal `json:"new_course_commission"`
	RenewalCommission   decimal.Decimal `json:"renewal_commission"`
	Commission          decimal.Decimal `json:"commission"`
	Total               decimal.Decimal `json:"total"`
	CourseCount         int             `json:"course_count"`
}

// CommissionOf 某分类的提成
func (e *EmployeeCommission) CommissionOf(class Classification) decimal.Decimal {
	switch class {
	case ClassTrial:
		return e.TrialCommission
	case ClassNewCourse:
		return e.NewCourseCommission
	case ClassRenewal:
		return e.RenewalCommission
	}
	return decimal.Zero
}

// MonthlySalaryOf 提成配置中的底薪不为 0 时覆盖员工底薪
func MonthlySalaryOf(employee *models.Employee) decimal.Decimal {
	if employee.CommissionConfig != nil && !employee.CommissionConfig.BaseSalary.IsZero() {
		return employee.CommissionConfig.BaseSalary
	}
	return employee.BaseSalary
}

// ProrateSalary 月薪按区间覆盖的每个自然月天数折算
func ProrateSalary(monthly decimal.Decimal, period Period) decimal.Decimal {
	if monthly.IsZero() {
		return decimal.Zero
	}
	total := decimal.Zero
	_, end := period.Bounds()
	cursor := period.Start
	for cursor.Before(end) {
		year, month, _ := cursor.Date()
		days := utils.DaysInMonth(year, month, cursor.Location())
		monthEnd := time.Date(year, month+1, 1, 0, 0, 0, 0, cursor.Location())
		segmentEnd := monthEnd
		if end.Before(segmentEnd) {
			segmentEnd = end
		}
		covered := int(segmentEnd.Sub(cursor).Hours()/24 + 0.5)
		if covered == days {
			total = total.Add(monthly)
		} else {
			total = total.Add(monthly.Mul(decimal.NewFromInt(int64(covered))).Div(decimal.NewFromInt(int64(days))))
		}
		cursor = monthEnd
	}
	return roundMoney(total)
}

// ComputeCommission 计算员工提成
//
// 按利润或营收汇总各分类后乘以对应费率，每个分类的结果不低于 0；退款不产生提成。
func ComputeCommission(employee *models.Employee, courses []*CourseEconomics, period Period) *EmployeeCommission {
	cfg := employee.CommissionConfig
	commissionType := models.CommissionTypeProfit
	if cfg != nil && cfg.CommissionType == models.CommissionTypeRevenue {
		commissionType = models.CommissionTypeRevenue
	}

	monthly := MonthlySalaryOf(employee)
	result := &EmployeeCommission{
		EmployeeID:          employee.ID,
		EmployeeName:        employee.Name,
		CommissionType:      commissionType,
		MonthlySalary:       monthly,
		BaseSalary:          ProrateSalary(monthly, period),
		TrialCommission:     decimal.Zero,
		NewCourseCommission: decimal.Zero,
		RenewalCommission:   decimal.Zero,
		CourseCount:         len(courses),
	}

	bases := map[Classification]decimal.Decimal{}
	for _, c := range courses {
		base := c.NetProfit
		if commissionType == models.CommissionTypeRevenue {
			base = c.GrossRevenue
		}
		bases[c.Classification] = bases[c.Classification].Add(base)
	}

	if cfg != nil {
		result.TrialCommission = roundMoney(clampZero(percentOf(bases[ClassTrial], cfg.TrialRate)))
		result.NewCourseCommission = roundMoney(clampZero(percentOf(bases[ClassNewCourse], cfg.NewCourseRate)))
		result.RenewalCommission = roundMoney(clampZero(percentOf(bases[ClassRenewal], cfg.RenewalRate)))
	}
	result.Commission = sumMoney(result.TrialCommission, result.NewCourseCommission, result.RenewalCommission)
	result.Total = result.BaseSalary.Add(result.Commission)
	return result
}

// ComputeCommissions 按员工 ID 升序计算全部员工，课程按分配员工归组
func ComputeCommissions(employees []*models.Employee, courses []*CourseEconomics, period Period) []*EmployeeCommission {
	byEmployee := make(map[int64][]*CourseEconomics)
	for _, c := range courses {
		if c.AssignedEmployeeID != nil {
			byEmployee[*c.AssignedEmployeeID] = append(byEmployee[*c.AssignedEmployeeID], c)
		}
	}
	results := make([]*EmployeeCommission, 0, len(employees))
	for _, e := range employees {
		results = append(results, ComputeCommission(e, byEmployee[e.ID], period))
	}
	return results
}
