package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// 分摊方式汇总值
const (
	AllocationMixed = "mixed"
	AllocationNone  = "none"
)

// CostTypeTotal 某类运营成本的合计
type CostTypeTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// AllocationSummary 分摊汇总
type AllocationSummary struct {
	TotalOperationalCost decimal.Decimal           `json:"total_operational_cost"`
	AllocatedCost        decimal.Decimal           `json:"allocated_cost"`
	UnallocatedCost      decimal.Decimal           `json:"unallocated_cost"`
	CostPerCourse        decimal.Decimal           `json:"cost_per_course"`
	CourseCount          int                       `json:"course_count"`
	AllocationMethod     string                    `json:"allocation_method"`
	CostByType           map[string]*CostTypeTotal `json:"cost_by_type"`
}

// Allocation 运营成本分摊结果
type Allocation struct {
	Shares  map[int64]decimal.Decimal
	Summary AllocationSummary
}

// ShareOf 课程分摊到的运营成本
func (a *Allocation) ShareOf(courseID int64) decimal.Decimal {
	return a.Shares[courseID]
}

// Allocate 将运营成本分摊到课程上
//
// 只处理启用且参与分摊的行；退款记录不参与。每一行先按比例取整到分，
// 尾差计入 ID 最大的参与课程，使每行分摊合计与金额相等。
// 没有可分摊课程时，该行整额计入未分摊。
func Allocate(costs []*models.OperationalCost, courses []*CourseEconomics) *Allocation {
	alloc := &Allocation{
		Shares: make(map[int64]decimal.Decimal),
		Summary: AllocationSummary{
			TotalOperationalCost: decimal.Zero,
			AllocatedCost:        decimal.Zero,
			UnallocatedCost:      decimal.Zero,
			CostPerCourse:        decimal.Zero,
			AllocationMethod:     AllocationNone,
			CostByType:           make(map[string]*CostTypeTotal),
		},
	}

	eligible := make([]*CourseEconomics, 0, len(courses))
	for _, c := range courses {
		if c.Classification != ClassRefund {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].CourseID < eligible[j].CourseID })

	var positive []*CourseEconomics
	grossSum := decimal.Zero
	for _, c := range eligible {
		if c.GrossRevenue.IsPositive() {
			positive = append(positive, c)
			grossSum = grossSum.Add(c.GrossRevenue)
		}
	}

	method := ""
	for _, row := range costs {
		if !row.IsAllocable() {
			continue
		}
		amount := roundMoney(row.Amount)
		alloc.Summary.TotalOperationalCost = alloc.Summary.TotalOperationalCost.Add(amount)
		byType, ok := alloc.Summary.CostByType[row.CostType]
		if !ok {
			byType = &CostTypeTotal{Amount: decimal.Zero}
			alloc.Summary.CostByType[row.CostType] = byType
		}
		byType.Amount = byType.Amount.Add(amount)
		byType.Count++

		rowMethod := row.AllocationMethod
		if rowMethod != models.AllocationProportional {
			rowMethod = models.AllocationEven
		}
		switch method {
		case "":
			method = rowMethod
		case rowMethod:
		default:
			method = AllocationMixed
		}

		var allocated decimal.Decimal
		if rowMethod == models.AllocationProportional {
			allocated = alloc.spreadProportional(amount, positive, grossSum)
		} else {
			allocated = alloc.spreadEven(amount, eligible)
		}
		alloc.Summary.AllocatedCost = alloc.Summary.AllocatedCost.Add(allocated)
		alloc.Summary.UnallocatedCost = alloc.Summary.UnallocatedCost.Add(amount.Sub(allocated))
	}

	if method != "" {
		alloc.Summary.AllocationMethod = method
	}
	alloc.Summary.CourseCount = len(eligible)
	if len(eligible) > 0 {
		alloc.Summary.CostPerCourse = roundMoney(alloc.Summary.AllocatedCost.Div(decimal.NewFromInt(int64(len(eligible)))))
	}
	return alloc
}

func (a *Allocation) spreadEven(amount decimal.Decimal, courses []*CourseEconomics) decimal.Decimal {
	n := len(courses)
	if n == 0 {
		return decimal.Zero
	}
	per := roundMoney(amount.Div(decimal.NewFromInt(int64(n))))
	remaining := amount
	for i, c := range courses {
		share := per
		if i == n-1 {
			share = remaining
		}
		remaining = remaining.Sub(share)
		a.add(c.CourseID, share)
	}
	return amount
}

func (a *Allocation) spreadProportional(amount decimal.Decimal, courses []*CourseEconomics, grossSum decimal.Decimal) decimal.Decimal {
	if len(courses) == 0 || !grossSum.IsPositive() {
		return decimal.Zero
	}
	remaining := amount
	for i, c := range courses {
		share := remaining
		if i < len(courses)-1 {
			share = roundMoney(amount.Mul(c.GrossRevenue).Div(grossSum))
		}
		remaining = remaining.Sub(share)
		a.add(c.CourseID, share)
	}
	return amount
}

func (a *Allocation) add(courseID int64, share decimal.Decimal) {
	if current, ok := a.Shares[courseID]; ok {
		a.Shares[courseID] = current.Add(share)
		return
	}
	a.Shares[courseID] = share
}
