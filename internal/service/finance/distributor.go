package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ShareholderShare 单个股东的分成
type ShareholderShare struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Ratio  string          `json:"ratio"`
}

// Distribution 股东分成结果
type Distribution struct {
	NewCourseBase decimal.Decimal  `json:"new_course_base"` // 新课、体验课与退款利润
	RenewalBase   decimal.Decimal  `json:"renewal_base"`
	TotalProfit   decimal.Decimal  `json:"total_profit"`
	ShareholderA  ShareholderShare `json:"shareholder_a"`
	ShareholderB  ShareholderShare `json:"shareholder_b"`
}

// Shares 按 A、B 顺序返回
func (d *Distribution) Shares() []ShareholderShare {
	return []ShareholderShare{d.ShareholderA, d.ShareholderB}
}

// Distribute 按新课与续课比例拆分利润，体验课和退款跟随新课比例
//
// B 的分成为总利润减去 A 的分成，两者之和恒等于四类利润之和。
func Distribute(profit ProfitSection, cfg *EffectiveConfig) (*Distribution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	newBase := sumMoney(profit.NewCourse, profit.Trial, profit.Refund)
	renewalBase := profit.Renewal
	total := newBase.Add(renewalBase)

	a := roundMoney(percentOf(newBase, cfg.NewCourseSplit.A).Add(percentOf(renewalBase, cfg.RenewalSplit.A)))
	return &Distribution{
		NewCourseBase: newBase,
		RenewalBase:   renewalBase,
		TotalProfit:   total,
		ShareholderA: ShareholderShare{
			Name:   cfg.ShareholderAName,
			Amount: a,
			Ratio:  ratioLabel(cfg.NewCourseSplit.A, cfg.RenewalSplit.A),
		},
		ShareholderB: ShareholderShare{
			Name:   cfg.ShareholderBName,
			Amount: total.Sub(a),
			Ratio:  ratioLabel(cfg.NewCourseSplit.B, cfg.RenewalSplit.B),
		},
	}, nil
}

func ratioLabel(newCourse, renewal decimal.Decimal) string {
	return fmt.Sprintf("new_course:%s%%,renewal:%s%%", newCourse.String(), renewal.String())
}
