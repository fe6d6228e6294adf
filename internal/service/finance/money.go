package finance

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// roundMoney 金额保留两位小数，0.5 按银行家舍入
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// percentOf 计算 amount × rate%，结果未舍入
func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

func sumMoney(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// clampZero 负数按零处理
func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
