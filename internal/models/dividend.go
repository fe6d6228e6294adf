package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DividendStatus 分红状态
const (
	DividendStatusPending   = "pending"   // 待支付
	DividendStatusPaid      = "paid"      // 已支付
	DividendStatusCancelled = "cancelled" // 已取消
)

// DividendRecord 股东分红记录
type DividendRecord struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ShareholderName     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_dividend_period" json:"shareholder_name"`
	PeriodYear          int             `gorm:"not null;uniqueIndex:idx_dividend_period" json:"period_year"`
	PeriodMonth         int             `gorm:"not null;uniqueIndex:idx_dividend_period" json:"period_month"`
	CalculatedProfit    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"calculated_profit"`
	ActualDividend      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"actual_dividend"`
	DividendDate        time.Time       `gorm:"not null;uniqueIndex:idx_dividend_period" json:"dividend_date"`
	Status              string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod       string          `gorm:"type:varchar(20);not null;default:''" json:"payment_method"`
	SnapshotTotalProfit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"snapshot_total_profit"`
	SnapshotProfitRatio string          `gorm:"type:varchar(50);not null;default:''" json:"snapshot_profit_ratio"`
	Remarks             string          `gorm:"type:text" json:"remarks"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (DividendRecord) TableName() string {
	return "dividend_record"
}

// IsClosed 已支付或已取消的记录不再变动
func (r *DividendRecord) IsClosed() bool {
	return r.Status == DividendStatusPaid || r.Status == DividendStatusCancelled
}

// DividendSummary 股东分红汇总，由分红记录重算得到
type DividendSummary struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ShareholderName  string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"shareholder_name"`
	TotalCalculated  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_calculated"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_paid"`
	TotalPending     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_pending"`
	RecordCount      int             `gorm:"not null;default:0" json:"record_count"`
	LastDividendDate *time.Time      `json:"last_dividend_date,omitempty"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (DividendSummary) TableName() string {
	return "dividend_summary"
}
