package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingPeriod 计费周期
const (
	BillingPeriodDay     = "day"
	BillingPeriodWeek    = "week"
	BillingPeriodMonth   = "month"
	BillingPeriodQuarter = "quarter"
	BillingPeriodYear    = "year"
	BillingPeriodOneTime = "one_time"
)

// AllocationMethod 分摊方式
const (
	AllocationEven         = "even"         // 平均分摊
	AllocationProportional = "proportional" // 按收入比例分摊
)

// OperationalCostStatus 运营成本状态
const (
	OpCostStatusActive   = "active"
	OpCostStatusArchived = "archived"
)

// OperationalCost 运营成本
type OperationalCost struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CostType           string          `gorm:"type:varchar(50);not null;index" json:"cost_type"`
	CostName           string          `gorm:"type:varchar(100);not null" json:"cost_name"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	CostDate           time.Time       `gorm:"not null;index" json:"cost_date"`
	BillingPeriod      string          `gorm:"type:varchar(20);not null;default:'one_time'" json:"billing_period"`
	AllocationMethod   string          `gorm:"type:varchar(20);not null;default:'even'" json:"allocation_method"`
	AllocatedToCourses bool            `gorm:"not null;default:false" json:"allocated_to_courses"`
	Supplier           string          `gorm:"type:varchar(100);not null;default:''" json:"supplier"`
	PaymentRecipient   string          `gorm:"type:varchar(100);not null;default:''" json:"payment_recipient"`
	InvoiceNumber      string          `gorm:"type:varchar(64);not null;default:''" json:"invoice_number"`
	Status             string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Description        string          `gorm:"type:text" json:"description"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (OperationalCost) TableName() string {
	return "operational_cost"
}

// IsAllocable 是否参与课程分摊
func (c *OperationalCost) IsAllocable() bool {
	return c.Status == OpCostStatusActive && c.AllocatedToCourses
}
