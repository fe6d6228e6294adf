package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee 员工
type Employee struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string          `gorm:"type:varchar(50);not null" json:"name"`
	Phone      string          `gorm:"type:varchar(20);not null;default:''" json:"phone"`
	Email      string          `gorm:"type:varchar(100);not null;default:''" json:"email"`
	BaseSalary decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"base_salary"` // 月薪
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`

	CommissionConfig *CommissionConfig `gorm:"foreignKey:EmployeeID" json:"commission_config,omitempty"`
}

// TableName 表名
func (Employee) TableName() string {
	return "employee"
}

// CommissionType 提成方式
const (
	CommissionTypeProfit  = "profit"  // 按利润
	CommissionTypeRevenue = "revenue" // 按营收
)

// CommissionConfig 员工提成配置，费率为百分比
type CommissionConfig struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID     int64           `gorm:"uniqueIndex;not null" json:"employee_id"`
	CommissionType string          `gorm:"type:varchar(20);not null;default:'profit'" json:"commission_type"`
	TrialRate      decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"trial_rate"`
	NewCourseRate  decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"new_course_rate"`
	RenewalRate    decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"renewal_rate"`
	BaseSalary     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"base_salary"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (CommissionConfig) TableName() string {
	return "commission_config"
}
