// Package models 定义数据模型
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer 客户
type Customer struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string    `gorm:"type:varchar(50);not null" json:"name"`
	Phone                 *string   `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Source                string    `gorm:"type:varchar(50);not null;default:''" json:"source"`
	HasTutoringExperience bool      `gorm:"not null;default:false" json:"has_tutoring_experience"`
	CreatedAt             time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 表名
func (Customer) TableName() string {
	return "customer"
}

// TrialStatus 体验课状态
const (
	TrialStatusRegistered = "registered" // 已报名
	TrialStatusConverted  = "converted"  // 已转正
	TrialStatusRefunded   = "refunded"   // 已退款
	TrialStatusLost       = "lost"       // 已流失
)

// PaymentChannel 支付渠道，对应配置键 fee_rate_<channel>
const (
	PaymentChannelWechat = "wechat"
	PaymentChannelAlipay = "alipay"
	PaymentChannelBank   = "bank"
)

// Course 课程，体验课、新课、续课和退款记录共用一张表
type Course struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	Name       string `gorm:"type:varchar(100);not null;default:''" json:"name"`

	IsTrial             bool   `gorm:"not null;default:false" json:"is_trial"`
	IsRenewal           bool   `gorm:"not null;default:false" json:"is_renewal"`
	RenewalFromCourseID *int64 `gorm:"index" json:"renewal_from_course_id,omitempty"`
	RefundOfCourseID    *int64 `gorm:"index" json:"refund_of_course_id,omitempty"`

	Sessions       int                 `gorm:"not null;default:0" json:"sessions"`
	GiftSessions   int                 `gorm:"not null;default:0" json:"gift_sessions"`
	RefundSessions int                 `gorm:"not null;default:0" json:"refund_sessions"`
	Price          decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	TrialPrice     decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"trial_price"`
	Cost           decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"cost"`
	OtherCost      decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"other_cost"`
	PaymentChannel string              `gorm:"type:varchar(20);not null;default:''" json:"payment_channel"`

	TrialStatus       string `gorm:"type:varchar(20);not null;default:''" json:"trial_status,omitempty"`
	ConvertedToCourse *int64 `gorm:"column:converted_to_course" json:"converted_to_course,omitempty"`

	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"refund_amount"`
	RefundFee    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"refund_fee"`

	// 录入时冻结，计算时优先于实时配置
	SnapshotCourseCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"snapshot_course_cost"`
	SnapshotFeeRate    decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"snapshot_fee_rate"`

	AssignedEmployeeID *int64    `gorm:"index" json:"assigned_employee_id,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName 表名
func (Course) TableName() string {
	return "course"
}

// IsRefundRecord 是否为退款记录
func (c *Course) IsRefundRecord() bool {
	return !c.IsTrial && c.Sessions == 0 && c.RefundAmount.IsPositive()
}
