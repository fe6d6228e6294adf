package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaddingOrder 刷单记录
type PaddingOrder struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerName string          `gorm:"type:varchar(50);not null;default:''" json:"customer_name"`
	Level        string          `gorm:"type:varchar(20);not null;default:''" json:"level"`
	ProductName  string          `gorm:"type:varchar(100);not null" json:"product_name"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Commission   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"commission"`
	Evaluated    bool            `gorm:"not null;default:false" json:"evaluated"`
	OrderTime    time.Time       `gorm:"not null;index" json:"order_time"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (PaddingOrder) TableName() string {
	return "taobao_order"
}
