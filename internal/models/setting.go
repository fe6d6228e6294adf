package models

import "time"

// Setting 业务配置项，值一律以字符串存储，读取时再解析
type Setting struct {
	Key         string    `gorm:"primaryKey;type:varchar(100);column:key" json:"key"`
	Value       string    `gorm:"type:text;not null;column:value" json:"value"`
	Description string    `gorm:"type:varchar(255);not null;default:'';column:description" json:"description"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

// TableName 表名
func (Setting) TableName() string {
	return "config"
}

// 业务配置键
const (
	SettingTrialCost             = "trial_cost"
	SettingCourseCost            = "course_cost"
	SettingTaobaoFeeRate         = "taobao_fee_rate"
	SettingFeeRatePrefix         = "fee_rate_"
	SettingNewCourseShareholderA = "new_course_shareholder_a"
	SettingNewCourseShareholderB = "new_course_shareholder_b"
	SettingRenewalShareholderA   = "renewal_shareholder_a"
	SettingRenewalShareholderB   = "renewal_shareholder_b"
	SettingShareholderAName      = "shareholder_a_name"
	SettingShareholderBName      = "shareholder_b_name"
	SettingShuadanProducts       = "shuadan_products"
)

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Customer{},
		&Course{},
		&PaddingOrder{},
		&OperationalCost{},
		&Employee{},
		&CommissionConfig{},
		&DividendRecord{},
		&DividendSummary{},
		&Setting{},
	}
}
