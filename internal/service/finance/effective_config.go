package finance

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// splitTolerance 分成比例之和允许的误差
var splitTolerance = decimal.RequireFromString("0.01")

// SplitRatio 两位股东的分成百分比
type SplitRatio struct {
	A decimal.Decimal `json:"a"`
	B decimal.Decimal `json:"b"`
}

// Validate 两项之和必须为 100
func (r SplitRatio) Validate(name string) error {
	if r.A.IsNegative() || r.B.IsNegative() {
		return errors.ErrConfigInvalid.WithMessagef("%s 分成比例不能为负数", name)
	}
	if r.A.Add(r.B).Sub(hundred).Abs().GreaterThan(splitTolerance) {
		return errors.ErrConfigInvalid.WithMessagef("%s 分成比例之和必须为100，当前为 %s", name, r.A.Add(r.B).String())
	}
	return nil
}

// EffectiveConfig 解析后的业务配置，计算时显式传入
type EffectiveConfig struct {
	TrialCost        decimal.Decimal            `json:"trial_cost"`
	CourseCost       decimal.Decimal            `json:"course_cost"`
	TaobaoFeeRate    decimal.Decimal            `json:"taobao_fee_rate"`
	FeeRates         map[string]decimal.Decimal `json:"fee_rates"`
	NewCourseSplit   SplitRatio                 `json:"new_course_split"`
	RenewalSplit     SplitRatio                 `json:"renewal_split"`
	ShareholderAName string                     `json:"shareholder_a_name"`
	ShareholderBName string                     `json:"shareholder_b_name"`
	Products         []string                   `json:"products"`
}

// FeeRate 返回支付渠道费率，未配置的渠道为 0
func (c *EffectiveConfig) FeeRate(channel string) decimal.Decimal {
	if rate, ok := c.FeeRates[channel]; ok {
		return rate
	}
	return decimal.Zero
}

// Channels 已配置费率的渠道，按名称排序
func (c *EffectiveConfig) Channels() []string {
	channels := make([]string, 0, len(c.FeeRates))
	for ch := range c.FeeRates {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// Validate 校验分成比例
func (c *EffectiveConfig) Validate() error {
	if err := c.NewCourseSplit.Validate("新课"); err != nil {
		return err
	}
	return c.RenewalSplit.Validate("续课")
}

// ParseEffectiveConfig 将键值配置解析为 EffectiveConfig，未识别的键忽略
func ParseEffectiveConfig(values map[string]string) (*EffectiveConfig, error) {
	cfg := &EffectiveConfig{
		FeeRates:         make(map[string]decimal.Decimal),
		ShareholderAName: strings.TrimSpace(values[models.SettingShareholderAName]),
		ShareholderBName: strings.TrimSpace(values[models.SettingShareholderBName]),
		Products:         []string{},
	}
	if cfg.ShareholderAName == "" {
		cfg.ShareholderAName = "股东A"
	}
	if cfg.ShareholderBName == "" {
		cfg.ShareholderBName = "股东B"
	}
	if cfg.ShareholderAName == cfg.ShareholderBName {
		return nil, errors.ErrConfigInvalid.WithMessage("两位股东名称不能相同")
	}

	var err error
	if cfg.TrialCost, err = parseAmount(values, models.SettingTrialCost); err != nil {
		return nil, err
	}
	if cfg.CourseCost, err = parseAmount(values, models.SettingCourseCost); err != nil {
		return nil, err
	}
	if cfg.TaobaoFeeRate, err = parsePercent(values, models.SettingTaobaoFeeRate); err != nil {
		return nil, err
	}
	if cfg.NewCourseSplit.A, err = parsePercent(values, models.SettingNewCourseShareholderA); err != nil {
		return nil, err
	}
	if cfg.NewCourseSplit.B, err = parsePercent(values, models.SettingNewCourseShareholderB); err != nil {
		return nil, err
	}
	if cfg.RenewalSplit.A, err = parsePercent(values, models.SettingRenewalShareholderA); err != nil {
		return nil, err
	}
	if cfg.RenewalSplit.B, err = parsePercent(values, models.SettingRenewalShareholderB); err != nil {
		return nil, err
	}

	for key := range values {
		if !strings.HasPrefix(key, models.SettingFeeRatePrefix) {
			continue
		}
		channel := strings.TrimPrefix(key, models.SettingFeeRatePrefix)
		if channel == "" {
			continue
		}
		rate, err := parsePercent(values, key)
		if err != nil {
			return nil, err
		}
		cfg.FeeRates[channel] = rate
	}

	if raw := strings.TrimSpace(values[models.SettingShuadanProducts]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Products); err != nil {
			return nil, errors.ErrConfigInvalid.WithMessagef("%s 不是合法的 JSON 数组", models.SettingShuadanProducts).WithError(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseAmount 解析非负金额，缺省为 0
func parseAmount(values map[string]string, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.ErrConfigInvalid.WithMessagef("%s 不是合法数字: %q", key, raw).WithError(err)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.ErrConfigInvalid.WithMessagef("%s 不能为负数", key)
	}
	return d, nil
}

// parsePercent 解析 0-100 的百分比
func parsePercent(values map[string]string, key string) (decimal.Decimal, error) {
	d, err := parseAmount(values, key)
	if err != nil {
		return d, err
	}
	if d.GreaterThan(hundred) {
		return decimal.Zero, errors.ErrConfigInvalid.WithMessage(fmt.Sprintf("%s 必须在 0-100 之间", key))
	}
	return d, nil
}
