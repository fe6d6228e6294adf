// Package finance 财务核算单元测试
package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

// defaultConfig 出厂配置，可按需覆盖
func defaultConfig(t *testing.T, overrides map[string]string) *EffectiveConfig {
	t.Helper()
	values := config.DefaultSettings()
	for k, v := range overrides {
		values[k] = v
	}
	cfg, err := ParseEffectiveConfig(values)
	require.NoError(t, err)
	return cfg
}

// staticConfig 固定配置来源
type staticConfig struct {
	cfg *EffectiveConfig
	err error
}

func (s *staticConfig) Effective(ctx context.Context) (*EffectiveConfig, error) {
	return s.cfg, s.err
}

var march = time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)

func mustMonth(t *testing.T, year, month int) Period {
	t.Helper()
	p, err := MonthPeriod(year, month)
	require.NoError(t, err)
	return p
}

func decimalZero() decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.Zero)
}
