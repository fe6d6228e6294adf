package staff

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(repository.NewEmployeeRepository(testutil.NewTestDB(t)), zap.NewNop())
}

func TestService_CreateEmployee(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, &CreateEmployeeRequest{
		Name:       "小王",
		Phone:      "13900139000",
		Email:      "wang@example.com",
		BaseSalary: decimal.NewFromInt(3100),
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	_, err = svc.CreateEmployee(ctx, &CreateEmployeeRequest{Name: "小李", Email: "not-an-email"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)
	_, err = svc.CreateEmployee(ctx, &CreateEmployeeRequest{Name: "小李", BaseSalary: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)
	_, err = svc.CreateEmployee(ctx, &CreateEmployeeRequest{Name: "  "})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	list, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].CommissionConfig)
}

func TestService_UpsertCommissionConfig(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, &CreateEmployeeRequest{Name: "小王"})
	require.NoError(t, err)

	cfg, err := svc.UpsertCommissionConfig(ctx, e.ID, &CommissionConfigRequest{
		NewCourseRate: decimal.NewFromInt(10),
		RenewalRate:   decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, models.CommissionTypeProfit, cfg.CommissionType)

	cfg, err = svc.UpsertCommissionConfig(ctx, e.ID, &CommissionConfigRequest{
		CommissionType: models.CommissionTypeRevenue,
		TrialRate:      decimal.NewFromInt(20),
		BaseSalary:     decimal.NewFromInt(4000),
	})
	require.NoError(t, err)
	assert.Equal(t, models.CommissionTypeRevenue, cfg.CommissionType)
	assert.True(t, cfg.NewCourseRate.IsZero())
	assert.True(t, decimal.NewFromInt(20).Equal(cfg.TrialRate))

	list, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].CommissionConfig)
	assert.Equal(t, cfg.ID, list[0].CommissionConfig.ID)
}

func TestService_UpsertCommissionConfig_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, &CreateEmployeeRequest{Name: "小王"})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   int64
		req  *CommissionConfigRequest
		want *errors.AppError
	}{
		{"费率超过100", e.ID, &CommissionConfigRequest{RenewalRate: decimal.NewFromInt(101)}, errors.ErrInvalidParams},
		{"负费率", e.ID, &CommissionConfigRequest{TrialRate: decimal.NewFromInt(-1)}, errors.ErrInvalidParams},
		{"未知提成方式", e.ID, &CommissionConfigRequest{CommissionType: "bonus"}, errors.ErrInvalidParams},
		{"员工不存在", 999, &CommissionConfigRequest{}, errors.ErrEmployeeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertCommissionConfig(ctx, tt.id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
