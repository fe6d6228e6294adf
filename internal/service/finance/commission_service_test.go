package finance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

func TestCommissionService_Commissions(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()
	first, renewal := f.seedNewAndRenewal(t)

	alice := &models.Employee{Name: "Alice", BaseSalary: d("3100")}
	bob := &models.Employee{Name: "Bob", BaseSalary: d("6200")}
	require.NoError(t, f.employees.Create(ctx, alice))
	require.NoError(t, f.employees.Create(ctx, bob))
	require.NoError(t, f.employees.UpsertCommissionConfig(ctx, &models.CommissionConfig{
		EmployeeID:     alice.ID,
		CommissionType: models.CommissionTypeRevenue,
		NewCourseRate:  d("2"),
		RenewalRate:    d("1"),
	}))
	for _, id := range []int64{first.ID, renewal.ID} {
		require.NoError(t, f.courses.UpdateFields(ctx, id, map[string]interface{}{"assigned_employee_id": alice.ID}))
	}
	f.addCourse(t, &models.Course{Name: "异常", Price: d("100"), AssignedEmployeeID: &alice.ID, CreatedAt: march.AddDate(0, 0, 4)})
	f.addCourse(t, &models.Course{Name: "四月", Sessions: 1, Price: d("100"), AssignedEmployeeID: &alice.ID, CreatedAt: march.AddDate(0, 1, 0)})

	svc := NewCommissionService(f.courses, f.employees, f.config, zap.NewNop())
	results, err := svc.Commissions(ctx, mustMonth(t, 2026, 3))
	require.NoError(t, err)
	require.Len(t, results, 2)

	a := results[0]
	assert.Equal(t, alice.ID, a.EmployeeID)
	assert.Equal(t, models.CommissionTypeRevenue, a.CommissionType)
	assert.Equal(t, 2, a.CourseCount)
	assertMoney(t, "60", a.NewCourseCommission)
	assertMoney(t, "20", a.RenewalCommission)
	assertMoney(t, "3180", a.Total)

	b := results[1]
	assertMoney(t, "0", b.Commission)
	assertMoney(t, "6200", b.Total)

	// 半个月底薪折算
	period, err := RangePeriod(march, march.AddDate(0, 0, 14))
	require.NoError(t, err)
	results, err = svc.Commissions(ctx, period)
	require.NoError(t, err)
	assertMoney(t, "1500", results[0].BaseSalary)
	assertMoney(t, "3000", results[1].BaseSalary)
}

func TestCommissionService_SkipsMissingReference(t *testing.T) {
	f := newFinanceFixture(t)
	ctx := context.Background()

	alice := &models.Employee{Name: "Alice", BaseSalary: d("3100")}
	require.NoError(t, f.employees.Create(ctx, alice))
	require.NoError(t, f.employees.UpsertCommissionConfig(ctx, &models.CommissionConfig{
		EmployeeID:     alice.ID,
		CommissionType: models.CommissionTypeRevenue,
		NewCourseRate:  d("2"),
		RenewalRate:    d("10"),
	}))
	ghost := int64(9999)
	f.addCourse(t, &models.Course{
		Name:                "悬空续课",
		IsRenewal:           true,
		RenewalFromCourseID: &ghost,
		Sessions:            10,
		Price:               d("100"),
		AssignedEmployeeID:  &alice.ID,
		CreatedAt:           march.AddDate(0, 0, 5),
	})

	period := mustMonth(t, 2026, 3)
	results, err := NewCommissionService(f.courses, f.employees, f.config, zap.NewNop()).Commissions(ctx, period)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].CourseCount)
	assertMoney(t, "0", results[0].Commission)
	assertMoney(t, "3100", results[0].Total)

	// 与报表中的员工提成一致
	report, err := f.reportService(zap.NewNop()).Generate(ctx, period)
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	require.Len(t, report.Employees, 1)
	assert.True(t, report.Employees[0].Commission.Equal(results[0].Commission))
	assert.True(t, report.Employees[0].Total.Equal(results[0].Total))
}
