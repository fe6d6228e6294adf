package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	financeService "github.com/dumeirei/tutor-finance-backend/internal/service/finance"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type staticConfig struct {
	cfg *financeService.EffectiveConfig
}

func (s *staticConfig) Effective(ctx context.Context) (*financeService.EffectiveConfig, error) {
	return s.cfg, nil
}

var march = time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)

func setupRouter(t *testing.T) (*gin.Engine, *repository.CourseRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	cfg, err := financeService.ParseEffectiveConfig(config.DefaultSettings())
	require.NoError(t, err)
	settings := &staticConfig{cfg: cfg}

	courses := repository.NewCourseRepository(db)
	employees := repository.NewEmployeeRepository(db)
	reports := financeService.NewReportService(
		courses,
		repository.NewPaddingOrderRepository(db),
		repository.NewOperationalCostRepository(db),
		employees,
		settings, nil, zap.NewNop(),
	)
	dividends := financeService.NewDividendService(db, repository.NewDividendRepository(db), reports, settings, nil, zap.NewNop())
	commissions := financeService.NewCommissionService(courses, employees, settings, zap.NewNop())

	r := gin.New()
	NewHandler(reports, dividends, commissions).RegisterRoutes(r.Group("/api/v1"))
	return r, courses
}

func seedMarch(t *testing.T, courses *repository.CourseRepository) {
	t.Helper()
	ctx := context.Background()
	first := &models.Course{
		CustomerID:     1,
		Sessions:       20,
		GiftSessions:   2,
		Price:          decimal.NewFromInt(150),
		Cost:           decimal.NewNullDecimal(decimal.NewFromInt(60)),
		OtherCost:      decimal.NewFromInt(100),
		PaymentChannel: models.PaymentChannelWechat,
		CreatedAt:      march.AddDate(0, 0, 2),
	}
	require.NoError(t, courses.Create(ctx, first))
	require.NoError(t, courses.Create(ctx, &models.Course{
		CustomerID:          1,
		IsRenewal:           true,
		RenewalFromCourseID: &first.ID,
		Sessions:            10,
		Price:               decimal.NewFromInt(200),
		Cost:                decimal.NewNullDecimal(decimal.NewFromInt(90)),
		PaymentChannel:      models.PaymentChannelWechat,
		SnapshotFeeRate:     decimal.RequireFromString("0.948"),
		CreatedAt:           march.AddDate(0, 0, 20),
	}))
}

func do[T any](t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope[T]) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestHandler_GetReport(t *testing.T) {
	r, courses := setupRouter(t)
	seedMarch(t, courses)

	code, env := do[financeService.Report](t, r, http.MethodGet, "/api/v1/finance/report?year=2026&month=3", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "2026-03-01", env.Data.Period.StartDate)
	assert.Equal(t, "2026-03-31", env.Data.Period.EndDate)
	assertMoney(t, "5000", env.Data.Revenue.Total)
	assertMoney(t, "2643.04", env.Data.Profit.Total)
	assert.Len(t, env.Data.Courses, 2)

	// 同一区间用日期表示
	_, byRange := do[financeService.Report](t, r, http.MethodGet, "/api/v1/finance/report?start_date=2026-03-01&end_date=2026-03-31", nil)
	assert.True(t, env.Data.Profit.Total.Equal(byRange.Data.Profit.Total))
	assert.Equal(t, financeService.PeriodRange, byRange.Data.Period.Type)
}

func TestHandler_GetReport_BadPeriod(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name  string
		query string
	}{
		{"月份越界", "year=2026&month=13"},
		{"季度越界", "year=2026&quarter=5"},
		{"月份与季度同时给出", "year=2026&month=1&quarter=1"},
		{"缺少年份", "month=3"},
		{"只有开始日期", "start_date=2026-03-01"},
		{"结束早于开始", "start_date=2026-03-02&end_date=2026-03-01"},
		{"日期格式", "start_date=2026/03/01&end_date=2026-03-02"},
		{"年份不是数字", "year=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do[json.RawMessage](t, r, http.MethodGet, "/api/v1/finance/report?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

func TestHandler_CourseEconomics(t *testing.T) {
	r, courses := setupRouter(t)
	seedMarch(t, courses)

	code, env := do[financeService.CourseEconomics](t, r, http.MethodGet, "/api/v1/finance/courses/1/economics", nil)
	require.Equal(t, http.StatusOK, code)
	assertMoney(t, "3000", env.Data.GrossRevenue)
	assertMoney(t, "1562", env.Data.NetProfit)

	code, _ = do[json.RawMessage](t, r, http.MethodGet, "/api/v1/finance/courses/99/economics", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do[json.RawMessage](t, r, http.MethodGet, "/api/v1/finance/courses/abc/economics", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandler_DividendLifecycle(t *testing.T) {
	r, courses := setupRouter(t)
	seedMarch(t, courses)

	code, preview := do[financeService.DistributionView](t, r, http.MethodGet, "/api/v1/finance/distribution?year=2026&month=3", nil)
	require.Equal(t, http.StatusOK, code)
	assertMoney(t, "1213.42", preview.Data.Distribution.ShareholderA.Amount)

	confirm := ConfirmDividendRequest{Year: 2026, Month: 3}
	code, confirmed := do[financeService.ConfirmResult](t, r, http.MethodPost, "/api/v1/finance/dividends/confirm", confirm)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, confirmed.Data.Records, 2)
	assert.Equal(t, 2, confirmed.Data.Created)

	recordID := confirmed.Data.Records[0].ID
	code, paid := do[models.DividendRecord](t, r, http.MethodPost, "/api/v1/finance/dividends/"+itoa(recordID)+"/pay",
		map[string]string{"payment_method": "bank_transfer"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.DividendStatusPaid, paid.Data.Status)

	// 已支付的月份不能重新确认
	code, conflict := do[json.RawMessage](t, r, http.MethodPost, "/api/v1/finance/dividends/confirm", confirm)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotZero(t, conflict.Code)

	// 已支付的记录不能再取消
	code, _ = do[json.RawMessage](t, r, http.MethodPost, "/api/v1/finance/dividends/"+itoa(recordID)+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do[json.RawMessage](t, r, http.MethodPost, "/api/v1/finance/dividends/"+itoa(recordID)+"/pay", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code, "payment_method 必填")

	code, list := do[struct {
		List  []*models.DividendRecord `json:"list"`
		Total int64                    `json:"total"`
	}](t, r, http.MethodGet, "/api/v1/finance/dividends?year=2026&month=3&status=paid", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), list.Data.Total)

	code, summaries := do[[]*models.DividendSummary](t, r, http.MethodGet, "/api/v1/finance/dividend-summaries", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, summaries.Data, 2)
}

func TestHandler_GetCommissions(t *testing.T) {
	r, _ := setupRouter(t)

	code, env := do[[]*financeService.EmployeeCommission](t, r, http.MethodGet, "/api/v1/finance/commissions?year=2026&month=3", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Data)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
