package padding

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	"github.com/dumeirei/tutor-finance-backend/internal/service/finance"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

type staticProducts struct {
	names []string
	err   error
}

func (p *staticProducts) Products(ctx context.Context) ([]string, error) {
	return p.names, p.err
}

func newService(t *testing.T, products ProductSource) *Service {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewService(repository.NewPaddingOrderRepository(db), products, zap.NewNop())
}

func TestService_Create(t *testing.T) {
	products := &staticProducts{names: []string{"雅思口语陪练", "托福口语陪练"}}
	svc := newService(t, products)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	order, err := svc.Create(ctx, &CreateRequest{
		CustomerName: "买家",
		ProductName:  " 雅思口语陪练 ",
		Amount:       decimal.RequireFromString("100"),
		Commission:   decimal.RequireFromString("10"),
		OrderTime:    &at,
	})
	require.NoError(t, err)
	assert.Equal(t, "雅思口语陪练", order.ProductName)
	assert.True(t, at.Equal(order.OrderTime))

	_, err = svc.Create(ctx, &CreateRequest{ProductName: "少儿英语", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, errors.ErrUnknownProduct)

	_, err = svc.Create(ctx, &CreateRequest{ProductName: "雅思口语陪练", Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	// 商品下架后历史记录保留原名称
	products.names = []string{"托福口语陪练"}
	march, err := finance.MonthPeriod(2026, 3)
	require.NoError(t, err)
	orders, err := svc.List(ctx, march)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "雅思口语陪练", orders[0].ProductName)
}

func TestService_Create_ProductSourceError(t *testing.T) {
	boom := stderrors.New("boom")
	svc := newService(t, &staticProducts{err: boom})

	_, err := svc.Create(context.Background(), &CreateRequest{ProductName: "雅思口语陪练"})
	assert.ErrorIs(t, err, boom)
}

func TestService_ListByPeriod(t *testing.T) {
	svc := newService(t, &staticProducts{names: []string{"雅思口语陪练"}})
	ctx := context.Background()

	for _, at := range []time.Time{
		time.Date(2026, 2, 28, 23, 59, 0, 0, time.Local),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local),
		time.Date(2026, 3, 31, 23, 59, 0, 0, time.Local),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local),
	} {
		at := at
		_, err := svc.Create(ctx, &CreateRequest{ProductName: "雅思口语陪练", OrderTime: &at})
		require.NoError(t, err)
	}

	march, err := finance.MonthPeriod(2026, 3)
	require.NoError(t, err)
	orders, err := svc.List(ctx, march)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestService_MarkEvaluated(t *testing.T) {
	svc := newService(t, &staticProducts{names: []string{"雅思口语陪练"}})
	ctx := context.Background()

	order, err := svc.Create(ctx, &CreateRequest{ProductName: "雅思口语陪练"})
	require.NoError(t, err)
	assert.False(t, order.Evaluated)

	for i := 0; i < 2; i++ {
		got, err := svc.MarkEvaluated(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, got.Evaluated)
	}

	_, err = svc.MarkEvaluated(ctx, 999)
	assert.ErrorIs(t, err, errors.ErrPaddingOrderNotFound)
}
