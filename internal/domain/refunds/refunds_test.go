package refunds

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/sales"
	"stockbook/internal/domain/store"
	"stockbook/internal/domain/store/storetest"
)

type fixture struct {
	refunds *Service
	sales   *sales.Service
	fake    *storetest.Fake
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := storetest.New()
	return &fixture{
		refunds: NewService(fake, fake, fake),
		sales:   sales.NewService(fake, fake, fake, fake),
		fake:    fake,
		ctx:     tenant.WithID(context.Background(), "tenant-a"),
	}
}

func (f *fixture) seedProduct(t *testing.T, quantity int64) id.ID {
	t.Helper()
	doc, err := f.fake.Create(f.ctx, store.KindProducts, store.Draft{Attributes: map[string]any{
		"name":     "widget",
		"quantity": quantity,
	}})
	require.NoError(t, err)
	return doc.ID
}

func (f *fixture) completedSale(t *testing.T, pid id.ID, qty int64) *store.Document {
	t.Helper()
	doc, err := f.sales.Create(f.ctx, sales.Input{
		CustomerName:  "ACME Ltd",
		Lines:         []sales.Line{{ProductID: pid, Quantity: qty, UnitPrice: decimal.NewFromInt(10)}},
		TotalAmount:   decimal.NewFromInt(10 * qty),
		PaymentMethod: "cash",
		Status:        sales.StatusCompleted,
	})
	require.NoError(t, err)
	return doc
}

func TestCreate_RestoresStock(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)
	sale := f.completedSale(t, pid, 4)
	require.EqualValues(t, 6, f.fake.ProductQuantity(pid))

	doc, err := f.refunds.Create(f.ctx, Input{
		SaleID: sale.ID,
		Lines:  []Line{{ProductID: pid, Quantity: 3}},
		Reason: "damaged in transit",
	})
	require.NoError(t, err)

	assert.EqualValues(t, 9, f.fake.ProductQuantity(pid))
	assert.Equal(t, sale.SequentialNumber, doc.StringAttr("sale_number"))
}

func TestCreate_RejectsOverRefund(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)
	sale := f.completedSale(t, pid, 4)

	_, err := f.refunds.Create(f.ctx, Input{
		SaleID: sale.ID,
		Lines:  []Line{{ProductID: pid, Quantity: 5}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRefundExceedsSale))
	assert.EqualValues(t, 6, f.fake.ProductQuantity(pid))
	assert.Equal(t, 0, f.fake.DocCount(store.KindRefunds))
}

func TestCreate_CumulativeRefundsCapped(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)
	sale := f.completedSale(t, pid, 4)

	_, err := f.refunds.Create(f.ctx, Input{SaleID: sale.ID, Lines: []Line{{ProductID: pid, Quantity: 3}}})
	require.NoError(t, err)

	// 3 already refunded; another 2 would exceed the 4 sold
	_, err = f.refunds.Create(f.ctx, Input{SaleID: sale.ID, Lines: []Line{{ProductID: pid, Quantity: 2}}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRefundExceedsSale))

	_, err = f.refunds.Create(f.ctx, Input{SaleID: sale.ID, Lines: []Line{{ProductID: pid, Quantity: 1}}})
	require.NoError(t, err)
	assert.EqualValues(t, 10, f.fake.ProductQuantity(pid))
}

func TestCreate_ConcurrentFullRefundsOnlyOneSucceeds(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)
	sale := f.completedSale(t, pid, 5)
	require.EqualValues(t, 5, f.fake.ProductQuantity(pid))

	// both refund the entire sold quantity at once; the cap check runs
	// inside the unit of work, so the loser must see the winner's refund
	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.refunds.Create(f.ctx, Input{
				SaleID: sale.ID,
				Lines:  []Line{{ProductID: pid, Quantity: 5}},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, capped int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsCode(err, apperror.CodeRefundExceedsSale):
			capped++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, capped)
	assert.Equal(t, 1, f.fake.DocCount(store.KindRefunds))
	assert.EqualValues(t, 10, f.fake.ProductQuantity(pid))
}

func TestCreate_PendingSaleNotRefundable(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)

	sale, err := f.sales.Create(f.ctx, sales.Input{
		CustomerName:  "ACME Ltd",
		Lines:         []sales.Line{{ProductID: pid, Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
		TotalAmount:   decimal.NewFromInt(20),
		PaymentMethod: "cash",
		Status:        sales.StatusPending,
	})
	require.NoError(t, err)

	_, err = f.refunds.Create(f.ctx, Input{SaleID: sale.ID, Lines: []Line{{ProductID: pid, Quantity: 1}}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestCreate_ProductNotInSale(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)
	other := f.seedProduct(t, 10)
	sale := f.completedSale(t, pid, 2)

	_, err := f.refunds.Create(f.ctx, Input{SaleID: sale.ID, Lines: []Line{{ProductID: other, Quantity: 1}}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeProductNotFound))
}

func TestCreate_ForeignSaleNotVisible(t *testing.T) {
	f := newFixture(t)
	pid := f.seedProduct(t, 10)
	sale := f.completedSale(t, pid, 2)

	ctxB := tenant.WithID(context.Background(), "tenant-b")
	_, err := f.refunds.Create(ctxB, Input{SaleID: sale.ID, Lines: []Line{{ProductID: pid, Quantity: 1}}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestCreate_RequiresTenant(t *testing.T) {
	f := newFixture(t)
	_, err := f.refunds.Create(context.Background(), Input{SaleID: id.New(), Lines: []Line{{ProductID: id.New(), Quantity: 1}}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthenticated))
}
