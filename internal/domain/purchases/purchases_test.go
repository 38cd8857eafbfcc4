package purchases

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/store"
	"stockbook/internal/domain/store/storetest"
)

func newTestService(t *testing.T) (*Service, *storetest.Fake) {
	t.Helper()
	fake := storetest.New()
	return NewService(fake, fake, fake, fake), fake
}

func tenantCtx(tid string) context.Context {
	return tenant.WithID(context.Background(), tid)
}

func seedProduct(t *testing.T, fake *storetest.Fake, ctx context.Context, quantity int64) id.ID {
	t.Helper()
	doc, err := fake.Create(ctx, store.KindProducts, store.Draft{Attributes: map[string]any{
		"name":     "widget",
		"quantity": quantity,
	}})
	require.NoError(t, err)
	return doc.ID
}

func purchaseInput(productID id.ID, qty int64, status Status) Input {
	return Input{
		SupplierName: "Supplies Inc",
		Lines:        []Line{{ProductID: productID, Quantity: qty, UnitCost: decimal.NewFromInt(4)}},
		TotalAmount:  decimal.NewFromInt(4 * qty),
		Status:       status,
	}
}

func TestCreate_ReceivedPurchaseIncrementsStock(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, 5)

	doc, err := svc.Create(ctx, purchaseInput(pid, 7, StatusReceived))
	require.NoError(t, err)

	assert.EqualValues(t, 12, fake.ProductQuantity(pid))
	assert.Equal(t, "PO-0001", doc.SequentialNumber)
}

func TestCreate_OrderedPurchaseHasNoStockEffect(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, 5)

	_, err := svc.Create(ctx, purchaseInput(pid, 7, StatusOrdered))
	require.NoError(t, err)
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))
}

func TestCreate_UnknownProductRollsBack(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")

	_, err := svc.Create(ctx, purchaseInput(id.New(), 7, StatusReceived))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeProductNotFound))
	assert.Equal(t, 0, fake.DocCount(store.KindPurchases))
}

func TestReceive_IncrementsStockOnce(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, 5)

	doc, err := svc.Create(ctx, purchaseInput(pid, 3, StatusOrdered))
	require.NoError(t, err)
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))

	received, err := svc.Receive(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusReceived), received.StringAttr("status"))
	assert.EqualValues(t, 8, fake.ProductQuantity(pid))

	// receiving twice is a conflict and must not double-count
	_, err = svc.Receive(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
	assert.EqualValues(t, 8, fake.ProductQuantity(pid))
}

func TestReceive_ForeignPurchaseNotFound(t *testing.T) {
	svc, fake := newTestService(t)
	ctxA := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctxA, 5)

	doc, err := svc.Create(ctxA, purchaseInput(pid, 3, StatusOrdered))
	require.NoError(t, err)

	_, err = svc.Receive(tenantCtx("tenant-b"), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))
}

func TestCreate_RequiresTenant(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), purchaseInput(id.New(), 1, StatusOrdered))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthenticated))
}
