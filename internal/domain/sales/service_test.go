package sales

import (
	"context"
	"errors"
	"regexp"
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

func seedProduct(t *testing.T, fake *storetest.Fake, ctx context.Context, name string, quantity int64) id.ID {
	t.Helper()
	doc, err := fake.Create(ctx, store.KindProducts, store.Draft{Attributes: map[string]any{
		"name":     name,
		"quantity": quantity,
	}})
	require.NoError(t, err)
	return doc.ID
}

func saleInput(productID id.ID, qty int64, status Status) Input {
	return Input{
		CustomerName:  "ACME Ltd",
		Lines:         []Line{{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(10)}},
		TotalAmount:   decimal.NewFromInt(10 * qty),
		PaymentMethod: "cash",
		Status:        status,
	}
}

func TestCreate_CompletedSaleDecrementsStock(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 5)

	doc, err := svc.Create(ctx, saleInput(pid, 3, StatusCompleted))
	require.NoError(t, err)

	assert.EqualValues(t, 2, fake.ProductQuantity(pid))
	assert.Regexp(t, regexp.MustCompile(`^SO-\d{4,}$`), doc.SequentialNumber)
	assert.Equal(t, "SO-0001", doc.SequentialNumber)
}

func TestCreate_InsufficientStockRollsBackEverything(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 5)

	_, err := svc.Create(ctx, saleInput(pid, 6, StatusCompleted))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, pid.String(), appErr.Details["product_id"])

	// quantity unchanged, no sale document persisted
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))
	assert.Equal(t, 0, fake.DocCount(store.KindSales))
}

func TestCreate_PartialShortageRollsBackPriorDecrements(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	p1 := seedProduct(t, fake, ctx, "widget", 10)
	p2 := seedProduct(t, fake, ctx, "gadget", 1)

	in := Input{
		CustomerName: "ACME Ltd",
		Lines: []Line{
			{ProductID: p1, Quantity: 4, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: p2, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		},
		TotalAmount:   decimal.NewFromInt(60),
		PaymentMethod: "card",
		Status:        StatusCompleted,
	}

	_, err := svc.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// the first line's decrement must have been rolled back too
	assert.EqualValues(t, 10, fake.ProductQuantity(p1))
	assert.EqualValues(t, 1, fake.ProductQuantity(p2))
	assert.Equal(t, 0, fake.DocCount(store.KindSales))
}

func TestCreate_PendingSaleHasNoInventoryEffect(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 5)

	// quantity far above stock: pending sales never touch inventory
	doc, err := svc.Create(ctx, saleInput(pid, 100, StatusPending))
	require.NoError(t, err)

	assert.EqualValues(t, 5, fake.ProductQuantity(pid))
	assert.Equal(t, "pending", doc.StringAttr("status"))
}

func TestCreate_StatusDefaultsToPending(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 5)

	in := saleInput(pid, 2, "")
	doc, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "pending", doc.StringAttr("status"))
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))
}

func TestCreate_UnknownProductFailsWholeSale(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")

	unknown := id.New()
	_, err := svc.Create(ctx, saleInput(unknown, 1, StatusCompleted))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeProductNotFound))
	assert.Equal(t, 0, fake.DocCount(store.KindSales))
}

func TestCreate_ForeignProductIsNotVisible(t *testing.T) {
	svc, fake := newTestService(t)
	ctxA := tenantCtx("tenant-a")
	ctxB := tenantCtx("tenant-b")
	pid := seedProduct(t, fake, ctxA, "widget", 5)

	// tenant B references tenant A's product: must fail as not found
	_, err := svc.Create(ctxB, saleInput(pid, 1, StatusCompleted))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeProductNotFound))
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 5)

	tests := []struct {
		name  string
		mut   func(*Input)
		field string
	}{
		{"empty customer", func(in *Input) { in.CustomerName = "" }, "customerName"},
		{"no lines", func(in *Input) { in.Lines = nil }, "lines"},
		{"zero quantity", func(in *Input) { in.Lines[0].Quantity = 0 }, "lines"},
		{"negative quantity", func(in *Input) { in.Lines[0].Quantity = -2 }, "lines"},
		{"empty payment method", func(in *Input) { in.PaymentMethod = "" }, "paymentMethod"},
		{"unknown status", func(in *Input) { in.Status = "shipped" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := saleInput(pid, 1, StatusPending)
			tt.mut(&in)
			_, err := svc.Create(ctx, in)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestCreate_WithoutTenantFailsBeforeStoreAccess(t *testing.T) {
	svc, fake := newTestService(t)

	_, err := svc.Create(context.Background(), saleInput(id.New(), 1, StatusPending))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthenticated))
	assert.Equal(t, 0, fake.DocCount(store.KindSales))
}

func TestCreate_StoreFaultSurfacesAsStoreUnavailable(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	fake.FailWith = errors.New("connection refused")

	_, err := svc.Create(ctx, saleInput(id.New(), 1, StatusPending))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStoreUnavailable))
}

func TestCreate_SequentialNumbersAreGapFree(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 100)

	want := []string{"SO-0001", "SO-0002", "SO-0003"}
	for _, expected := range want {
		doc, err := svc.Create(ctx, saleInput(pid, 1, StatusPending))
		require.NoError(t, err)
		assert.Equal(t, expected, doc.SequentialNumber)
	}

	// another tenant starts its own sequence at 1
	ctxB := tenantCtx("tenant-b")
	pidB := seedProduct(t, fake, ctxB, "widget", 10)
	doc, err := svc.Create(ctxB, saleInput(pidB, 1, StatusPending))
	require.NoError(t, err)
	assert.Equal(t, "SO-0001", doc.SequentialNumber)
}

func TestUpdateStatus_NeverAdjustsInventory(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctx, "widget", 5)

	doc, err := svc.Create(ctx, saleInput(pid, 3, StatusPending))
	require.NoError(t, err)

	// completing a pending sale through a plain status edit does not
	// touch stock; that asymmetry is deliberate
	require.NoError(t, svc.UpdateStatus(ctx, doc.ID, StatusCompleted))
	assert.EqualValues(t, 5, fake.ProductQuantity(pid))

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.StringAttr("status"))
}

func TestGet_ForeignTenantSeesNotFound(t *testing.T) {
	svc, fake := newTestService(t)
	ctxA := tenantCtx("tenant-a")
	pid := seedProduct(t, fake, ctxA, "widget", 5)

	doc, err := svc.Create(ctxA, saleInput(pid, 1, StatusPending))
	require.NoError(t, err)

	_, err = svc.Get(tenantCtx("tenant-b"), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
