package catalogs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/store"
	"stockbook/internal/domain/store/storetest"
)

func tenantCtx(tid string) context.Context {
	return tenant.WithID(context.Background(), tid)
}

func TestCreate_AssignsSequentialNumber(t *testing.T) {
	fake := storetest.New()
	svc := NewService(fake, store.KindCustomers)
	ctx := tenantCtx("tenant-a")

	first, err := svc.Create(ctx, map[string]any{"name": "ACME Ltd"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, map[string]any{"name": "Globex"})
	require.NoError(t, err)

	assert.Equal(t, "CUST-0001", first.SequentialNumber)
	assert.Equal(t, "CUST-0002", second.SequentialNumber)
}

func TestCreate_RequiresName(t *testing.T) {
	fake := storetest.New()
	svc := NewService(fake, store.KindSuppliers)

	_, err := svc.Create(tenantCtx("tenant-a"), map[string]any{"city": "Riga"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestList_ScopedToTenant(t *testing.T) {
	fake := storetest.New()
	svc := NewService(fake, store.KindCustomers)

	_, err := svc.Create(tenantCtx("tenant-a"), map[string]any{"name": "ACME Ltd"})
	require.NoError(t, err)
	_, err = svc.Create(tenantCtx("tenant-b"), map[string]any{"name": "Globex"})
	require.NoError(t, err)

	docs, err := svc.List(tenantCtx("tenant-a"), store.Query{}, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ACME Ltd", docs[0].StringAttr("name"))

	// a caller-supplied tenant_id filter must not widen the scope
	docs, err = svc.List(tenantCtx("tenant-a"), store.Query{"tenant_id": "tenant-b"}, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ACME Ltd", docs[0].StringAttr("name"))
}

func TestUpdate_ForeignDocumentNotFound(t *testing.T) {
	fake := storetest.New()
	svc := NewService(fake, store.KindCustomers)

	doc, err := svc.Create(tenantCtx("tenant-a"), map[string]any{"name": "ACME Ltd"})
	require.NoError(t, err)

	_, err = svc.Update(tenantCtx("tenant-b"), doc.ID, store.Update{"name": "Hijacked"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	kept, err := svc.Get(tenantCtx("tenant-a"), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME Ltd", kept.StringAttr("name"))
}

func TestDelete_ForeignDocumentNotFound(t *testing.T) {
	fake := storetest.New()
	svc := NewService(fake, store.KindCustomers)

	doc, err := svc.Create(tenantCtx("tenant-a"), map[string]any{"name": "ACME Ltd"})
	require.NoError(t, err)

	err = svc.Delete(tenantCtx("tenant-b"), doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Equal(t, 1, fake.DocCount(store.KindCustomers))

	require.NoError(t, svc.Delete(tenantCtx("tenant-a"), doc.ID))
	assert.Equal(t, 0, fake.DocCount(store.KindCustomers))
}

func TestProductService_AdjustStock(t *testing.T) {
	fake := storetest.New()
	svc := NewProductService(fake, fake, fake)
	ctx := tenantCtx("tenant-a")

	doc, err := svc.Create(ctx, map[string]any{"name": "widget", "quantity": int64(5)})
	require.NoError(t, err)

	remaining, err := svc.AdjustStock(ctx, doc.ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 8, remaining)

	_, err = svc.AdjustStock(ctx, doc.ID, -20)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.EqualValues(t, 8, fake.ProductQuantity(doc.ID))
}

func TestProductService_RejectedAdjustmentRollsBack(t *testing.T) {
	fake := storetest.New()
	svc := NewProductService(fake, fake, fake)
	ctx := tenantCtx("tenant-a")

	doc, err := svc.Create(ctx, map[string]any{"name": "widget", "quantity": int64(3)})
	require.NoError(t, err)

	before, err := fake.FindOne(ctx, store.KindProducts, store.Query{"id": doc.ID})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, doc.ID, -5)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// the rejection is a transaction rollback, not a compensating
	// write: the document is byte-for-byte what it was before
	after, err := fake.FindOne(ctx, store.KindProducts, store.Query{"id": doc.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, fake.ProductQuantity(doc.ID))
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestProductService_RejectsNegativeInitialQuantity(t *testing.T) {
	fake := storetest.New()
	svc := NewProductService(fake, fake, fake)

	_, err := svc.Create(tenantCtx("tenant-a"), map[string]any{"name": "widget", "quantity": int64(-1)})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestProductService_UpdateRejectsNegativeQuantity(t *testing.T) {
	fake := storetest.New()
	svc := NewProductService(fake, fake, fake)
	ctx := tenantCtx("tenant-a")

	doc, err := svc.Create(ctx, map[string]any{"name": "widget", "quantity": int64(5)})
	require.NoError(t, err)

	// JSON bodies decode numbers as float64
	_, err = svc.Update(ctx, doc.ID, store.Update{"quantity": float64(-5)})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.EqualValues(t, 5, fake.ProductQuantity(doc.ID))

	updated, err := svc.Update(ctx, doc.ID, store.Update{"quantity": float64(7)})
	require.NoError(t, err)
	assert.EqualValues(t, 7, updated.Attr("quantity"))
}

func TestGet_UnknownID(t *testing.T) {
	fake := storetest.New()
	svc := NewService(fake, store.KindInvoices)

	_, err := svc.Get(tenantCtx("tenant-a"), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
