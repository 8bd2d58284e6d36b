package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/types"
)

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestOrderItemScenario(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.product(t, 10000, 5)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), order.Total)

	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), order.Total)
	assert.Equal(t, 2, f.quantity(t, p.ID))
	require.Len(t, order.Items, 1)

	order, err = f.svc.RemoveItem(ctx, f.customerActor(), order.ID, order.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), order.Total)
	assert.Equal(t, 5, f.quantity(t, p.ID))
	assert.Empty(t, order.Items)
}

func TestOrderAddRollsBackOnShortStock(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.product(t, 700, 2)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))
	assert.Equal(t, 2, f.quantity(t, p.ID))
	stored := f.storedOrder(t, order.ID)
	assert.Equal(t, int64(0), stored.Total)

	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, f.quantity(t, p.ID))

	_, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, order.Items[0].ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))
	assert.Equal(t, 0, f.quantity(t, p.ID))
	assert.Equal(t, int64(1400), f.storedOrder(t, order.ID).Total)
}

func TestOrderUpdateItemMovesStock(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.product(t, 250, 10)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 4)
	require.NoError(t, err)
	itemID := order.Items[0].ID

	order, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, itemID, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2250), order.Total)
	assert.Equal(t, 1, f.quantity(t, p.ID))

	order, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, itemID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(500), order.Total)
	assert.Equal(t, 8, f.quantity(t, p.ID))
}

func TestOrderPurchaseLimit(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	p := f.product(t, 100, 100)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)

	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 4)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 2)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "exceeds purchase limit", typed.Message())

	_, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, order.Items[0].ID, 6)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	order, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, order.Items[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 95, f.quantity(t, p.ID))

	// shrinking never trips the limit
	_, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, order.Items[0].ID, 1)
	require.NoError(t, err)
}

func TestOrderItemChangesEvictCachedProduct(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.product(t, 400, 10)

	before, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, before.Quantity)
	require.True(t, f.store.Has(f.cache.ProductKey(p.ID.String())))

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 3)
	require.NoError(t, err)

	after, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, after.Quantity)

	_, err = f.svc.UpdateItem(ctx, f.customerActor(), order.ID, order.Items[0].ID, 5)
	require.NoError(t, err)
	after, err = f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Quantity)

	_, err = f.svc.RemoveItem(ctx, f.customerActor(), order.ID, order.Items[0].ID)
	require.NoError(t, err)
	after, err = f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Quantity)
}

// racingRepo bumps the order version right after the first read inside a
// transaction, as a concurrent item change committing in between would.
type racingRepo struct {
	Repository
	tx    *gorm.DB
	fired *bool
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository {
	return &racingRepo{Repository: r.Repository.WithTx(tx), tx: tx, fired: r.fired}
}

func (r *racingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := r.Repository.FindByID(ctx, id)
	if err == nil && r.tx != nil && !*r.fired {
		*r.fired = true
		if err := r.tx.Model(&models.Order{}).Where("id = ?", id).
			Update("version", gorm.Expr("version + 1")).Error; err != nil {
			return nil, err
		}
	}
	return order, err
}

func TestOrderItemMutationRejectsStaleVersion(t *testing.T) {
	fired := true
	f := newFixtureWith(t, 5, func(p *ServiceParams) {
		p.Repo = &racingRepo{Repository: p.Repo, fired: &fired}
	})
	ctx := context.Background()
	p := f.product(t, 100, 100)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 4)
	require.NoError(t, err)

	fired = false
	_, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, 96, f.quantity(t, p.ID))
	assert.Equal(t, int64(400), f.storedOrder(t, order.ID).Total)

	// the retry sees the committed item set and the limit still holds
	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), order.Total)
	_, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOrderItemsLockAfterExport(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.product(t, 100, 10)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.ExportOrder(ctx, f.admin, order.ID, enums.OrderStatusExported)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.customerActor(), order.ID, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	_, err = f.svc.RemoveItem(ctx, f.customerActor(), order.ID, order.Items[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	assert.Equal(t, 9, f.quantity(t, p.ID))
}

func TestOrderAccessControl(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	p := f.product(t, 100, 10)

	order, err := f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{})
	require.NoError(t, err)

	stranger := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	_, err = f.svc.GetOrder(ctx, stranger, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.AddItem(ctx, stranger, order.ID, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.AddItem(ctx, f.shipperActor(), order.ID, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.GetOrder(ctx, f.shipperActor(), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	got, err := f.svc.GetOrder(ctx, f.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, f.admin, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	mine, err := f.svc.ListCustomerOrders(ctx, f.customerActor())
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, f.admin, CreateOrderInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateOrder(ctx, f.admin, CreateOrderInput{CustomerID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	missing := uuid.New()
	_, err = f.svc.CreateOrder(ctx, f.customerActor(), CreateOrderInput{ShipperID: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.CreateOrder(ctx, f.shipperActor(), CreateOrderInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	created, err := f.svc.CreateOrder(ctx, f.admin, CreateOrderInput{CustomerID: f.customer.ID, ShipperID: &f.shipper.ID})
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, created.CustomerID)
	assert.Equal(t, enums.OrderStatusInStock, created.Status)
}

func TestListShipperOrders(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, f.admin, CreateOrderInput{CustomerID: f.customer.ID, ShipperID: &f.shipper.ID})
	require.NoError(t, err)

	list, err := f.svc.ListShipperOrders(ctx, f.shipperActor(), f.shipper.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListShipperOrders(ctx, f.customerActor(), f.shipper.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.ListShipperOrders(ctx, f.admin, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.conn.Model(f.shipper).Update("status", enums.ShipperStatusDisabled).Error)
	_, err = f.svc.ListShipperOrders(ctx, f.shipperActor(), f.shipper.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeShipperUnavailable))
}
