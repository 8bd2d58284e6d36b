package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/customers"
	"github.com/hoangdh1/eCommerce/internal/inventory"
	product "github.com/hoangdh1/eCommerce/internal/products"
	"github.com/hoangdh1/eCommerce/internal/shippers"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/db"
	"github.com/hoangdh1/eCommerce/pkg/db/dbtest"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	"github.com/hoangdh1/eCommerce/pkg/redis/redistest"
	"github.com/hoangdh1/eCommerce/pkg/types"
)

type fixture struct {
	conn     *gorm.DB
	svc      Service
	products product.Service
	store    *redistest.Store
	cache    *cache.Cache
	admin    types.Actor
	customer *models.Customer
	shipper  *models.Shipper
}

func newFixture(t *testing.T, maxUnits int) fixture {
	t.Helper()
	return newFixtureWith(t, maxUnits, nil)
}

// newFixtureWith lets a test swap service dependencies before construction.
func newFixtureWith(t *testing.T, maxUnits int, adjust func(*ServiceParams)) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	store := redistest.New()
	c, err := cache.New(store, 0, nil)
	require.NoError(t, err)

	productRepo := product.NewRepository(conn)
	reconciler, err := inventory.NewReconciler(product.NewStockStore(productRepo))
	require.NoError(t, err)
	products, err := product.NewService(productRepo, db.NewFromGorm(conn), c)
	require.NoError(t, err)

	params := ServiceParams{
		Repo:             NewRepository(conn),
		Tx:               db.NewFromGorm(conn),
		Customers:        customers.NewRepository(conn),
		Shippers:         shippers.NewRepository(conn),
		Reconciler:       reconciler,
		Cache:            c,
		MaxUnitsPerOrder: maxUnits,
	}
	if adjust != nil {
		adjust(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)

	customer := &models.Customer{Username: "buyer", Email: "buyer@example.com"}
	require.NoError(t, conn.Create(customer).Error)
	shipper := &models.Shipper{Username: "rider", Email: "rider@example.com"}
	require.NoError(t, conn.Create(shipper).Error)

	return fixture{
		conn:     conn,
		svc:      svc,
		products: products,
		store:    store,
		cache:    c,
		admin:    types.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
		customer: customer,
		shipper:  shipper,
	}
}

func (f fixture) customerActor() types.Actor {
	return types.Actor{ID: f.customer.ID, Role: enums.ActorRoleCustomer}
}

func (f fixture) shipperActor() types.Actor {
	return types.Actor{ID: f.shipper.ID, Role: enums.ActorRoleShipper}
}

func (f fixture) product(t *testing.T, price int64, qty int) *models.Product {
	t.Helper()
	p := &models.Product{Name: uuid.NewString(), Price: price, Quantity: qty, Discount: 20}
	require.NoError(t, f.conn.Create(p).Error)
	return p
}

func (f fixture) quantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.Unscoped().First(&p, "id = ?", id).Error)
	return p.Quantity
}

func (f fixture) storedOrder(t *testing.T, id uuid.UUID) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, f.conn.First(&o, "id = ?", id).Error)
	return o
}
