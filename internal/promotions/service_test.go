package promotions

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/hoangdh1/eCommerce/internal/products"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/db/dbtest"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/jobqueue"
	"github.com/hoangdh1/eCommerce/pkg/redis/redistest"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	conn     *gorm.DB
	svc      Service
	queue    *jobqueue.Queue
	registry *jobqueue.Registry
	store    *redistest.Store
	cache    *cache.Cache
	clock    *clock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	store := redistest.New()
	clk := &clock{now: time.UnixMilli(1_700_000_000_000)}

	c, err := cache.New(store, 0, nil)
	require.NoError(t, err)
	queue, err := jobqueue.NewQueue(jobqueue.QueueParams{Store: store, Clock: clk.Now})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Products: product.NewRepository(conn),
		Queue:    queue,
		Cache:    c,
		Clock:    clk.Now,
	})
	require.NoError(t, err)

	registry := jobqueue.NewRegistry()
	require.NoError(t, RegisterHandlers(registry, svc))

	return fixture{conn: conn, svc: svc, queue: queue, registry: registry, store: store, cache: c, clock: clk}
}

func (f fixture) product(t *testing.T, price int64, discount int) *models.Product {
	t.Helper()
	p := &models.Product{Name: uuid.NewString(), Price: price, Quantity: 5, Discount: discount}
	require.NoError(t, f.conn.Create(p).Error)
	return p
}

func (f fixture) price(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", id).Error)
	return p.Price
}

// drain claims every due job and runs its registered handler.
func (f fixture) drain(t *testing.T) []jobqueue.Job {
	t.Helper()
	ctx := context.Background()
	jobs, err := f.queue.Claim(ctx, 10)
	require.NoError(t, err)
	for _, job := range jobs {
		h, ok := f.registry.Handler(job.Name)
		require.True(t, ok, job.Name)
		require.NoError(t, h(ctx, job))
		require.NoError(t, f.queue.Complete(ctx, job))
	}
	return jobs
}

func (f fixture) msFromNow(d time.Duration) int64 {
	return f.clock.now.Add(d).UnixMilli()
}

func TestSalePrice(t *testing.T) {
	assert.Equal(t, int64(8000), SalePrice(10000, 20))
	assert.Equal(t, int64(669), SalePrice(999, 33))
	assert.Equal(t, int64(999), SalePrice(999, 0))
	assert.Equal(t, int64(0), SalePrice(999, 100))
	assert.Equal(t, int64(math.MaxInt64/2), SalePrice(math.MaxInt64, 50))
	assert.Equal(t, int64(1), SalePrice(199, 50))
}

func TestScheduleSaleEnqueuesTwoJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)

	schedule, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{
		ProductID: p.ID,
		StartAtMs: f.msFromNow(time.Minute),
		EndAtMs:   f.msFromNow(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), schedule.PriceSnapshot)
	assert.Equal(t, 20, schedule.DiscountSnapshot)
	assert.Equal(t, int64(8000), schedule.SalePrice)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Ready)

	applyScore, ok := f.store.Score("ecom:jobs:ready", schedule.ApplyJobID)
	require.True(t, ok)
	assert.Equal(t, float64(schedule.StartAtMs), applyScore)
	revertScore, ok := f.store.Score("ecom:jobs:ready", schedule.RevertJobID)
	require.True(t, ok)
	assert.Equal(t, float64(schedule.EndAtMs), revertScore)

	apply, err := f.queue.Lookup(ctx, schedule.ApplyJobID)
	require.NoError(t, err)
	require.NotNil(t, apply)
	assert.Equal(t, enums.JobSaleApply.String(), apply.Name)
	assert.Equal(t, 2, apply.MaxAttempts)

	assert.True(t, f.store.Has(f.cache.SaleKey(p.ID.String())))
	assert.Equal(t, int64(10000), f.price(t, p.ID), "scheduling must not touch the price")
}

func TestScheduleSaleRejectsBadWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)

	_, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{ProductID: p.ID, StartAtMs: f.msFromNow(-time.Second), EndAtMs: f.msFromNow(time.Hour)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidWindow))

	_, err = f.svc.ScheduleSale(ctx, ScheduleSaleInput{ProductID: p.ID, StartAtMs: f.msFromNow(time.Hour), EndAtMs: f.msFromNow(time.Minute)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidWindow))

	_, err = f.svc.ScheduleSale(ctx, ScheduleSaleInput{ProductID: uuid.New(), StartAtMs: f.msFromNow(time.Minute), EndAtMs: f.msFromNow(time.Hour)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Ready)
}

func TestSaleUsesSnapshotAcrossWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)

	_, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{
		ProductID: p.ID,
		StartAtMs: f.msFromNow(time.Minute),
		EndAtMs:   f.msFromNow(time.Hour),
	})
	require.NoError(t, err)

	// live edits between scheduling and firing do not leak into the sale
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"price": 50000, "discount": 50}).Error)

	assert.Empty(t, f.drain(t), "nothing is due yet")

	f.clock.Advance(time.Minute)
	ran := f.drain(t)
	require.Len(t, ran, 1)
	assert.Equal(t, enums.JobSaleApply.String(), ran[0].Name)
	assert.Equal(t, int64(8000), f.price(t, p.ID))

	f.clock.Advance(time.Hour)
	ran = f.drain(t)
	require.Len(t, ran, 1)
	assert.Equal(t, enums.JobSaleRevert.String(), ran[0].Name)
	assert.Equal(t, int64(10000), f.price(t, p.ID))
}

func TestSaleWithEmptyWindowLeavesPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)
	at := f.msFromNow(time.Minute)

	_, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{ProductID: p.ID, StartAtMs: at, EndAtMs: at})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	ran := f.drain(t)
	require.Len(t, ran, 2)
	assert.Equal(t, int64(10000), f.price(t, p.ID))
}

func TestLateApplyRetryDoesNotReopenSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)

	_, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{
		ProductID: p.ID,
		StartAtMs: f.msFromNow(time.Minute),
		EndAtMs:   f.msFromNow(time.Minute + 2*time.Second),
	})
	require.NoError(t, err)

	// first apply attempt fails and is rescheduled past the window end
	f.clock.Advance(time.Minute)
	jobs, err := f.queue.Claim(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, enums.JobSaleApply.String(), jobs[0].Name)
	dead, err := f.queue.Fail(ctx, jobs[0], errors.New("connection reset"))
	require.NoError(t, err)
	require.False(t, dead)

	f.clock.Advance(2 * time.Second)
	ran := f.drain(t)
	require.Len(t, ran, 1)
	assert.Equal(t, enums.JobSaleRevert.String(), ran[0].Name)
	assert.Equal(t, int64(10000), f.price(t, p.ID))

	f.clock.Advance(5 * time.Second)
	ran = f.drain(t)
	require.Len(t, ran, 1)
	assert.Equal(t, enums.JobSaleApply.String(), ran[0].Name)
	assert.Equal(t, int64(10000), f.price(t, p.ID))
}

func TestApplySaleAfterWindowIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)
	payload := SalePayload{
		ProductID:     p.ID,
		PriceSnapshot: 10000,
		SalePrice:     8000,
		StartAtMs:     f.msFromNow(-time.Minute),
		EndAtMs:       f.msFromNow(0),
	}

	require.NoError(t, f.svc.ApplySale(ctx, payload))
	assert.Equal(t, int64(10000), f.price(t, p.ID))

	payload.EndAtMs = f.msFromNow(time.Millisecond)
	require.NoError(t, f.svc.ApplySale(ctx, payload))
	assert.Equal(t, int64(8000), f.price(t, p.ID))
}

func TestSaleJobsAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)
	payload := SalePayload{ProductID: p.ID, PriceSnapshot: 10000, DiscountSnapshot: 20, SalePrice: 8000}

	require.NoError(t, f.svc.ApplySale(ctx, payload))
	require.NoError(t, f.svc.ApplySale(ctx, payload))
	assert.Equal(t, int64(8000), f.price(t, p.ID))

	require.NoError(t, f.svc.RevertSale(ctx, payload))
	require.NoError(t, f.svc.RevertSale(ctx, payload))
	assert.Equal(t, int64(10000), f.price(t, p.ID))
}

func TestApplySaleInvalidatesProductCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)
	key := f.cache.ProductKey(p.ID.String())
	require.NoError(t, f.cache.SetJSON(ctx, key, map[string]any{"price": 10000}))

	require.NoError(t, f.svc.ApplySale(ctx, SalePayload{ProductID: p.ID, PriceSnapshot: 10000, SalePrice: 8000}))
	assert.False(t, f.store.Has(key))

	err := f.svc.ApplySale(ctx, SalePayload{ProductID: uuid.New(), SalePrice: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelSaleBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)

	schedule, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{
		ProductID: p.ID,
		StartAtMs: f.msFromNow(time.Minute),
		EndAtMs:   f.msFromNow(time.Hour),
	})
	require.NoError(t, err)

	canceled, err := f.svc.CancelSale(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.ApplyJobID, canceled.ApplyJobID)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Ready)
	assert.False(t, f.store.Has(f.cache.SaleKey(p.ID.String())))

	f.clock.Advance(2 * time.Hour)
	assert.Empty(t, f.drain(t))
	assert.Equal(t, int64(10000), f.price(t, p.ID))

	_, err = f.svc.CancelSale(ctx, p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelSaleDuringWindowRestoresPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, 10000, 20)

	_, err := f.svc.ScheduleSale(ctx, ScheduleSaleInput{
		ProductID: p.ID,
		StartAtMs: f.msFromNow(time.Minute),
		EndAtMs:   f.msFromNow(time.Hour),
	})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	require.Len(t, f.drain(t), 1)
	assert.Equal(t, int64(8000), f.price(t, p.ID))

	_, err = f.svc.CancelSale(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), f.price(t, p.ID))

	f.clock.Advance(2 * time.Hour)
	assert.Empty(t, f.drain(t))
}

func TestRegisterHandlersOnce(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"sale.apply", "sale.revert"}, f.registry.Names())
	assert.Error(t, RegisterHandlers(f.registry, f.svc))
	assert.Error(t, RegisterHandlers(nil, f.svc))
	assert.Error(t, RegisterHandlers(jobqueue.NewRegistry(), nil))
}

func TestHandlerRejectsBadPayload(t *testing.T) {
	f := newFixture(t)
	h, ok := f.registry.Handler(enums.JobSaleApply.String())
	require.True(t, ok)
	err := h(context.Background(), jobqueue.Job{ID: "j1", Payload: []byte(`{"product_id":`)})
	assert.Error(t, err)
}

type failingQueue struct {
	calls    int
	canceled []string
}

func (q *failingQueue) Enqueue(context.Context, string, any, jobqueue.Options) (string, error) {
	q.calls++
	if q.calls == 2 {
		return "", errors.New("redis down")
	}
	return "apply-1", nil
}

func (q *failingQueue) Cancel(_ context.Context, id string) (bool, error) {
	q.canceled = append(q.canceled, id)
	return true, nil
}

func TestScheduleSaleWithdrawsApplyWhenRevertFails(t *testing.T) {
	conn := dbtest.Open(t)
	c, err := cache.New(redistest.New(), 0, nil)
	require.NoError(t, err)
	q := &failingQueue{}
	clk := &clock{now: time.UnixMilli(1_700_000_000_000)}
	svc, err := NewService(ServiceParams{Products: product.NewRepository(conn), Queue: q, Cache: c, Clock: clk.Now})
	require.NoError(t, err)

	p := &models.Product{Name: "Vase", Price: 100}
	require.NoError(t, conn.Create(p).Error)

	_, err = svc.ScheduleSale(context.Background(), ScheduleSaleInput{
		ProductID: p.ID,
		StartAtMs: clk.now.Add(time.Minute).UnixMilli(),
		EndAtMs:   clk.now.Add(time.Hour).UnixMilli(),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, []string{"apply-1"}, q.canceled)
}
