package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/jobqueue"
	"github.com/hoangdh1/eCommerce/pkg/logger"
)

const (
	saleJobAttempts = 2
	// the stored handle outlives the revert instant so late cancels still resolve
	scheduleRetention = time.Hour
)

// Service schedules and executes time-boxed sale prices.
type Service interface {
	ScheduleSale(ctx context.Context, input ScheduleSaleInput) (*SaleSchedule, error)
	CancelSale(ctx context.Context, productID uuid.UUID) (*SaleSchedule, error)
	ApplySale(ctx context.Context, payload SalePayload) error
	RevertSale(ctx context.Context, payload SalePayload) error
}

type priceStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetPrice(ctx context.Context, id uuid.UUID, price int64) (int64, error)
}

type jobScheduler interface {
	Enqueue(ctx context.Context, name string, payload any, opts jobqueue.Options) (string, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

// ServiceParams groups the promotion service dependencies.
type ServiceParams struct {
	Products priceStore
	Queue    jobScheduler
	Cache    *cache.Cache
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	products priceStore
	queue    jobScheduler
	cache    *cache.Cache
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("job queue required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		products: params.Products,
		queue:    params.Queue,
		cache:    params.Cache,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// ScheduleSale enqueues the apply and revert jobs for the window and returns
// as soon as both are queued. A newer schedule does not replace older ones.
func (s *service) ScheduleSale(ctx context.Context, input ScheduleSaleInput) (*SaleSchedule, error) {
	now := s.now()
	nowMs := now.UnixMilli()
	if input.StartAtMs < nowMs {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidWindow, "sale must start in the future")
	}
	if input.StartAtMs > input.EndAtMs {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidWindow, "sale must start before it ends")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}

	schedule := &SaleSchedule{
		ProductID:        product.ID,
		StartAtMs:        input.StartAtMs,
		EndAtMs:          input.EndAtMs,
		ScheduledAtMs:    nowMs,
		PriceSnapshot:    product.Price,
		DiscountSnapshot: product.Discount,
		SalePrice:        SalePrice(product.Price, product.Discount),
	}
	payload := schedule.payload()

	applyID, err := s.queue.Enqueue(ctx, enums.JobSaleApply.String(), payload, jobqueue.Options{
		Delay:    time.UnixMilli(input.StartAtMs).Sub(now),
		Attempts: saleJobAttempts,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue sale apply")
	}
	revertID, err := s.queue.Enqueue(ctx, enums.JobSaleRevert.String(), payload, jobqueue.Options{
		Delay:    time.UnixMilli(input.EndAtMs).Sub(now),
		Attempts: saleJobAttempts,
	})
	if err != nil {
		if _, cancelErr := s.queue.Cancel(ctx, applyID); cancelErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "job_id", applyID), "failed to withdraw orphaned sale apply job", cancelErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue sale revert")
	}
	schedule.ApplyJobID = applyID
	schedule.RevertJobID = revertID

	ttl := time.UnixMilli(input.EndAtMs).Sub(now) + scheduleRetention
	if err := s.cache.SetJSONWithTTL(ctx, s.cache.SaleKey(product.ID.String()), schedule, ttl); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", product.ID.String()), "sale handle not stored; cancel unavailable")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id":    product.ID.String(),
			"apply_job_id":  applyID,
			"revert_job_id": revertID,
			"sale_price":    schedule.SalePrice,
		}), "sale scheduled")
	}
	return schedule, nil
}

// CancelSale withdraws the most recently scheduled sale for the product. When
// the sale already started, the snapshot price is restored immediately.
func (s *service) CancelSale(ctx context.Context, productID uuid.UUID) (*SaleSchedule, error) {
	key := s.cache.SaleKey(productID.String())
	var schedule SaleSchedule
	hit, err := s.cache.GetJSON(ctx, key, &schedule)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale schedule")
	}
	if !hit {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no scheduled sale for product")
	}

	applyCanceled, err := s.queue.Cancel(ctx, schedule.ApplyJobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel sale apply")
	}
	revertCanceled, err := s.queue.Cancel(ctx, schedule.RevertJobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel sale revert")
	}
	if !applyCanceled && revertCanceled {
		if err := s.RevertSale(ctx, schedule.payload()); err != nil {
			return nil, err
		}
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop sale schedule")
	}
	return &schedule, nil
}

// ApplySale writes the precomputed sale price. Writing an absolute value keeps
// redelivery from compounding the discount. Once the window has closed the
// revert owns the price, so a late or retried apply does nothing.
func (s *service) ApplySale(ctx context.Context, payload SalePayload) error {
	if payload.expired(s.now().UnixMilli()) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_id": payload.ProductID.String(),
				"end_at_ms":  payload.EndAtMs,
			}), "sale window closed, apply skipped")
		}
		return nil
	}
	return s.writePrice(ctx, payload.ProductID, payload.SalePrice, "sale applied")
}

// RevertSale restores the price captured when the sale was scheduled.
func (s *service) RevertSale(ctx context.Context, payload SalePayload) error {
	return s.writePrice(ctx, payload.ProductID, payload.PriceSnapshot, "sale reverted")
}

func (s *service) writePrice(ctx context.Context, productID uuid.UUID, price int64, msg string) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	rows, err := s.products.SetPrice(ctx, productID, price)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write product price")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.cache.Invalidate(ctx, s.cache.ProductKey(productID.String()))
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"price":      price,
		}), msg)
	}
	return nil
}
