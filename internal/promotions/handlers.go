package promotions

import (
	"context"
	"fmt"

	"github.com/hoangdh1/eCommerce/pkg/enums"
	"github.com/hoangdh1/eCommerce/pkg/jobqueue"
)

// RegisterHandlers binds the sale jobs to svc. Call once at worker startup;
// the registry rejects a second registration.
func RegisterHandlers(reg *jobqueue.Registry, svc Service) error {
	if reg == nil {
		return fmt.Errorf("job registry required")
	}
	if svc == nil {
		return fmt.Errorf("promotion service required")
	}
	if err := reg.Handle(enums.JobSaleApply.String(), decoded(svc.ApplySale)); err != nil {
		return err
	}
	return reg.Handle(enums.JobSaleRevert.String(), decoded(svc.RevertSale))
}

func decoded(fn func(context.Context, SalePayload) error) jobqueue.Handler {
	return func(ctx context.Context, job jobqueue.Job) error {
		var payload SalePayload
		if err := job.Decode(&payload); err != nil {
			return err
		}
		return fn(ctx, payload)
	}
}
