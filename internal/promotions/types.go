package promotions

import (
	"github.com/google/uuid"
)

// SalePayload is carried by both sale jobs. Prices are captured when the sale
// is scheduled and never recomputed from the live product. EndAtMs of zero
// leaves the apply job unbounded.
type SalePayload struct {
	ProductID        uuid.UUID `json:"product_id"`
	PriceSnapshot    int64     `json:"price_snapshot"`
	DiscountSnapshot int       `json:"discount_snapshot"`
	SalePrice        int64     `json:"sale_price"`
	StartAtMs        int64     `json:"start_at_ms,omitempty"`
	EndAtMs          int64     `json:"end_at_ms,omitempty"`
}

// expired reports whether the window has closed at nowMs.
func (p SalePayload) expired(nowMs int64) bool {
	return p.EndAtMs > 0 && nowMs >= p.EndAtMs
}

// ScheduleSaleInput requests a sale window in epoch milliseconds.
type ScheduleSaleInput struct {
	ProductID uuid.UUID
	StartAtMs int64
	EndAtMs   int64
}

// SaleSchedule is the handle returned for a scheduled sale; it addresses both
// pending jobs so the sale can be canceled.
type SaleSchedule struct {
	ProductID        uuid.UUID `json:"product_id"`
	ApplyJobID       string    `json:"apply_job_id"`
	RevertJobID      string    `json:"revert_job_id"`
	StartAtMs        int64     `json:"start_at_ms"`
	EndAtMs          int64     `json:"end_at_ms"`
	ScheduledAtMs    int64     `json:"scheduled_at_ms"`
	PriceSnapshot    int64     `json:"price_snapshot"`
	DiscountSnapshot int       `json:"discount_snapshot"`
	SalePrice        int64     `json:"sale_price"`
}

func (s SaleSchedule) payload() SalePayload {
	return SalePayload{
		ProductID:        s.ProductID,
		PriceSnapshot:    s.PriceSnapshot,
		DiscountSnapshot: s.DiscountSnapshot,
		SalePrice:        s.SalePrice,
		StartAtMs:        s.StartAtMs,
		EndAtMs:          s.EndAtMs,
	}
}

// SalePrice is floor(price × (100 − discount) / 100) in integer arithmetic.
// The price is split on 100 first so the product never exceeds int64.
func SalePrice(price int64, discount int) int64 {
	if discount <= 0 {
		return price
	}
	if discount >= 100 {
		return 0
	}
	keep := int64(100 - discount)
	return price/100*keep + price%100*keep/100
}
