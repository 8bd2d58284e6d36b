package cart

import (
	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/pkg/db/models"
)

type CartDTO struct {
	ID         uuid.UUID     `json:"id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Total      int64         `json:"total"`
	Items      []CartItemDTO `json:"items"`
}

type CartItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Count     int       `json:"count"`
}

func mapCartDTO(c *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		Total:      c.Total,
		Items:      make([]CartItemDTO, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Count:     item.Count,
		})
	}
	return dto
}
