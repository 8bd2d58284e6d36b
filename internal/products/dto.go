package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/pkg/db/models"
)

// ProductDTO is the public catalog representation.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       *string   `json:"image,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	Discount    int       `json:"discount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Image       *string
	Description *string
	Price       int64
	Quantity    int
	Discount    int
}

// UpdateProductInput holds optional descriptive changes. Price and stock move
// through SetPrice, Restock and the inventory reconciler instead.
type UpdateProductInput struct {
	Name        *string
	Image       *string
	Description *string
	Discount    *int
}

func mapProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Discount:    p.Discount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
