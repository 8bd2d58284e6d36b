package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/db"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

const productUniqueNameIndex = "idx_products_name_live"

// MaxPrice keeps price × 100 inside int64 for discount arithmetic.
const MaxPrice = math.MaxInt64 / 100

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	RestockProduct(ctx context.Context, productID uuid.UUID, qty int) (*ProductDTO, error)
	ListProducts(ctx context.Context) (*ProductListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo  *Repository
	tx    txRunner
	cache *cache.Cache
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, c *cache.Cache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &service{repo: repo, tx: tx, cache: c}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.Price > MaxPrice {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price exceeds maximum").
			WithDetails(map[string]any{"max_price": int64(MaxPrice)})
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if err := validateDiscount(input.Discount); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Image:       trimmedPtr(input.Image),
		Description: trimmedPtr(input.Description),
		Price:       input.Price,
		Quantity:    input.Quantity,
		Discount:    input.Discount,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := ensureNameAvailable(ctx, txRepo, name, uuid.Nil); err != nil {
			return err
		}
		if _, err := txRepo.Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, productUniqueNameIndex) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mapProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	key := s.cache.ProductKey(productID.String())

	var cached ProductDTO
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}
	dto := mapProductDTO(product)
	s.cache.Remember(ctx, key, dto)
	return dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Image != nil {
		fields["image"] = trimmedPtr(input.Image)
	}
	if input.Description != nil {
		fields["description"] = trimmedPtr(input.Description)
	}
	if input.Discount != nil {
		if err := validateDiscount(*input.Discount); err != nil {
			return nil, err
		}
		fields["discount"] = *input.Discount
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, productID); err != nil {
			return repo.Translate(err, "product")
		}
		if name, ok := fields["name"].(string); ok {
			if err := ensureNameAvailable(ctx, txRepo, name, productID); err != nil {
				return err
			}
		}
		if _, err := txRepo.UpdateDetails(ctx, productID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		product, err := txRepo.FindByID(ctx, productID)
		if err != nil {
			return repo.Translate(err, "product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, s.cache.ProductKey(productID.String()))
	return mapProductDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	rows, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.cache.Invalidate(ctx, s.cache.ProductKey(productID.String()))
	return nil
}

func (s *service) RestockProduct(ctx context.Context, productID uuid.UUID, qty int) (*ProductDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var restocked *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, productID); err != nil {
			return repo.Translate(err, "product")
		}
		if _, err := txRepo.IncrementStock(ctx, productID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}
		product, err := txRepo.FindByID(ctx, productID)
		if err != nil {
			return repo.Translate(err, "product")
		}
		restocked = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, s.cache.ProductKey(productID.String()))
	return mapProductDTO(restocked), nil
}

func (s *service) ListProducts(ctx context.Context) (*ProductListResult, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *mapProductDTO(&rows[i]))
	}
	return newListResult(items), nil
}

func ensureNameAvailable(ctx context.Context, r *Repository, name string, self uuid.UUID) error {
	existing, err := r.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product name")
	}
	if existing.ID != self {
		return pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")
	}
	return nil
}

func validateDiscount(discount int) error {
	if discount < 0 || discount > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
	}
	return nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
