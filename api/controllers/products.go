package controllers

import (
	"net/http"

	"github.com/hoangdh1/eCommerce/api/responses"
	"github.com/hoangdh1/eCommerce/api/validators"
	product "github.com/hoangdh1/eCommerce/internal/products"
	"github.com/hoangdh1/eCommerce/pkg/logger"
)

const maxNameLen = 200

type createProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Image       *string `json:"image,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       int64   `json:"price" validate:"gte=0,lte=92233720368547758"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	Discount    int     `json:"discount" validate:"gte=0,lte=100"`
}

func (r createProductRequest) toInput() product.CreateProductInput {
	return product.CreateProductInput{
		Name:        validators.SanitizeString(r.Name, maxNameLen),
		Image:       r.Image,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Discount:    r.Discount,
	}
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Image       *string `json:"image,omitempty"`
	Description *string `json:"description,omitempty"`
	Discount    *int    `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
}

func (r updateProductRequest) toInput() product.UpdateProductInput {
	input := product.UpdateProductInput{
		Image:       r.Image,
		Description: r.Description,
		Discount:    r.Discount,
	}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, maxNameLen)
		input.Name = &name
	}
	return input
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// ListProducts returns the live inventory.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, result.Products, len(result.Products))
	}
}

func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminRestockProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.RestockProduct(r.Context(), id, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
