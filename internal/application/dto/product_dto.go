package dto

import (
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto del bar.
type CreateProductRequest struct {
	SKU   string          `json:"sku" validate:"required,min=1,max=100"`
	Name  string          `json:"name" validate:"required,min=1,max=200"`
	Unit  string          `json:"unit" validate:"omitempty,max=20"`
	Price decimal.Decimal `json:"price"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string          `json:"id"`
	BarID     string          `json:"bar_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// FromProduct convierte la entidad a su salida HTTP.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		BarID:     p.BarID,
		SKU:       p.SKU,
		Name:      p.Name,
		Unit:      p.Unit,
		Price:     p.Price,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
