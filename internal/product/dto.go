// AngelaMos | 2026
// dto.go

package product

import (
	"time"
)

type CreateProductRequest struct {
	Name        string  `json:"name"                  validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID  *int    `json:"category_id,omitempty" validate:"omitempty,min=1"`
	Barcode     *string `json:"barcode,omitempty"     validate:"omitempty,max=50"`
	UnitPrice   *string `json:"unit_price,omitempty"  validate:"omitempty,numeric"`
}

type UpdateProductRequest struct {
	Name        string  `json:"name"                  validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID  *int    `json:"category_id,omitempty" validate:"omitempty,min=1"`
	Barcode     *string `json:"barcode,omitempty"     validate:"omitempty,max=50"`
	UnitPrice   *string `json:"unit_price,omitempty"  validate:"omitempty,numeric"`
}

type ProductResponse struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CategoryID  *int      `json:"category_id,omitempty"`
	Barcode     *string   `json:"barcode,omitempty"`
	UnitPrice   *string   `json:"unit_price,omitempty"`
	OwnerID     *int      `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

func ToProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Barcode:     p.Barcode,
		UnitPrice:   p.UnitPrice,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToProductListResponse(products []Product) ProductListResponse {
	resp := ProductListResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    len(products),
	}
	for i := range products {
		resp.Products = append(resp.Products, ToProductResponse(&products[i]))
	}
	return resp
}
