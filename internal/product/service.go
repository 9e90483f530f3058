// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stamps the caller's tenant on the new row. The owner always comes
// from the resolved grant, never from the request body.
func (s *Service) Create(
	ctx context.Context,
	req CreateProductRequest,
	ownerID int,
) (*Product, error) {
	product := &Product{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Barcode:     req.Barcode,
		UnitPrice:   req.UnitPrice,
		OwnerID:     &ownerID,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(
	ctx context.Context,
	product *Product,
	req UpdateProductRequest,
) error {
	product.Name = req.Name
	product.Description = req.Description
	product.CategoryID = req.CategoryID
	product.Barcode = req.Barcode
	product.UnitPrice = req.UnitPrice

	if err := s.repo.Update(ctx, product); err != nil {
		return fmt.Errorf("update product %d: %w", product.ID, err)
	}

	return nil
}

func (s *Service) Deactivate(ctx context.Context, id int) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) ListForOwner(
	ctx context.Context,
	ownerID int,
) ([]Product, error) {
	return s.repo.ListForOwner(ctx, ownerID)
}
