package services

import (
	"context"

	"supermart/internal/domain"
	"supermart/internal/repos"
)

// InventoryService is the admin side of the catalog.
type InventoryService struct {
	Prods *repos.ProductRepo
}

func NewInventoryService(prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Prods: prods}
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func CheckAvailability(qty int) domain.Availability {
	status := domain.OutOfStock
	switch {
	case qty >= 5:
		status = domain.InStock
	case qty > 0:
		status = domain.LowStock
	}
	return domain.Availability{Status: status, Qty: qty}
}

func (s *InventoryService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

func (s *InventoryService) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *InventoryService) Create(ctx context.Context, p domain.Product) (int64, error) {
	id, err := s.Prods.Create(ctx, p)
	if err != nil {
		return 0, domain.StoreErr("product create", err)
	}
	return id, nil
}

// Update overwrites name, price, quantity and image. Carts keep their
// reserved units and price snapshots.
func (s *InventoryService) Update(ctx context.Context, p domain.Product) error {
	return s.Prods.Update(ctx, p)
}

// Delete removes the product. Carts holding it fall back to snapshot fields.
func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	return s.Prods.Delete(ctx, id)
}
