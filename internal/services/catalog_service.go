package services

import (
	"context"

	"supermart/internal/domain"
	"supermart/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

// ListProducts returns the whole catalog, or a name search when q is set.
func (s *CatalogService) ListProducts(ctx context.Context, q string) ([]domain.Product, error) {
	if q != "" {
		return s.Prods.Search(ctx, q)
	}
	return s.Prods.List(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}
